// Package events defines the notifications published when pages are generated and documents move through approval.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every CMS event.
const Topic = "cms.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Static page generation.
	PageGeneratedEvent        EventType = "page.generated"
	PageGenerationFailedEvent EventType = "page.generation_failed"

	// Approval document lifecycle.
	DocumentSubmittedEvent EventType = "document.submitted"
	DocumentActedEvent     EventType = "document.acted"
	DocumentApprovedEvent  EventType = "document.approved"
	DocumentRejectedEvent  EventType = "document.rejected"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func newBase(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

type PageGenerated struct {
	BaseEvent

	ProductID  string `json:"product_id"`
	EntryPath  string `json:"entry_path"`
	ClientPath string `json:"client_path"`
}

func NewPageGenerated(productID, entryPath, clientPath string) PageGenerated {
	return PageGenerated{
		BaseEvent:  newBase(PageGeneratedEvent),
		ProductID:  productID,
		EntryPath:  entryPath,
		ClientPath: clientPath,
	}
}

func (e PageGenerated) GetType() EventType {
	return PageGeneratedEvent
}

type PageGenerationFailed struct {
	BaseEvent

	ProductID string `json:"product_id"`
	Error     string `json:"error"`
}

func NewPageGenerationFailed(productID string, err error) PageGenerationFailed {
	return PageGenerationFailed{
		BaseEvent: newBase(PageGenerationFailedEvent),
		ProductID: productID,
		Error:     err.Error(),
	}
}

func (e PageGenerationFailed) GetType() EventType {
	return PageGenerationFailedEvent
}

type DocumentSubmitted struct {
	BaseEvent

	DocumentID string   `json:"document_id"`
	Title      string   `json:"title"`
	Requester  string   `json:"requester"`
	Approvers  []string `json:"approvers"`
}

func NewDocumentSubmitted(documentID, title, requester string, approvers []string) DocumentSubmitted {
	return DocumentSubmitted{
		BaseEvent:  newBase(DocumentSubmittedEvent),
		DocumentID: documentID,
		Title:      title,
		Requester:  requester,
		Approvers:  approvers,
	}
}

func (e DocumentSubmitted) GetType() EventType {
	return DocumentSubmittedEvent
}

// DocumentActed is published for every recorded approve or reject.
type DocumentActed struct {
	BaseEvent

	DocumentID string `json:"document_id"`
	ApproverID string `json:"approver_id"`
	Action     string `json:"action"`
	Status     string `json:"status"`
	Version    int    `json:"version"`
}

func NewDocumentActed(documentID, approverID, action, status string, version int) DocumentActed {
	return DocumentActed{
		BaseEvent:  newBase(DocumentActedEvent),
		DocumentID: documentID,
		ApproverID: approverID,
		Action:     action,
		Status:     status,
		Version:    version,
	}
}

func (e DocumentActed) GetType() EventType {
	return DocumentActedEvent
}

// DocumentApproved is published once, when the last pending step is approved.
type DocumentApproved struct {
	BaseEvent

	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
}

func NewDocumentApproved(documentID, title string) DocumentApproved {
	return DocumentApproved{
		BaseEvent:  newBase(DocumentApprovedEvent),
		DocumentID: documentID,
		Title:      title,
	}
}

func (e DocumentApproved) GetType() EventType {
	return DocumentApprovedEvent
}

// DocumentRejected is published when a document first becomes rejected.
type DocumentRejected struct {
	BaseEvent

	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	RejectedBy string `json:"rejected_by"`
	Reason     string `json:"reason"`
}

func NewDocumentRejected(documentID, title, rejectedBy, reason string) DocumentRejected {
	return DocumentRejected{
		BaseEvent:  newBase(DocumentRejectedEvent),
		DocumentID: documentID,
		Title:      title,
		RejectedBy: rejectedBy,
		Reason:     reason,
	}
}

func (e DocumentRejected) GetType() EventType {
	return DocumentRejectedEvent
}
