package models

import "time"

// DocumentStatus is the aggregate state of a document's approval flow.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"     // Nobody has acted
	DocumentStatusInProgress DocumentStatus = "in_progress" // Some approvers acted, not all
	DocumentStatusApproved   DocumentStatus = "approved"    // Every approver approved
	DocumentStatusRejected   DocumentStatus = "rejected"    // Terminal
)

// Valid reports whether s is one of the known aggregate states.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusInProgress, DocumentStatusApproved, DocumentStatusRejected:
		return true
	default:
		return false
	}
}

// StepStatus is the decision of a single approver.
type StepStatus string

const (
	StepStatusPending  StepStatus = "pending"
	StepStatusApproved StepStatus = "approved"
	StepStatusRejected StepStatus = "rejected"
)

// Document is an intranet document submitted for approval.
type Document struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Requester    string          `json:"requester"`
	Attachment   Attachment      `json:"document"`
	Status       DocumentStatus  `json:"status"`
	ApprovalFlow []*ApprovalStep `json:"approvalFlow"`
	Comments     []Comment       `json:"comments"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Attachment is the metadata of the file under review.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// ApprovalStep is one approver's position in the flow.
type ApprovalStep struct {
	ApproverID string     `json:"approverId"`
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	Status     StepStatus `json:"status"`
	Comment    string     `json:"comment"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
}

// Comment is an entry of the document's audit log.
type Comment struct {
	Author    string    `json:"author"`
	AuthorID  string    `json:"authorId,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Step returns the step owned by approverID, or nil.
func (d *Document) Step(approverID string) *ApprovalStep {
	for _, step := range d.ApprovalFlow {
		if step != nil && step.ApproverID == approverID {
			return step
		}
	}

	return nil
}
