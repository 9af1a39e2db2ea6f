package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firecms/cms/pkg/approval"
	"github.com/firecms/cms/pkg/eventbus"
	"github.com/firecms/cms/pkg/events"
	"github.com/firecms/cms/pkg/models"
	"github.com/firecms/cms/pkg/otelhelper"
	"github.com/firecms/cms/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// actAttempts bounds how often an unversioned action is retried after losing a race.
const actAttempts = 3

// ApproverInput names one approver of a new document, in flow order.
type ApproverInput struct {
	ApproverID string `json:"approverId" validate:"required,max=128"`
	Name       string `json:"name"       validate:"required,max=100"`
	Role       string `json:"role"       validate:"max=100"`
}

// SubmitRequest contains the data for a new approval document.
type SubmitRequest struct {
	Title      string            `json:"title"        validate:"required,max=255"`
	Requester  string            `json:"requester"    validate:"required,max=100"`
	Attachment models.Attachment `json:"document"`
	Approvers  []ApproverInput   `json:"approvalFlow" validate:"dive"`
}

// ActRequest is one approver's decision. When Version is set the action only applies
// to that exact revision of the document.
type ActRequest struct {
	DocumentID string
	ApproverID string
	Action     approval.Action
	Comment    string
	Version    *int
}

// Approval manages intranet approval documents.
type Approval struct {
	persistence persistence.Persistence
	tracker     *approval.Tracker
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	validate    *validator.Validate
	logger      *slog.Logger
	newID       func() string
}

// NewApproval creates a new approval service. publisher may be nil; a nil tracer uses
// the global provider.
func NewApproval(
	logger *slog.Logger,
	persistence persistence.Persistence,
	tracker *approval.Tracker,
	publisher eventbus.EventPublisher,
	tracer trace.Tracer,
) *Approval {
	if tracer == nil {
		tracer = otelhelper.GlobalTracer("cms")
	}

	return &Approval{
		persistence: persistence,
		tracker:     tracker,
		publisher:   publisher,
		tracer:      tracer,
		validate:    models.NewValidator(),
		logger:      logger.With("module", "approval_service"),
		newID:       func() string { return uuid.New().String() },
	}
}

// Submit creates a pending document whose steps follow req.Approvers.
func (a *Approval) Submit(ctx context.Context, req SubmitRequest) (*models.Document, error) {
	err := a.validate.Struct(req)
	if err != nil {
		return nil, NewValidationError("Submit", "INVALID_REQUEST", err.Error(), ErrInvalidRequest)
	}

	if len(req.Approvers) == 0 {
		return nil, NewValidationError("Submit", "EMPTY_APPROVAL_FLOW", "", ErrApprovalFlowEmpty)
	}

	seen := make(map[string]bool, len(req.Approvers))
	flow := make([]*models.ApprovalStep, 0, len(req.Approvers))

	for _, approver := range req.Approvers {
		if seen[approver.ApproverID] {
			return nil, NewValidationError("Submit", "DUPLICATE_APPROVER", "approver "+approver.ApproverID+" appears more than once", ErrDuplicateApprover)
		}

		seen[approver.ApproverID] = true

		flow = append(flow, &models.ApprovalStep{
			ApproverID: approver.ApproverID,
			Name:       approver.Name,
			Role:       approver.Role,
			Status:     models.StepStatusPending,
		})
	}

	document := &models.Document{
		ID:           a.newID(),
		Title:        req.Title,
		Requester:    req.Requester,
		Attachment:   req.Attachment,
		Status:       approval.Derive(flow),
		ApprovalFlow: flow,
		Comments:     []models.Comment{},
	}

	err = a.persistence.DocumentRepository().Save(ctx, document)
	if err != nil {
		return nil, fmt.Errorf("failed to submit document: %w", err)
	}

	approvers := make([]string, 0, len(flow))
	for _, step := range flow {
		approvers = append(approvers, step.ApproverID)
	}

	a.publish(ctx, document.ID, events.NewDocumentSubmitted(document.ID, document.Title, document.Requester, approvers))
	a.logger.InfoContext(ctx, "document submitted", "document_id", document.ID, "approvers", len(flow))

	return document, nil
}

func (a *Approval) FetchByID(ctx context.Context, id string) (*models.Document, error) {
	document, err := a.persistence.DocumentRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}

	return document, nil
}

// List returns documents newest first, optionally only those with the given status.
func (a *Approval) List(ctx context.Context, status string) ([]*models.Document, error) {
	filter := models.DocumentStatus(strings.TrimSpace(status))
	if filter != "" && !filter.Valid() {
		return nil, NewValidationError("List", "INVALID_STATUS", fmt.Sprintf("unknown status %q", status), ErrInvalidStatus)
	}

	documents, err := a.persistence.DocumentRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	if filter == "" {
		return documents, nil
	}

	filtered := make([]*models.Document, 0, len(documents))

	for _, document := range documents {
		if document.Status == filter {
			filtered = append(filtered, document)
		}
	}

	return filtered, nil
}

// Act records an approve or reject and stores the document.
func (a *Approval) Act(ctx context.Context, req ActRequest) (*models.Document, error) {
	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "approval.act",
		attribute.String(otelhelper.DocumentIDKey, req.DocumentID),
		attribute.String(otelhelper.ApproverIDKey, req.ApproverID),
		attribute.String(otelhelper.ActionKey, string(req.Action)),
	)
	defer span.End()

	document, err := a.act(ctx, req)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.DocumentStatusKey, string(document.Status)))

	return document, nil
}

func (a *Approval) act(ctx context.Context, req ActRequest) (*models.Document, error) {
	if !req.Action.Valid() {
		return nil, NewValidationError("Act", "INVALID_ACTION", fmt.Sprintf("unknown action %q", req.Action), ErrInvalidAction)
	}

	if strings.TrimSpace(req.ApproverID) == "" {
		return nil, NewValidationError("Act", "APPROVER_ID_REQUIRED", "", ErrApproverIDRequired)
	}

	attempts := 1
	if req.Version == nil {
		attempts = actAttempts
	}

	var err error

	for range attempts {
		var document *models.Document

		document, err = a.tryAct(ctx, req)
		if err == nil {
			return document, nil
		}

		if !persistence.IsVersionConflict(err) {
			return nil, err
		}
	}

	return nil, &ServiceError{Op: "Act", Code: "DOCUMENT_CONFLICT", Err: fmt.Errorf("%w: %w", ErrDocumentConflict, err)}
}

func (a *Approval) tryAct(ctx context.Context, req ActRequest) (*models.Document, error) {
	document, err := a.FetchByID(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}

	if req.Version != nil && *req.Version != document.Version {
		return nil, persistence.NewVersionConflictError("Act", document.ID, *req.Version)
	}

	previous := document.Status

	_, found := a.tracker.Act(document, req.ApproverID, req.Action, req.Comment)
	if !found {
		return nil, &ServiceError{
			Op:      "Act",
			Code:    "APPROVER_NOT_IN_FLOW",
			Message: fmt.Sprintf("approver %s is not part of document %s", req.ApproverID, document.ID),
			Err:     ErrApproverNotInFlow,
		}
	}

	err = a.persistence.DocumentRepository().Save(ctx, document)
	if err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	a.logger.InfoContext(ctx, "approval recorded",
		"document_id", document.ID,
		"approver_id", req.ApproverID,
		"action", req.Action,
		"status", document.Status,
		"version", document.Version,
	)

	a.publishTransitions(ctx, document, previous, req)

	return document, nil
}

func (a *Approval) publishTransitions(ctx context.Context, document *models.Document, previous models.DocumentStatus, req ActRequest) {
	a.publish(ctx, document.ID, events.NewDocumentActed(
		document.ID, req.ApproverID, string(req.Action), string(document.Status), document.Version,
	))

	if previous == document.Status {
		return
	}

	switch document.Status {
	case models.DocumentStatusApproved:
		a.publish(ctx, document.ID, events.NewDocumentApproved(document.ID, document.Title))
	case models.DocumentStatusRejected:
		reason := ""
		if step := document.Step(req.ApproverID); step != nil {
			reason = step.Comment
		}

		a.publish(ctx, document.ID, events.NewDocumentRejected(document.ID, document.Title, req.ApproverID, reason))
	default:
	}
}

func (a *Approval) publish(ctx context.Context, key string, event eventbus.Event) {
	if a.publisher == nil {
		return
	}

	err := a.publisher.Publish(ctx, key, event)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to publish event", "event_type", event.GetType(), "key", key, "error", err)
	}
}
