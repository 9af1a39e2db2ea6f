package approval

import (
	"time"

	"github.com/firecms/cms/pkg/models"
)

// Action is an approver's decision.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Default comments used when the approver leaves the comment empty.
const (
	DefaultApproveComment = "승인합니다."
	DefaultRejectComment  = "반려합니다."
)

// Valid reports whether a is approve or reject.
func (a Action) Valid() bool {
	return a == ActionApprove || a == ActionReject
}

// Tracker applies approver actions to documents. It holds no document state.
type Tracker struct {
	now func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source used for step and comment timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates a Tracker using the UTC wall clock unless overridden.
func NewTracker(opts ...Option) *Tracker {
	tracker := &Tracker{
		now: func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(tracker)
	}

	return tracker
}

// Act records approverID's decision on doc and recomputes the aggregate status.
// The document is mutated in place and returned. When no step belongs to approverID
// the document is returned untouched and the second result is false.
// The action is assumed to be valid.
func (t *Tracker) Act(doc *models.Document, approverID string, action Action, comment string) (*models.Document, bool) {
	if doc == nil {
		return nil, false
	}

	step := doc.Step(approverID)
	if step == nil {
		return doc, false
	}

	now := t.now()

	if comment == "" {
		comment = defaultComment(action)
	}

	if action == ActionReject {
		step.Status = models.StepStatusRejected
	} else {
		step.Status = models.StepStatusApproved
	}

	step.Comment = comment
	step.ApprovedAt = &now

	author := step.Name
	if author == "" {
		author = approverID
	}

	doc.Comments = append(doc.Comments, models.Comment{
		Author:    author,
		AuthorID:  approverID,
		Text:      comment,
		Timestamp: now,
	})

	doc.Status = Next(doc.Status, Classify(doc.ApprovalFlow))

	return doc, true
}

func defaultComment(action Action) string {
	if action == ActionReject {
		return DefaultRejectComment
	}

	return DefaultApproveComment
}
