// Package approval tracks a document through its ordered list of approvers.
package approval

import "github.com/firecms/cms/pkg/models"

// Shape summarises the multiset of step statuses in a flow.
type Shape int

const (
	ShapeUntouched Shape = iota // every step pending, or no steps
	ShapePartial                // at least one approved and one pending, none rejected
	ShapeComplete               // every step approved
	ShapeRejected               // at least one step rejected
)

func (s Shape) String() string {
	switch s {
	case ShapeUntouched:
		return "untouched"
	case ShapePartial:
		return "partial"
	case ShapeComplete:
		return "complete"
	case ShapeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Classify reduces the flow to its Shape.
func Classify(flow []*models.ApprovalStep) Shape {
	var approved, rejected, total int

	for _, step := range flow {
		if step == nil {
			continue
		}

		total++

		switch step.Status {
		case models.StepStatusApproved:
			approved++
		case models.StepStatusRejected:
			rejected++
		}
	}

	switch {
	case rejected > 0:
		return ShapeRejected
	case total > 0 && approved == total:
		return ShapeComplete
	case approved > 0:
		return ShapePartial
	default:
		return ShapeUntouched
	}
}

type transition struct {
	from  models.DocumentStatus
	shape Shape
}

// transitions maps (current aggregate, flow shape) to the next aggregate.
// Rejected absorbs every shape.
var transitions = map[transition]models.DocumentStatus{
	{models.DocumentStatusPending, ShapeUntouched}: models.DocumentStatusPending,
	{models.DocumentStatusPending, ShapePartial}:   models.DocumentStatusInProgress,
	{models.DocumentStatusPending, ShapeComplete}:  models.DocumentStatusApproved,
	{models.DocumentStatusPending, ShapeRejected}:  models.DocumentStatusRejected,

	{models.DocumentStatusInProgress, ShapeUntouched}: models.DocumentStatusPending,
	{models.DocumentStatusInProgress, ShapePartial}:   models.DocumentStatusInProgress,
	{models.DocumentStatusInProgress, ShapeComplete}:  models.DocumentStatusApproved,
	{models.DocumentStatusInProgress, ShapeRejected}:  models.DocumentStatusRejected,

	{models.DocumentStatusApproved, ShapeUntouched}: models.DocumentStatusPending,
	{models.DocumentStatusApproved, ShapePartial}:   models.DocumentStatusInProgress,
	{models.DocumentStatusApproved, ShapeComplete}:  models.DocumentStatusApproved,
	{models.DocumentStatusApproved, ShapeRejected}:  models.DocumentStatusRejected,

	{models.DocumentStatusRejected, ShapeUntouched}: models.DocumentStatusRejected,
	{models.DocumentStatusRejected, ShapePartial}:   models.DocumentStatusRejected,
	{models.DocumentStatusRejected, ShapeComplete}:  models.DocumentStatusRejected,
	{models.DocumentStatusRejected, ShapeRejected}:  models.DocumentStatusRejected,
}

// Next returns the aggregate that follows current once the flow has the given shape.
// An unknown current status is treated as pending.
func Next(current models.DocumentStatus, shape Shape) models.DocumentStatus {
	if !current.Valid() {
		current = models.DocumentStatusPending
	}

	next, ok := transitions[transition{from: current, shape: shape}]
	if !ok {
		return current
	}

	return next
}

// Derive computes the aggregate of a flow that has no history.
func Derive(flow []*models.ApprovalStep) models.DocumentStatus {
	return Next(models.DocumentStatusPending, Classify(flow))
}
