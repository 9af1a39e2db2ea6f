package web

import (
	"github.com/firecms/cms/pkg/approval"
	"github.com/firecms/cms/pkg/models"
	"github.com/firecms/cms/pkg/services"
)

// ApproverRequest names one approver in a new document's flow.
type ApproverRequest struct {
	ApproverID string `json:"approverId" validate:"required,max=128"`
	Name       string `json:"name"       validate:"required"`
	Role       string `json:"role"`
}

// CreateDocumentRequest represents the request body for submitting a document for approval.
type CreateDocumentRequest struct {
	Title        string            `json:"title"        validate:"required,max=255"`
	Requester    string            `json:"requester"    validate:"required"`
	Document     models.Attachment `json:"document"`
	ApprovalFlow []ApproverRequest `json:"approvalFlow" validate:"required,min=1,dive"`
}

func (r CreateDocumentRequest) toService() services.SubmitRequest {
	approvers := make([]services.ApproverInput, 0, len(r.ApprovalFlow))
	for _, approver := range r.ApprovalFlow {
		approvers = append(approvers, services.ApproverInput{
			ApproverID: approver.ApproverID,
			Name:       approver.Name,
			Role:       approver.Role,
		})
	}

	return services.SubmitRequest{
		Title:      r.Title,
		Requester:  r.Requester,
		Attachment: r.Document,
		Approvers:  approvers,
	}
}

// ActionRequest represents one approver's decision on a document.
// Version, when present, must equal the document's current version.
type ActionRequest struct {
	ApproverID string `json:"approverId"        validate:"required"`
	Action     string `json:"action"            validate:"required,oneof=approve reject"`
	Comment    string `json:"comment,omitempty" validate:"max=2000"`
	Version    *int   `json:"version,omitempty" validate:"omitempty,min=1"`
}

func (r ActionRequest) toService(documentID string) services.ActRequest {
	return services.ActRequest{
		DocumentID: documentID,
		ApproverID: r.ApproverID,
		Action:     approval.Action(r.Action),
		Comment:    r.Comment,
		Version:    r.Version,
	}
}

// GenerateResponse reports where a product page was written.
type GenerateResponse struct {
	ProductID string `json:"product_id"`
	Directory string `json:"directory"`
}

// GenerateAllResponse reports a batch regeneration.
type GenerateAllResponse struct {
	Generated int      `json:"generated"`
	Errors    []string `json:"errors,omitempty"`
}

// ImportResponse reports how many products an import stored.
type ImportResponse struct {
	Imported int `json:"imported"`
}
