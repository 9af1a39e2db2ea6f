package web

import (
	"errors"

	"github.com/firecms/cms/pkg/pagegen"
	"github.com/firecms/cms/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem, problems.ProblemMediaType)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem, problems.ProblemMediaType)
}

func internalError(c fiber.Ctx, problemType string, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType(problemType).
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem, problems.ProblemMediaType)
}

// handleServiceError maps service layer errors to problem+json responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case errors.Is(err, services.ErrApproverNotInFlow):
		return notFound(c, "approver_not_in_flow", "approver is not part of the approval flow")

	case errors.Is(err, services.ErrProductNotFound):
		return notFound(c, "product_not_found", "product not found")

	case errors.Is(err, services.ErrDocumentNotFound):
		return notFound(c, "document_not_found", "document not found")

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem, problems.ProblemMediaType)

	case pagegen.IsGenerationError(err):
		return internalError(c, "generation_error", err)

	default:
		return internalError(c, "internal_error", err)
	}
}
