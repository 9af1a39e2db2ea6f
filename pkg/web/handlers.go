// Package web provides the HTTP handlers for product pages and approval documents.
package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/firecms/cms/pkg/models"
	"github.com/firecms/cms/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	productService  *services.Product
	approvalService *services.Approval
	validator       *validator.Validate
}

func NewAPIHandlers(
	productService *services.Product,
	approvalService *services.Approval,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		productService:  productService,
		approvalService: approvalService,
		validator:       validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.productService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "CMS API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "CMS API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetProducts(c fiber.Ctx) error {
	products, err := h.productService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(products)
}

func (h *APIHandlers) GetProduct(c fiber.Ctx) error {
	product, err := h.productService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(product)
}

func (h *APIHandlers) CreateProduct(c fiber.Ctx) error {
	var product models.Product
	if err := c.Bind().JSON(&product); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.productService.Save(c.Context(), &product); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

// UpdateProduct replaces a product. The body id may be omitted but must not disagree with the path.
func (h *APIHandlers) UpdateProduct(c fiber.Ctx) error {
	id := c.Params("id")

	var product models.Product
	if err := c.Bind().JSON(&product); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if product.ID != "" && product.ID != id {
		return badRequest(c, "Product ID in body does not match the URL")
	}

	product.ID = id

	existing, err := h.productService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	product.CreatedAt = existing.CreatedAt

	if err := h.productService.Save(c.Context(), &product); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(product)
}

func (h *APIHandlers) DeleteProduct(c fiber.Ctx) error {
	if err := h.productService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ImportProducts(c fiber.Ctx) error {
	imported, err := h.productService.Import(c.Context(), c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(ImportResponse{Imported: imported})
}

func (h *APIHandlers) GeneratePage(c fiber.Ctx) error {
	id := c.Params("id")

	if err := h.productService.GeneratePage(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(GenerateResponse{ProductID: id, Directory: h.productService.PageDir(id)})
}

func (h *APIHandlers) PreviewPage(c fiber.Ctx) error {
	page, err := h.productService.PreviewPage(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(page)
}

// GenerateAllPages answers 200 even when some pages failed; the failures are listed.
func (h *APIHandlers) GenerateAllPages(c fiber.Ctx) error {
	generated, err := h.productService.GenerateAll(c.Context())

	response := GenerateAllResponse{Generated: generated}

	if err != nil {
		var joined interface{ Unwrap() []error }
		if !errors.As(err, &joined) {
			return handleServiceError(c, err)
		}

		for _, failure := range joined.Unwrap() {
			response.Errors = append(response.Errors, failure.Error())
		}
	}

	return c.JSON(response)
}

func (h *APIHandlers) GetDocuments(c fiber.Ctx) error {
	documents, err := h.approvalService.List(c.Context(), c.Query("status"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(documents)
}

func (h *APIHandlers) GetDocument(c fiber.Ctx) error {
	document, err := h.approvalService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(document)
}

func (h *APIHandlers) CreateDocument(c fiber.Ctx) error {
	var req CreateDocumentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	document, err := h.approvalService.Submit(c.Context(), req.toService())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(document)
}

func (h *APIHandlers) ActOnDocument(c fiber.Ctx) error {
	var req ActionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	document, err := h.approvalService.Act(c.Context(), req.toService(c.Params("id")))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(document)
}
