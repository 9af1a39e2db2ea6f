package web

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts the product, page and document endpoints on router.
func RegisterRoutes(router fiber.Router, handlers *APIHandlers) {
	p := router.Group("/products")
	p.Get("/", handlers.GetProducts)
	p.Post("/", handlers.CreateProduct)
	p.Post("/import", handlers.ImportProducts)
	p.Get("/:id", handlers.GetProduct)
	p.Put("/:id", handlers.UpdateProduct)
	p.Delete("/:id", handlers.DeleteProduct)
	p.Post("/:id/page", handlers.GeneratePage)
	p.Get("/:id/page/preview", handlers.PreviewPage)

	router.Post("/pages", handlers.GenerateAllPages)

	d := router.Group("/documents")
	d.Get("/", handlers.GetDocuments)
	d.Post("/", handlers.CreateDocument)
	d.Get("/:id", handlers.GetDocument)
	d.Post("/:id/actions", handlers.ActOnDocument)

	router.Get("/health", handlers.HealthCheck)
}
