package handlers

import (
	"katalog/internal/models"
	"katalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleCreateProduct creates a product from a multipart form with an image file.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	req := models.CreateProductRequest{
		Title: c.FormValue("title"),
		Price: c.FormValue("price"),
		Desc:  c.FormValue("desc"),
	}
	// a missing file is reported by validation, not here
	if file, err := c.FormFile("image"); err == nil {
		req.Image = file
	}

	product, err := h.service.CreateProduct(c.UserContext(), req)
	if err != nil {
		return writeError(c, err, "Could not create product")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"product": product,
	})
}

// HandleGetProducts returns one page of products.
// limit and page are coerced to integers; absent or non-numeric values fall
// back to the defaults.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	page := services.Pagination{
		Page:  queryInt(c, "page", services.DefaultPage),
		Limit: queryInt(c, "limit", services.DefaultLimit),
	}

	result, err := h.service.ListProducts(c.UserContext(), page)
	if err != nil {
		return writeError(c, err, "Could not retrieve products")
	}
	return c.JSON(result)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

// HandleUpdateProduct updates title and price (and desc when sent) of a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req models.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, services.NewValidationError("Invalid request body"), "")
	}

	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return writeError(c, err, "Could not update product")
	}

	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"product": product,
	})
}

// HandleDeleteProduct permanently deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err, "Could not delete product")
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
	})
}
