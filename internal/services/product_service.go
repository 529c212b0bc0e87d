package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"katalog/internal/models"
	"katalog/internal/repositories"
	"katalog/internal/storage"

	"github.com/go-playground/validator/v10"
)

// Product event names published after successful writes.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// EventPublisher receives product lifecycle events. Publishing is best effort.
type EventPublisher interface {
	PublishProductEvent(event string, payload interface{}) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo     repositories.ProductRepository
	images   storage.ImageStore
	events   EventPublisher
	validate *validator.Validate
}

// NewProductService creates a new ProductService. events may be nil.
func NewProductService(repo repositories.ProductRepository, images storage.ImageStore, events EventPublisher) *ProductService {
	return &ProductService{
		repo:     repo,
		images:   images,
		events:   events,
		validate: validator.New(),
	}
}

// CreateProduct validates the request, stores the image and persists the product.
func (s *ProductService) CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fromValidator(err, "title, price, desc and image are required")
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		return nil, err
	}

	location, err := s.images.Save(ctx, req.Image)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedFormat) {
			return nil, &ValidationError{
				Message: "image must be one of: " + strings.Join(storage.AllowedFormats, ", "),
				Fields:  map[string]string{"Image": err.Error()},
			}
		}
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	product := &models.Product{
		Title: req.Title,
		Price: price,
		Image: location,
		Desc:  req.Desc,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if rmErr := s.images.Remove(ctx, location); rmErr != nil {
			log.Printf("Warning: failed to remove orphaned image %s: %v", location, rmErr)
		}
		return nil, err
	}

	s.publish(EventProductCreated, product)
	return product, nil
}

// ListProducts returns one page of products together with the totals.
func (s *ProductService) ListProducts(ctx context.Context, page Pagination) (*models.ProductPage, error) {
	page = NewPagination(page.Page, page.Limit)

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	products := []models.Product{}
	// pages past the end are empty without asking the store
	if offset := page.Offset(); int64(offset) < total {
		products, err = s.repo.List(ctx, offset, page.Limit)
		if err != nil {
			return nil, err
		}
		if products == nil {
			products = []models.Product{}
		}
	}

	return &models.ProductPage{
		TotalProducts: total,
		CurrentPage:   page.Page,
		TotalPages:    page.TotalPages(total),
		Products:      products,
	}, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProduct replaces title and price, and desc when given. The image is kept.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, req models.UpdateProductRequest) (*models.Product, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fromValidator(err, "title and price are required")
	}
	price, err := parsePrice(string(req.Price))
	if err != nil {
		return nil, err
	}
	if req.Desc != nil && *req.Desc == "" {
		return nil, &ValidationError{
			Message: "desc must not be empty",
			Fields:  map[string]string{"Desc": "Field 'Desc' must not be empty"},
		}
	}

	product, err := s.repo.Update(ctx, id, models.ProductChanges{
		Title: req.Title,
		Price: price,
		Desc:  req.Desc,
	})
	if err != nil {
		return nil, err
	}

	s.publish(EventProductUpdated, product)
	return product, nil
}

// DeleteProduct permanently deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(EventProductDeleted, map[string]string{"id": id})
	return nil
}

func (s *ProductService) publish(event string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishProductEvent(event, payload); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", event, err)
	}
}

// parsePrice accepts finite numbers strictly greater than zero.
func parsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, &ValidationError{
			Message: "price must be a positive number",
			Fields:  map[string]string{"Price": fmt.Sprintf("'%s' is not a positive number", raw)},
		}
	}
	return price, nil
}
