package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"testing"

	"katalog/internal/models"
	"katalog/internal/repositories"
	"katalog/internal/services"
	"katalog/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func imageHeader(t *testing.T, filename string) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("img"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["image"][0]
}

func newService() (*services.ProductService, *MockProductRepository, *MockImageStore, *MockEventPublisher) {
	repo := new(MockProductRepository)
	images := new(MockImageStore)
	events := new(MockEventPublisher)
	return services.NewProductService(repo, images, events), repo, images, events
}

func TestProductService_CreateProduct(t *testing.T) {
	service, repo, images, events := newService()
	header := imageHeader(t, "pen.png")

	images.On("Save", header).Return("/uploads/1-pen.png", nil).Once()
	repo.On("Create", mock.AnythingOfType("*models.Product")).Run(func(args mock.Arguments) {
		args.Get(0).(*models.Product).ID = "generated-id"
	}).Return(nil).Once()
	events.On("PublishProductEvent", services.EventProductCreated, mock.AnythingOfType("*models.Product")).Return(nil).Once()

	product, err := service.CreateProduct(context.Background(), models.CreateProductRequest{
		Title: "Pen", Price: "2.5", Desc: "blue pen", Image: header,
	})
	require.NoError(t, err)
	assert.Equal(t, "generated-id", product.ID)
	assert.Equal(t, "Pen", product.Title)
	assert.Equal(t, 2.5, product.Price)
	assert.Equal(t, "blue pen", product.Desc)
	assert.Equal(t, "/uploads/1-pen.png", product.Image)
	repo.AssertExpectations(t)
	images.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestProductService_CreateProductRejectsInvalidInput(t *testing.T) {
	tests := map[string]models.CreateProductRequest{
		"missing title": {Price: "1", Desc: "d"},
		"missing price": {Title: "t", Desc: "d"},
		"missing desc":  {Title: "t", Price: "1"},
		"missing image": {Title: "t", Price: "1", Desc: "d"},
		"zero price":    {Title: "t", Price: "0", Desc: "d"},
		"negative":      {Title: "t", Price: "-4", Desc: "d"},
		"non numeric":   {Title: "t", Price: "cheap", Desc: "d"},
		"nan":           {Title: "t", Price: "NaN", Desc: "d"},
		"infinite":      {Title: "t", Price: "+Inf", Desc: "d"},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			service, repo, images, events := newService()
			if name != "missing image" {
				req.Image = imageHeader(t, "a.png")
			}

			_, err := service.CreateProduct(context.Background(), req)
			assert.True(t, services.IsValidationError(err), "expected validation error, got %v", err)
			images.AssertNotCalled(t, "Save", mock.Anything)
			repo.AssertNotCalled(t, "Create", mock.Anything)
			events.AssertNotCalled(t, "PublishProductEvent", mock.Anything, mock.Anything)
		})
	}
}

func TestProductService_CreateProductUnsupportedFormat(t *testing.T) {
	service, repo, images, _ := newService()
	header := imageHeader(t, "a.gif")

	images.On("Save", header).Return("", fmt.Errorf("%w: a.gif", storage.ErrUnsupportedFormat)).Once()

	_, err := service.CreateProduct(context.Background(), models.CreateProductRequest{
		Title: "t", Price: "1", Desc: "d", Image: header,
	})
	assert.True(t, services.IsValidationError(err))
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestProductService_CreateProductRemovesImageWhenPersistFails(t *testing.T) {
	service, repo, images, events := newService()
	header := imageHeader(t, "a.png")

	images.On("Save", header).Return("/uploads/1-a.png", nil).Once()
	repo.On("Create", mock.Anything).Return(fmt.Errorf("database error")).Once()
	images.On("Remove", "/uploads/1-a.png").Return(nil).Once()

	_, err := service.CreateProduct(context.Background(), models.CreateProductRequest{
		Title: "t", Price: "1", Desc: "d", Image: header,
	})
	assert.ErrorContains(t, err, "database error")
	assert.False(t, services.IsValidationError(err))
	images.AssertExpectations(t)
	events.AssertNotCalled(t, "PublishProductEvent", mock.Anything, mock.Anything)
}

func TestProductService_ListProducts(t *testing.T) {
	service, repo, _, _ := newService()

	expected := []models.Product{{ID: "3", Title: "C"}, {ID: "4", Title: "D"}}
	repo.On("List", 2, 2).Return(expected, nil).Once()
	repo.On("Count").Return(int64(5), nil).Once()

	page, err := service.ListProducts(context.Background(), services.Pagination{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.TotalProducts)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, expected, page.Products)
	repo.AssertExpectations(t)
}

func TestProductService_ListProductsClampsAndNeverReturnsNil(t *testing.T) {
	service, repo, _, _ := newService()

	repo.On("Count").Return(int64(0), nil).Once()

	page, err := service.ListProducts(context.Background(), services.Pagination{Page: -1, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 0, page.TotalPages)
	assert.NotNil(t, page.Products)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)

	body, err := json.Marshal(page)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"products":[]`)
}

func TestProductService_ListProductsPastTheEnd(t *testing.T) {
	service, repo, _, _ := newService()

	repo.On("Count").Return(int64(7), nil).Once()

	page, err := service.ListProducts(context.Background(), services.Pagination{Page: math.MaxInt / 2, Limit: math.MaxInt})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt/2, page.CurrentPage)
	assert.Equal(t, 1, page.TotalPages)
	assert.Empty(t, page.Products)
	assert.NotNil(t, page.Products)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestProductService_GetProductByID(t *testing.T) {
	service, repo, _, _ := newService()

	expectedProduct := &models.Product{ID: "1", Title: "Product A", Price: 10.0}

	repo.On("GetByID", "1").Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID(context.Background(), "1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	repo.On("GetByID", "99").Return(nil, fmt.Errorf("product with ID 99: %w", repositories.ErrProductNotFound)).Once()
	product, err = service.GetProductByID(context.Background(), "99")
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	assert.Nil(t, product)
	repo.AssertExpectations(t)
}

func TestProductService_UpdateProduct(t *testing.T) {
	service, repo, _, events := newService()

	desc := "refill"
	updated := &models.Product{ID: "1", Title: "Pen v2", Price: 3, Desc: desc, Image: "/uploads/1-pen.png"}
	repo.On("Update", "1", models.ProductChanges{Title: "Pen v2", Price: 3, Desc: &desc}).Return(updated, nil).Once()
	events.On("PublishProductEvent", services.EventProductUpdated, updated).Return(fmt.Errorf("broker down")).Once()

	product, err := service.UpdateProduct(context.Background(), "1", models.UpdateProductRequest{
		Title: "Pen v2", Price: json.Number("3"), Desc: &desc,
	})
	require.NoError(t, err, "publish failures must not fail the update")
	assert.Equal(t, updated, product)
	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestProductService_UpdateProductValidation(t *testing.T) {
	empty := ""
	tests := map[string]models.UpdateProductRequest{
		"missing title": {Price: "3"},
		"missing price": {Title: "x"},
		"bad price":     {Title: "x", Price: "-1"},
		"empty desc":    {Title: "x", Price: "1", Desc: &empty},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			service, repo, _, _ := newService()
			_, err := service.UpdateProduct(context.Background(), "1", req)
			assert.True(t, services.IsValidationError(err), "got %v", err)
			repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		})
	}
}

func TestProductService_UpdateProductNotFound(t *testing.T) {
	service, repo, _, events := newService()

	repo.On("Update", "99", mock.Anything).Return(nil, fmt.Errorf("product with ID 99: %w", repositories.ErrProductNotFound)).Once()
	_, err := service.UpdateProduct(context.Background(), "99", models.UpdateProductRequest{Title: "x", Price: "1"})
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	events.AssertNotCalled(t, "PublishProductEvent", mock.Anything, mock.Anything)
}

func TestProductService_DeleteProduct(t *testing.T) {
	service, repo, _, events := newService()

	repo.On("Delete", "1").Return(nil).Once()
	events.On("PublishProductEvent", services.EventProductDeleted, map[string]string{"id": "1"}).Return(nil).Once()
	assert.NoError(t, service.DeleteProduct(context.Background(), "1"))

	repo.On("Delete", "99").Return(fmt.Errorf("product with ID 99: %w", repositories.ErrProductNotFound)).Once()
	err := service.DeleteProduct(context.Background(), "99")
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestProductService_WithoutPublisher(t *testing.T) {
	repo := new(MockProductRepository)
	service := services.NewProductService(repo, new(MockImageStore), nil)

	repo.On("Delete", "1").Return(nil).Once()
	assert.NoError(t, service.DeleteProduct(context.Background(), "1"))
}
