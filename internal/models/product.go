package models

import (
	"encoding/json"
	"mime/multipart"
	"time"
)

// Product represents a catalog entry with its stored image reference.
type Product struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Title     string    `json:"title" gorm:"not null" bson:"title"`
	Price     float64   `json:"price" gorm:"not null" bson:"price"`
	Image     string    `json:"image" gorm:"not null" bson:"image"`
	Desc      string    `json:"desc" gorm:"column:description;not null" bson:"desc"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ProductChanges holds the fields an update is allowed to touch.
// Desc is left untouched when nil. The image is never updatable.
type ProductChanges struct {
	Title string
	Price float64
	Desc  *string
}

// Apply copies the changes onto p.
func (ch ProductChanges) Apply(p *Product) {
	p.Title = ch.Title
	p.Price = ch.Price
	if ch.Desc != nil {
		p.Desc = *ch.Desc
	}
}

// CreateProductRequest is the multipart form accepted by POST /products.
// Price stays textual until the service parses it.
type CreateProductRequest struct {
	Title string                `form:"title" validate:"required"`
	Price string                `form:"price" validate:"required"`
	Desc  string                `form:"desc" validate:"required"`
	Image *multipart.FileHeader `form:"-" validate:"required"`
}

// UpdateProductRequest is the body accepted by PUT /products/:id.
type UpdateProductRequest struct {
	Title string      `json:"title" form:"title" validate:"required"`
	Price json.Number `json:"price" form:"price" validate:"required"`
	Desc  *string     `json:"desc" form:"desc"`
}

// ProductPage is one page of the product listing.
type ProductPage struct {
	TotalProducts int64     `json:"totalProducts"`
	CurrentPage   int       `json:"currentPage"`
	TotalPages    int       `json:"totalPages"`
	Products      []Product `json:"products"`
}
