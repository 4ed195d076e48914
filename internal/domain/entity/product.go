package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Category string

const (
	CategoryBiogas     Category = "biogas"
	CategoryFertilizer Category = "fertilizer"
)

func (c Category) Valid() bool {
	return c == CategoryBiogas || c == CategoryFertilizer
}

type Product struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Category    Category  `bson:"category" json:"category"`
	Capacity    string    `bson:"capacity,omitempty" json:"capacity,omitempty"`
	Warranty    string    `bson:"warranty,omitempty" json:"warranty,omitempty"`
	Price       int64     `bson:"price" json:"price"`
	Description string    `bson:"description" json:"description"`
	ImageURL    string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// ProductSummary is the subset of a product shown next to cart lines.
type ProductSummary struct {
	ID          string   `bson:"_id,omitempty" json:"id"`
	Name        string   `bson:"name" json:"name"`
	Category    Category `bson:"category" json:"category"`
	Description string   `bson:"description" json:"description"`
	Capacity    string   `bson:"capacity,omitempty" json:"capacity,omitempty"`
	Warranty    string   `bson:"warranty,omitempty" json:"warranty,omitempty"`
}

func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("product name is required")
	}
	if !p.Category.Valid() {
		return fmt.Errorf("category must be %q or %q", CategoryBiogas, CategoryFertilizer)
	}
	if p.Price <= 0 {
		return errors.New("price must be greater than zero")
	}
	if p.Category != CategoryBiogas && (p.Capacity != "" || p.Warranty != "") {
		return errors.New("capacity and warranty apply to biogas units only")
	}
	return nil
}

func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Description,
		Capacity:    p.Capacity,
		Warranty:    p.Warranty,
	}
}
