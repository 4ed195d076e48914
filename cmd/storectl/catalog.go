package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/service"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Products []service.CreateProductInput `yaml:"products"`
}

func loadCatalog(path string) ([]service.CreateProductInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return parseCatalog(raw)
}

func parseCatalog(raw []byte) ([]service.CreateProductInput, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(f.Products) == 0 {
		return nil, errors.New("catalog has no products")
	}
	return f.Products, nil
}

// validateCatalog checks every entry before anything is written so a bad
// file never seeds half a catalog.
func validateCatalog(items []service.CreateProductInput) error {
	var errs []error
	for i, item := range items {
		p := entity.Product{
			Name:        item.Name,
			Category:    entity.Category(item.Category),
			Capacity:    item.Capacity,
			Warranty:    item.Warranty,
			Price:       item.Price,
			Description: item.Description,
		}
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("product #%d (%q): %w", i+1, item.Name, err))
		}
	}
	return errors.Join(errs...)
}
