package product

import (
	"fmt"
	"strings"
)

// Product is a single validated catalog item.
type Product struct {
	id              string
	title           string
	brand           string
	description     string
	price           float64
	categories      []string
	material        string
	color           string
	imageURL        string
	manufacturer    string
	countryOfOrigin string
}

// New validates and creates a Product.
// id and title are required; price must be non-negative.
func New(
	id, title, brand, description string,
	price float64,
	categories []string,
	material, color, imageURL string,
) (Product, error) {
	if strings.TrimSpace(id) == "" {
		return Product{}, fmt.Errorf("product id is required")
	}
	if strings.TrimSpace(title) == "" {
		return Product{}, fmt.Errorf("product %q: title is required", id)
	}
	if price < 0 {
		return Product{}, fmt.Errorf("product %q: price must be non-negative, got %v", id, price)
	}

	return Product{
		id:          id,
		title:       title,
		brand:       brand,
		description: description,
		price:       price,
		categories:  categories,
		material:    strings.ToLower(strings.TrimSpace(material)),
		color:       strings.ToLower(strings.TrimSpace(color)),
		imageURL:    imageURL,
	}, nil
}

// WithProvenance attaches optional manufacturer and country-of-origin metadata.
func (p Product) WithProvenance(manufacturer, countryOfOrigin string) Product {
	p.manufacturer = manufacturer
	p.countryOfOrigin = countryOfOrigin
	return p
}

// ID returns the unique product identifier.
func (p *Product) ID() string { return p.id }

// Title returns the product title.
func (p *Product) Title() string { return p.title }

// Brand returns the product brand.
func (p *Product) Brand() string { return p.brand }

// Description returns the product description.
func (p *Product) Description() string { return p.description }

// Price returns the product price.
func (p *Product) Price() float64 { return p.price }

// Categories returns the ordered category list.
func (p *Product) Categories() []string { return p.categories }

// Material returns the normalized (lowercase) material.
func (p *Product) Material() string { return p.material }

// Color returns the normalized (lowercase) color.
func (p *Product) Color() string { return p.color }

// ImageURL returns the primary image URL.
func (p *Product) ImageURL() string { return p.imageURL }

// Manufacturer returns the manufacturer, if known.
func (p *Product) Manufacturer() string { return p.manufacturer }

// CountryOfOrigin returns the country of origin, if known.
func (p *Product) CountryOfOrigin() string { return p.countryOfOrigin }

// WeightedText assembles the embedding input for the product.
// Title is repeated 3x and description 2x so a single embedding call
// biases toward the most descriptive fields; categories, material and
// color contribute once each.
func (p *Product) WeightedText() string {
	parts := make([]string, 0, 7)
	parts = append(parts, p.title, p.title, p.title)
	if p.description != "" {
		parts = append(parts, p.description, p.description)
	}
	if len(p.categories) > 0 {
		parts = append(parts, strings.Join(p.categories, ", "))
	}
	if p.material != "" || p.color != "" {
		parts = append(parts, strings.TrimSpace(p.material+" "+p.color))
	}
	return strings.Join(parts, " ")
}
