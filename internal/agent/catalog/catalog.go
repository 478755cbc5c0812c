package catalog

import (
	"context"
	"strings"

	"github.com/shopmind-poc/server/internal/agent/model"
)

// InMemoryCatalog is the built-in product source for demos and tests. It
// matches query tokens against name, category and description; a card
// matching any token is returned.
type InMemoryCatalog struct {
	products []model.ProductCard
}

func NewInMemoryCatalog(products []model.ProductCard) *InMemoryCatalog {
	if products == nil {
		products = DemoProducts
	}
	return &InMemoryCatalog{products: products}
}

func (c *InMemoryCatalog) Search(_ context.Context, query string, limit int) ([]model.ProductCard, error) {
	tokens := searchTokens(query)
	if len(tokens) == 0 || limit <= 0 {
		return nil, nil
	}

	var matched []model.ProductCard
	for _, p := range c.products {
		if matchesAny(p, tokens) {
			matched = append(matched, p)
			if len(matched) >= limit {
				break
			}
		}
	}
	return matched, nil
}

func searchTokens(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := fields[:0]
	for _, f := range fields {
		// short connective words would match everything
		if len(f) >= 3 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func matchesAny(p model.ProductCard, tokens []string) bool {
	haystack := strings.ToLower(p.Name + " " + p.Category + " " + p.Description)
	for _, t := range tokens {
		if strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}

var _ model.ProductSearcher = (*InMemoryCatalog)(nil)

// DemoProducts is the default electronics inventory.
var DemoProducts = []model.ProductCard{
	{
		ID:          "prod-001",
		Name:        "Aurora X1 Pro",
		Category:    "smartphones",
		Price:       999.00,
		Description: "Flagship smartphone with a 200MP camera, titanium frame and all-day battery",
		InStock:     true,
	},
	{
		ID:          "prod-002",
		Name:        "Pixelwave S24",
		Category:    "smartphones",
		Price:       849.00,
		Description: "Android phone with on-device AI features and a 120Hz OLED display",
		InStock:     true,
	},
	{
		ID:          "prod-003",
		Name:        "Featherbook Air 13",
		Category:    "laptops",
		Price:       1099.00,
		Description: "Lightweight laptop for travel and everyday work, 18-hour battery",
		InStock:     false,
	},
	{
		ID:          "prod-004",
		Name:        "Featherbook Pro 16",
		Category:    "laptops",
		Price:       2199.00,
		Description: "Creator laptop with a dedicated GPU for video editing and 3D work",
		InStock:     true,
	},
	{
		ID:          "prod-005",
		Name:        "Nimbus Pad 12.9",
		Category:    "tablets",
		Price:       899.00,
		Description: "Professional tablet with stylus support and a Liquid Retina display",
		InStock:     true,
	},
	{
		ID:          "prod-006",
		Name:        "QuietTone XM5",
		Category:    "audio",
		Price:       349.00,
		Description: "Wireless over-ear headphones with industry-leading noise cancellation",
		InStock:     true,
	},
	{
		ID:          "prod-007",
		Name:        "EchoBuds Mini",
		Category:    "audio",
		Price:       129.00,
		Description: "Compact wireless earbuds with spatial audio and a charging case",
		InStock:     true,
	},
	{
		ID:          "prod-008",
		Name:        "TrailWatch Ultra",
		Category:    "wearables",
		Price:       649.00,
		Description: "Rugged smartwatch for outdoor adventures with precise GPS",
		InStock:     false,
	},
	{
		ID:          "prod-009",
		Name:        "Swiftbook 15 Gaming",
		Category:    "laptops",
		Price:       1299.00,
		Description: "Gaming laptop with a 144Hz display and RTX-class graphics at a budget price",
		InStock:     true,
	},
	{
		ID:          "prod-010",
		Name:        "ClearCam 4K Webcam",
		Category:    "accessories",
		Price:       179.00,
		Description: "4K webcam with auto-framing for meetings and streaming",
		InStock:     true,
	},
}
