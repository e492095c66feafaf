package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Line is one product in a session cart. Prices are never stored here; they
// are read live from the catalog whenever the cart is enriched.
type Line struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

// EnrichedLine joins a cart line with the current product row.
type EnrichedLine struct {
	ProductID      uint            `json:"product_id"`
	Name           string          `json:"name"`
	ImageURL       string          `json:"image_url"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int             `json:"quantity"`
	AvailableStock int             `json:"available_stock"`
	InStock        bool            `json:"in_stock"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// View is the enriched, priced cart.
type View struct {
	Lines      []EnrichedLine  `json:"lines"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int             `json:"item_count"`
	AllInStock bool            `json:"all_in_stock"`
}

// IsEmpty reports whether the view has no lines.
func (v *View) IsEmpty() bool {
	return v == nil || len(v.Lines) == 0
}

// Encode serializes lines in cart order as a JSON array of
// {"productId","quantity"} objects.
func Encode(lines []Line) ([]byte, error) {
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(lines)
}

// Decode parses the session wire format. An empty payload is an empty cart.
func Decode(data []byte) ([]Line, error) {
	if len(data) == 0 {
		return []Line{}, nil
	}
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if lines == nil {
		lines = []Line{}
	}
	for _, line := range lines {
		if line.ProductID == 0 || line.Quantity <= 0 {
			return nil, fmt.Errorf("decode cart: invalid line %+v", line)
		}
	}
	return lines, nil
}

func indexOf(lines []Line, productID uint) int {
	for i, line := range lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}
