// Package catalog holds the storefront's built-in product list.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/egannguyen/tica-shop/internal/entity"
)

//go:embed products.json
var productsJSON []byte

// Products decodes the embedded catalog.
func Products() ([]entity.Product, error) {
	var products []entity.Product
	if err := json.Unmarshal(productsJSON, &products); err != nil {
		return nil, fmt.Errorf("failed to decode embedded catalog: %w", err)
	}
	return products, nil
}
