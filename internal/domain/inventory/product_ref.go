package inventory

import (
	"strings"

	"github.com/google/uuid"
	"github.com/stockbill/backend/internal/domain/shared"
)

// ProductRef is a tagged reference used by goods-receipt items: either an
// existing product by ID, or a brand-new product by name that the receipt
// creates on the fly. Exactly one side is set.
type ProductRef struct {
	id      uuid.UUID
	newName string
}

// ExistingProduct references a product that already exists
func ExistingProduct(id uuid.UUID) ProductRef {
	return ProductRef{id: id}
}

// NewProductNamed references a product to be created with the given name
func NewProductNamed(name string) ProductRef {
	return ProductRef{newName: strings.TrimSpace(name)}
}

// Existing returns the product ID if this references an existing product
func (r ProductRef) Existing() (uuid.UUID, bool) {
	return r.id, r.id != uuid.Nil
}

// NewName returns the pending product name if this creates a new product
func (r ProductRef) NewName() (string, bool) {
	return r.newName, r.id == uuid.Nil && r.newName != ""
}

// Validate ensures exactly one variant is populated
func (r ProductRef) Validate() error {
	if r.id == uuid.Nil && r.newName == "" {
		return shared.NewDomainError("INVALID_PRODUCT_REF", "Either a product ID or a new product name is required")
	}
	return nil
}
