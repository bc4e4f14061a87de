package inventory

import "time"

// MovementType classifies a stock movement.
type MovementType string

const (
	MovementIn       MovementType = "in"
	MovementOut      MovementType = "out"
	MovementTransfer MovementType = "transfer"
)

// Product is a catalog entry with its current stock level.
type Product struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Quantity    int    `json:"quantity"`
	MinQuantity int    `json:"min_quantity"`
	Location    string `json:"location,omitempty"`
}

// BelowMinimum reports whether the product needs restocking.
func (p Product) BelowMinimum() bool {
	return p.MinQuantity > 0 && p.Quantity < p.MinQuantity
}

// Fields exposes the filterable attributes keyed by their JSON names.
func (p Product) Fields() map[string]string {
	return map[string]string{
		"sku":      p.SKU,
		"name":     p.Name,
		"category": p.Category,
		"unit":     p.Unit,
		"location": p.Location,
	}
}

// Movement records stock entering, leaving, or moving between locations.
// Yaml tags let batch files reuse the type directly.
type Movement struct {
	ID       string       `json:"id,omitempty" yaml:"-"`
	SKU      string       `json:"sku" yaml:"sku"`
	Quantity int          `json:"quantity" yaml:"quantity"`
	From     string       `json:"from,omitempty" yaml:"from,omitempty"`
	To       string       `json:"to,omitempty" yaml:"to,omitempty"`
	Note     string       `json:"note,omitempty" yaml:"note,omitempty"`
	Type     MovementType `json:"type" yaml:"-"`
}

// PurchaseRequestStatus tracks a purchase request through approval.
type PurchaseRequestStatus string

const (
	PurchasePending  PurchaseRequestStatus = "pending"
	PurchaseApproved PurchaseRequestStatus = "approved"
	PurchaseRejected PurchaseRequestStatus = "rejected"
	PurchaseReceived PurchaseRequestStatus = "received"
)

// PurchaseRequest asks purchasing to restock a product.
type PurchaseRequest struct {
	ID        string                `json:"id,omitempty"`
	SKU       string                `json:"sku"`
	Quantity  int                   `json:"quantity"`
	Reason    string                `json:"reason,omitempty"`
	Status    PurchaseRequestStatus `json:"status,omitempty"`
	CreatedAt time.Time             `json:"created_at,omitempty"`
}

// ListOptions filters product listings.
type ListOptions struct {
	Search string
	// LowStockOnly keeps products under their minimum quantity.
	LowStockOnly bool
}
