package inventory

import (
	"fmt"
	"strings"

	apperrors "github.com/maxkimambo/stockctl/internal/errors"
)

// Classify derives the movement type from its locations.
func (m Movement) Classify() MovementType {
	switch {
	case m.From != "" && m.To != "":
		return MovementTransfer
	case m.From != "":
		return MovementOut
	default:
		return MovementIn
	}
}

// Validate checks a movement before it is sent.
func (m Movement) Validate() error {
	const op = "Create stock movement"

	if strings.TrimSpace(m.SKU) == "" {
		return apperrors.NewValidationFailedError("sku", m.SKU, op)
	}
	if m.Quantity <= 0 {
		return apperrors.NewValidationFailedError("quantity", fmt.Sprint(m.Quantity), op)
	}
	if m.From == "" && m.To == "" {
		return apperrors.NewValidationFailedError("from/to", "", op).
			WithTroubleshooting("Set --to for receipts, --from for issues, or both for transfers")
	}
	if m.From != "" && m.From == m.To {
		return apperrors.NewValidationFailedError("to", m.To, op).
			WithTroubleshooting("A transfer needs two different locations")
	}
	return nil
}
