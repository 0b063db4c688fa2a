// Package inventory holds the stock ledger: the pure rules for turning order
// quantity changes into stock reservations and releases.
package inventory

import "fmt"

// InsufficientStockError reports a reservation that exceeds what the product
// has available at validation time.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d available", e.Available)
}

// ComputeDelta returns the signed change in reserved quantity. Callers pass
// 0 for oldQuantity when no prior reservation exists. A positive delta must
// be taken from availability; a negative one is released back.
func ComputeDelta(oldQuantity, newQuantity int) int {
	return newQuantity - oldQuantity
}

// ValidateReservation checks a delta against current availability. It must
// run before any persisted mutation; a failure means no write may happen.
func ValidateReservation(currentStock, delta int) error {
	if delta > 0 && currentStock < delta {
		return &InsufficientStockError{Available: currentStock}
	}
	return nil
}
