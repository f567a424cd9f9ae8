package services

import "errors"

var (
	// ErrEmptyCart aborts a checkout that has nothing to invoice.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrProductUnavailable reports a referenced product that no longer
	// exists, e.g. deleted after being added to a cart. The dependent
	// operation must abort rather than continue with a partial result.
	ErrProductUnavailable = errors.New("product unavailable")

	// ErrShippingUnavailable rejects a shipping address outside the
	// configured delivery area.
	ErrShippingUnavailable = errors.New("shipping unavailable for this address")
)
