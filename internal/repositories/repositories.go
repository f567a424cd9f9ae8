package repositories

import "errors"

// ErrNotFound reports that a referenced record does not exist. Callers use
// errors.Is to distinguish a referential gap (e.g. a cart entry whose product
// was deleted) from a storage failure.
var ErrNotFound = errors.New("record not found")
