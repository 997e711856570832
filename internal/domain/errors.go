package domain

import "errors"

// ErrNotFound is returned by catalog lookups for ids that do not exist. The
// model's view of the catalog and cart can lag a turn behind, so consumers
// treat it as a soft condition, not a failure.
var ErrNotFound = errors.New("not found")
