package silo

import "errors"

// ErrNotFound is returned by RPop, HGet, and Get when the requested key,
// field, or list element does not exist.
var ErrNotFound = errors.New("silo: not found")
