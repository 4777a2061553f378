package topology

import "errors"

var (
	ErrDuplicate   = errors.New("already exists")
	ErrNotFound    = errors.New("not found")
	ErrInUse       = errors.New("still referenced by a link")
	ErrSelfLink    = errors.New("can't link a node to itself")
	ErrInvalidName = errors.New("invalid name")
)
