package graph

import "errors"

// Structural errors. All of them are rejected before any shared state is
// mutated: an operation either applies fully or not at all.
var (
	ErrNodeNotFound      = errors.New("graph: node not found")
	ErrEdgeNotFound      = errors.New("graph: edge not found")
	ErrSocketNotFound    = errors.New("graph: socket not found")
	ErrDuplicateID       = errors.New("graph: duplicate identifier")
	ErrDuplicateVariable = errors.New("graph: variable already defined")
	ErrVariableNotFound  = errors.New("graph: variable not found")
	ErrSameNode          = errors.New("graph: edge endpoints belong to the same node")
	ErrBadDirection      = errors.New("graph: edge must run from an output socket to an input socket")
	ErrInputOccupied     = errors.New("graph: input socket already has an edge")
	ErrKindMismatch      = errors.New("graph: socket data kinds are not compatible")
)
