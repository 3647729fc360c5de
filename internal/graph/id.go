package graph

import "github.com/google/uuid"

// ID is the process-wide-unique handle assigned to every node, socket and
// edge. All cross-references inside a graph go through IDs, never pointers.
type ID string

// NewID returns a fresh random identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// ParseID validates the textual form of an identifier.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return ID(u.String()), nil
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool {
	return id == ""
}

func (id ID) String() string {
	return string(id)
}
