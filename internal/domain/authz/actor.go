package authz

import "github.com/google/uuid"

// Actor is the authenticated caller of a command, resolved from the
// bearer token by the HTTP layer.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// NewActor creates a new actor
func NewActor(id uuid.UUID, role Role) Actor {
	return Actor{ID: id, Role: role}
}

// IsValid checks that the actor is usable for authorization decisions
func (a Actor) IsValid() bool {
	return a.ID != uuid.Nil && a.Role.IsValid()
}
