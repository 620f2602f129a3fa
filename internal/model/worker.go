package model

import "github.com/google/uuid"

// Worker is an assignable field member. Managed elsewhere; this service only reads it.
type Worker struct {
	ID     uuid.UUID
	Name   string
	Phone  *string
	Active bool
}
