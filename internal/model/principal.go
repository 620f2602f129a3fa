package model

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RolePlanner Role = "PLANNER"
	RoleWorker  Role = "WORKER"
)

// Principal is the authenticated caller extracted from the access token.
type Principal struct {
	UserID   uuid.UUID
	WorkerID *uuid.UUID
	Role     Role
}

func (p Principal) IsAdmin() bool   { return p.Role == RoleAdmin }
func (p Principal) IsPlanner() bool { return p.Role == RolePlanner }
func (p Principal) IsWorker() bool  { return p.Role == RoleWorker }

// CanMutate reports whether the caller may run scheduling mutations.
func (p Principal) CanMutate() bool {
	return p.Role == RoleAdmin || p.Role == RolePlanner
}
