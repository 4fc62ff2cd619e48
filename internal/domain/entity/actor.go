package entity

import "github.com/google/uuid"

// Actor is the authenticated caller of an operation. It is built once per
// request from the session and passed explicitly down to the usecases.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// SystemActor is used by the engine for its own transitions (payment result, hold expiry).
var SystemActor = Actor{Role: RoleSystem}

func (a Actor) IsPatient() bool { return a.Role == RolePatient }
func (a Actor) IsDoctor() bool  { return a.Role == RoleDoctor }
func (a Actor) IsAdmin() bool   { return a.Role == RoleAdmin }
func (a Actor) IsSystem() bool  { return a.Role == RoleSystem }

// AuditUserID returns the id to record in audit logs, nil for the system actor.
func (a Actor) AuditUserID() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}
