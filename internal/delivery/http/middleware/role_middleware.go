package middleware

import (
	"net/http"
	"slices"

	"medlink-booking/internal/domain/entity"
	"medlink-booking/pkg/response"
)

// RequireRole admits callers whose session actor has one of roles. It must run
// after AuthMiddleware.Authenticate.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActorFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}

			if !slices.Contains(roles, actor.Role) {
				response.Forbidden(w, "You don't have permission to access this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(entity.RoleAdmin)(next)
}

func RequireDoctor(next http.Handler) http.Handler {
	return RequireRole(entity.RoleDoctor)(next)
}

func RequirePatient(next http.Handler) http.Handler {
	return RequireRole(entity.RolePatient)(next)
}

// RequirePatientOrDoctor guards routes shared by both parties of an appointment.
// Ownership of the appointment itself is checked by the usecase.
func RequirePatientOrDoctor(next http.Handler) http.Handler {
	return RequireRole(entity.RolePatient, entity.RoleDoctor)(next)
}
