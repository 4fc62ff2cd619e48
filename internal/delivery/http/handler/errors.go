package handler

import (
	"errors"
	"net/http"

	"medlink-booking/internal/delivery/http/middleware"
	"medlink-booking/internal/domain/entity"
	"medlink-booking/internal/service"
	"medlink-booking/internal/usecase"
	"medlink-booking/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type errorMapping struct {
	err    error
	status int
}

// domainErrors maps usecase and engine sentinels to HTTP statuses. The
// sentinel's own message is returned to the client.
var domainErrors = []errorMapping{
	{service.ErrSlotUnavailable, http.StatusBadRequest},
	{service.ErrInvalidTransition, http.StatusBadRequest},
	{service.ErrInvalidAmount, http.StatusBadRequest},
	{usecase.ErrInvalidDate, http.StatusBadRequest},
	{usecase.ErrInvalidSlot, http.StatusBadRequest},
	{usecase.ErrInvalidAvailability, http.StatusBadRequest},
	{usecase.ErrAvailabilityOverlap, http.StatusBadRequest},
	{usecase.ErrUnknownSpecialty, http.StatusBadRequest},
	{usecase.ErrInvalidOldPassword, http.StatusBadRequest},
	{usecase.ErrRoleNotFound, http.StatusBadRequest},
	{service.ErrAlreadyConfirmed, http.StatusConflict},
	{usecase.ErrEmailAlreadyExists, http.StatusConflict},
	{service.ErrAppointmentExpired, http.StatusGone},
	{service.ErrNotAuthorized, http.StatusForbidden},
	{usecase.ErrAccountDisabled, http.StatusForbidden},
	{usecase.ErrInvalidCredentials, http.StatusUnauthorized},
	{usecase.ErrInvalidToken, http.StatusUnauthorized},
	{usecase.ErrTokenRevoked, http.StatusUnauthorized},
	{service.ErrAppointmentNotFound, http.StatusNotFound},
	{usecase.ErrDoctorNotFound, http.StatusNotFound},
	{usecase.ErrPatientNotFound, http.StatusNotFound},
	{usecase.ErrPaymentNotFound, http.StatusNotFound},
	{usecase.ErrAuditLogNotFound, http.StatusNotFound},
	{usecase.ErrUserNotFound, http.StatusNotFound},
}

// writeError answers with the status of the first matching sentinel, or a 500
// carrying fallback when err is unexpected.
func writeError(w http.ResponseWriter, err error, fallback string) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			response.Error(w, m.status, m.err.Error(), nil)
			return
		}
	}
	response.InternalServerError(w, fallback)
}

func actorFrom(w http.ResponseWriter, r *http.Request) (entity.Actor, bool) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
	}
	return actor, ok
}

func uuidParam(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+label+" ID", nil)
		return uuid.Nil, false
	}
	return id, true
}
