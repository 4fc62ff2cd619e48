package handler

import (
	"net/http"

	"medlink-booking/internal/delivery/dto"
	"medlink-booking/internal/usecase"
	"medlink-booking/pkg/response"
	"medlink-booking/pkg/validator"

	"github.com/goccy/go-json"
)

// DoctorHandler serves the public doctor directory and the doctor's own
// workspace (calendar template, appointments, profile).
type DoctorHandler struct {
	doctorUsecase      usecase.DoctorProfileUsecase
	slotUsecase        usecase.SlotCalendarUsecase
	waitTimeUsecase    usecase.WaitTimeUsecase
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
}

func NewDoctorHandler(
	doctorUsecase usecase.DoctorProfileUsecase,
	slotUsecase usecase.SlotCalendarUsecase,
	waitTimeUsecase usecase.WaitTimeUsecase,
	appointmentUsecase usecase.AppointmentUsecase,
	validator *validator.CustomValidator,
) *DoctorHandler {
	return &DoctorHandler{
		doctorUsecase:      doctorUsecase,
		slotUsecase:        slotUsecase,
		waitTimeUsecase:    waitTimeUsecase,
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
	}
}

// ListDoctors handles GET /doctors?specialty=
func (h *DoctorHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctorUsecase.ListDoctors(r.Context(), r.URL.Query().Get("specialty"))
	if err != nil {
		writeError(w, err, "Failed to get doctors")
		return
	}

	response.Success(w, http.StatusOK, "Doctors retrieved successfully", doctors)
}

func (h *DoctorHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := uuidParam(w, r, "id", "doctor")
	if !ok {
		return
	}

	doctor, err := h.doctorUsecase.GetDoctor(r.Context(), doctorID)
	if err != nil {
		writeError(w, err, "Failed to get doctor")
		return
	}

	response.Success(w, http.StatusOK, "Doctor retrieved successfully", doctor)
}

// ListSlots handles GET /doctors/{id}/slots?date=YYYY-MM-DD
func (h *DoctorHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := uuidParam(w, r, "id", "doctor")
	if !ok {
		return
	}

	slots, err := h.slotUsecase.ListSlots(r.Context(), doctorID, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err, "Failed to get slots")
		return
	}

	response.Success(w, http.StatusOK, "Slots retrieved successfully", slots)
}

// GetWaitTime handles GET /doctors/{id}/wait-time?date=
func (h *DoctorHandler) GetWaitTime(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := uuidParam(w, r, "id", "doctor")
	if !ok {
		return
	}

	estimate, err := h.waitTimeUsecase.EstimateWaitTime(r.Context(), doctorID, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err, "Failed to estimate wait time")
		return
	}

	response.Success(w, http.StatusOK, "Wait time estimated successfully", estimate)
}

func (h *DoctorHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := uuidParam(w, r, "id", "doctor")
	if !ok {
		return
	}

	availability, err := h.slotUsecase.GetAvailability(r.Context(), doctorID)
	if err != nil {
		writeError(w, err, "Failed to get availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", availability)
}

func (h *DoctorHandler) GetOwnAvailability(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	availability, err := h.slotUsecase.GetAvailability(r.Context(), actor.UserID)
	if err != nil {
		writeError(w, err, "Failed to get availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", availability)
}

// ReplaceAvailability handles PUT /doctor/availability. The body replaces the
// whole weekly template.
func (h *DoctorHandler) ReplaceAvailability(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req dto.ReplaceAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	availability, err := h.slotUsecase.ReplaceAvailability(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err, "Failed to update availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability updated successfully", availability)
}

// ListAppointments handles GET /doctor/appointments?date=
func (h *DoctorHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	appointments, err := h.appointmentUsecase.ListForDoctor(r.Context(), actor, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *DoctorHandler) UpdateSelfProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req dto.UpdateDoctorProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	doctor, err := h.doctorUsecase.UpdateSelfProfile(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err, "Failed to update profile")
		return
	}

	response.Success(w, http.StatusOK, "Profile updated successfully", doctor)
}
