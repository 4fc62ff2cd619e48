package handler

import (
	"errors"
	"net/http"

	"medlink-booking/internal/delivery/dto"
	"medlink-booking/internal/usecase"
	"medlink-booking/pkg/response"
	"medlink-booking/pkg/validator"

	"github.com/goccy/go-json"
)

type AppointmentHandler struct {
	bookingUsecase     usecase.BookingUsecase
	paymentUsecase     usecase.PaymentUsecase
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(
	bookingUsecase usecase.BookingUsecase,
	paymentUsecase usecase.PaymentUsecase,
	appointmentUsecase usecase.AppointmentUsecase,
	validator *validator.CustomValidator,
) *AppointmentHandler {
	return &AppointmentHandler{
		bookingUsecase:     bookingUsecase,
		paymentUsecase:     paymentUsecase,
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
	}
}

// ClaimSlot handles POST /appointments
// @Summary Hold a slot pending payment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ClaimSlotRequest true "Claim Slot Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /appointments [post]
func (h *AppointmentHandler) ClaimSlot(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req dto.ClaimSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.bookingUsecase.ClaimSlot(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err, "Failed to claim slot")
		return
	}

	response.Success(w, http.StatusCreated, "Slot held, complete payment before the hold expires", appointment)
}

// ConfirmPayment handles POST /appointments/{id}/pay
// @Summary Pay for a held appointment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ConfirmPaymentRequest true "Payment Request"
// @Success 200 {object} response.Response
// @Failure 402 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 410 {object} response.Response
// @Router /appointments/{id}/pay [post]
func (h *AppointmentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	appointmentID, ok := uuidParam(w, r, "id", "appointment")
	if !ok {
		return
	}

	var req dto.ConfirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.paymentUsecase.ConfirmPayment(r.Context(), actor, appointmentID, &req)
	if errors.Is(err, usecase.ErrPaymentDeclined) {
		response.JSON(w, http.StatusPaymentRequired, response.Response{
			Success: false,
			Message: "Payment declined, the slot has been released",
			Data:    result,
		})
		return
	}
	if err != nil {
		writeError(w, err, "Failed to confirm payment")
		return
	}

	response.Success(w, http.StatusOK, "Payment successful, appointment confirmed", result)
}

// UpdateStatus handles PATCH /appointments/{id}/status for cancellations and
// completed visits.
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	appointmentID, ok := uuidParam(w, r, "id", "appointment")
	if !ok {
		return
	}

	var req dto.UpdateAppointmentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.UpdateAppointmentStatus(r.Context(), actor, appointmentID, &req)
	if err != nil {
		writeError(w, err, "Failed to update appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment updated successfully", appointment)
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	appointmentID, ok := uuidParam(w, r, "id", "appointment")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.GetAppointment(r.Context(), actor, appointmentID)
	if err != nil {
		writeError(w, err, "Failed to get appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", appointment)
}
