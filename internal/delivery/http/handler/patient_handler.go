package handler

import (
	"net/http"

	"medlink-booking/internal/delivery/dto"
	"medlink-booking/internal/usecase"
	"medlink-booking/pkg/response"
	"medlink-booking/pkg/validator"

	"github.com/goccy/go-json"
)

type PatientHandler struct {
	patientUsecase     usecase.PatientProfileUsecase
	appointmentUsecase usecase.AppointmentUsecase
	paymentUsecase     usecase.PaymentUsecase
	validator          *validator.CustomValidator
}

func NewPatientHandler(
	patientUsecase usecase.PatientProfileUsecase,
	appointmentUsecase usecase.AppointmentUsecase,
	paymentUsecase usecase.PaymentUsecase,
	validator *validator.CustomValidator,
) *PatientHandler {
	return &PatientHandler{
		patientUsecase:     patientUsecase,
		appointmentUsecase: appointmentUsecase,
		paymentUsecase:     paymentUsecase,
		validator:          validator,
	}
}

func (h *PatientHandler) GetSelfProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	patient, err := h.patientUsecase.GetSelfProfile(r.Context(), actor)
	if err != nil {
		writeError(w, err, "Failed to get profile")
		return
	}

	response.Success(w, http.StatusOK, "Profile retrieved successfully", patient)
}

func (h *PatientHandler) UpdateSelfProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req dto.PatientUpdateSelfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	patient, err := h.patientUsecase.UpdateSelfProfile(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err, "Failed to update profile")
		return
	}

	response.Success(w, http.StatusOK, "Profile updated successfully", patient)
}

func (h *PatientHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	appointments, err := h.appointmentUsecase.ListForPatient(r.Context(), actor)
	if err != nil {
		writeError(w, err, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *PatientHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	payments, err := h.paymentUsecase.ListPayments(r.Context(), actor)
	if err != nil {
		writeError(w, err, "Failed to get payments")
		return
	}

	response.Success(w, http.StatusOK, "Payments retrieved successfully", payments)
}

// GetReceipt handles GET /patient/payments/{id}/receipt and streams a PDF.
func (h *PatientHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	paymentID, ok := uuidParam(w, r, "id", "payment")
	if !ok {
		return
	}

	pdf, err := h.paymentUsecase.GetReceipt(r.Context(), actor, paymentID)
	if err != nil {
		writeError(w, err, "Failed to render receipt")
		return
	}

	response.File(w, "application/pdf", "receipt-"+paymentID.String()+".pdf", pdf)
}
