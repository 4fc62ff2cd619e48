package service

import "errors"

// Expected outcomes of the booking engine. They are returned verbatim and never retried.
var (
	ErrSlotUnavailable     = errors.New("slot is not available")
	ErrAppointmentExpired  = errors.New("appointment hold window has expired")
	ErrInvalidTransition   = errors.New("invalid appointment status transition")
	ErrInvalidAmount       = errors.New("payment amount does not match the appointment fee")
	ErrAlreadyConfirmed    = errors.New("appointment is not awaiting payment")
	ErrNotAuthorized       = errors.New("not authorized to act on this appointment")
	ErrAppointmentNotFound = errors.New("appointment not found")
)
