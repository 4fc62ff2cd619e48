package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ChargeRequest struct {
	AppointmentID uuid.UUID
	PatientID     uuid.UUID
	Amount        decimal.Decimal
	Method        string
}

type ChargeResult struct {
	Approved      bool
	Reference     string
	DeclineReason string
}

// PaymentProcessor talks to the payment gateway. A decline is a result, not an error;
// errors mean the gateway could not be reached.
type PaymentProcessor interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, reference string, amount decimal.Decimal) error
}

type simulatedGateway struct {
	log      *logrus.Logger
	declined map[string]struct{}
}

// NewSimulatedGateway approves every charge except those using one of the
// declined methods (matched case-insensitively).
func NewSimulatedGateway(log *logrus.Logger, declinedMethods []string) PaymentProcessor {
	declined := make(map[string]struct{}, len(declinedMethods))
	for _, m := range declinedMethods {
		declined[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}
	return &simulatedGateway{log: log, declined: declined}
}

func (g *simulatedGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	reference := "SIM-" + strings.ToUpper(uuid.NewString()[:8])
	if _, ok := g.declined[strings.ToLower(req.Method)]; ok {
		g.log.Infof("Simulated gateway declined %s for appointment %s", req.Method, req.AppointmentID)
		return &ChargeResult{Approved: false, Reference: reference, DeclineReason: "payment method declined"}, nil
	}

	g.log.Debugf("Simulated gateway charged %s via %s: ref=%s", req.Amount.StringFixed(2), req.Method, reference)
	return &ChargeResult{Approved: true, Reference: reference}, nil
}

func (g *simulatedGateway) Refund(ctx context.Context, reference string, amount decimal.Decimal) error {
	g.log.Infof("Simulated gateway refunded %s: ref=%s", amount.StringFixed(2), reference)
	return nil
}
