package domain

import (
	"fmt"
	"time"
)

// CheckoutStep is the state of a checkout flow.
type CheckoutStep string

const (
	StepAuth         CheckoutStep = "auth"
	StepPayment      CheckoutStep = "payment"
	StepBankTransfer CheckoutStep = "bank_transfer"
	StepRedirected   CheckoutStep = "redirected"
	StepConfirmed    CheckoutStep = "confirmed"
)

// validSteps defines the allowed checkout transitions.
// payment -> auth happens when the Evanio API rejects an expired token mid-checkout.
var validSteps = map[CheckoutStep][]CheckoutStep{
	StepAuth:         {StepPayment},
	StepPayment:      {StepRedirected, StepBankTransfer, StepAuth},
	StepBankTransfer: {StepConfirmed, StepAuth},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s CheckoutStep) CanTransitionTo(next CheckoutStep) bool {
	for _, allowed := range validSteps[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the flow has handed control elsewhere.
func (s CheckoutStep) IsTerminal() bool {
	return s == StepRedirected || s == StepConfirmed
}

func (s CheckoutStep) String() string {
	return string(s)
}

// CheckoutFlow is one customer's walk through the checkout.
type CheckoutFlow struct {
	ID            string          `json:"id" bson:"_id"`
	DeviceID      string          `json:"-" bson:"device_id"`
	Step          CheckoutStep    `json:"step" bson:"step"`
	Draft         OrderDraft      `json:"draft" bson:"draft"`
	Customer      CustomerDetails `json:"customer" bson:"customer"`
	PaymentMethod PaymentMethod   `json:"payment_method,omitempty" bson:"payment_method,omitempty"`
	OrderID       string          `json:"order_id,omitempty" bson:"order_id,omitempty"`
	RedirectURL   string          `json:"redirect_url,omitempty" bson:"redirect_url,omitempty"`
	StatusURL     string          `json:"status_url,omitempty" bson:"status_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" bson:"updated_at"`
}

// Advance moves the flow to next, refusing transitions the state machine does not allow.
func (f *CheckoutFlow) Advance(next CheckoutStep, at time.Time) error {
	if !f.Step.CanTransitionTo(next) {
		return fmt.Errorf("%w (from %s to %s)", ErrInvalidTransition, f.Step, next)
	}
	f.Step = next
	f.UpdatedAt = at
	return nil
}

// CheckoutEventKind labels an audit event.
type CheckoutEventKind string

const (
	EventStarted    CheckoutEventKind = "started"
	EventTransition CheckoutEventKind = "transition"
	EventRejected   CheckoutEventKind = "rejected"
	EventFailed     CheckoutEventKind = "failed"
)

// CheckoutEvent is an audit record of something that happened to a flow.
type CheckoutEvent struct {
	FlowID  string            `json:"flow_id" bson:"flow_id"`
	Step    CheckoutStep      `json:"step" bson:"step"`
	Kind    CheckoutEventKind `json:"kind" bson:"kind"`
	Message string            `json:"message,omitempty" bson:"message,omitempty"`
	At      time.Time         `json:"at" bson:"at"`
}
