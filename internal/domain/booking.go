package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type BookingKind string

const (
	KindAppointment   BookingKind = "appointment"
	KindLab           BookingKind = "lab"
	KindHomeVisit     BookingKind = "home_visit"
	KindPharmacyOrder BookingKind = "pharmacy_order"
	KindAmbulance     BookingKind = "ambulance"
)

func (k BookingKind) IsValid() bool {
	switch k {
	case KindAppointment, KindLab, KindHomeVisit, KindPharmacyOrder, KindAmbulance:
		return true
	default:
		return false
	}
}

// OnDemand kinds require explicit provider acceptance before fulfillment.
func (k BookingKind) OnDemand() bool {
	return k == KindHomeVisit || k == KindAmbulance
}

// TimeBound kinds carry a scheduled slot and get a reminder notification.
func (k BookingKind) TimeBound() bool {
	switch k {
	case KindAppointment, KindLab, KindHomeVisit:
		return true
	default:
		return false
	}
}

type BookingStatus string

const (
	StatusDraft            BookingStatus = "draft"
	StatusPendingPayment   BookingStatus = "pending_payment"
	StatusPaymentFailed    BookingStatus = "payment_failed"
	StatusConfirmed        BookingStatus = "confirmed"
	StatusProviderAccepted BookingStatus = "provider_accepted"
	StatusInProgress       BookingStatus = "in_progress"
	StatusCompleted        BookingStatus = "completed"
	StatusCancelled        BookingStatus = "cancelled"
)

func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type PaymentStatus string

const (
	PaymentUnpaid     PaymentStatus = "unpaid"
	PaymentPending    PaymentStatus = "pending"
	PaymentPaid       PaymentStatus = "paid"
	PaymentCODPending PaymentStatus = "cod_pending"
)

type BookingEvent string

const (
	EventSubmit           BookingEvent = "submit"
	EventPaymentSucceeded BookingEvent = "payment_succeeded"
	EventPaymentFailed    BookingEvent = "payment_failed"
	EventRetryPayment     BookingEvent = "retry_payment"
	EventProviderAccept   BookingEvent = "provider_accept"
	EventStart            BookingEvent = "start"
	EventComplete         BookingEvent = "complete"
	EventCancel           BookingEvent = "cancel"
)

// FeeLine is one labelled component of a booking's price.
type FeeLine struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

type Booking struct {
	ID            uuid.UUID
	Kind          BookingKind
	PatientID     uuid.UUID
	ProviderID    uuid.UUID
	ScheduledAt   *time.Time
	Address       *string
	Items         []string
	Fees          []FeeLine
	TotalAmount   int64
	Currency      Currency
	PaymentMethod *PaymentMethod
	PaymentStatus PaymentStatus
	Status        BookingStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Transition returns the status a booking in state s moves to when event e
// occurs, or ErrInvalidTransition when the move is not legal for the kind.
func Transition(s BookingStatus, e BookingEvent, kind BookingKind) (BookingStatus, error) {
	if e == EventCancel {
		if s.Terminal() {
			return s, fmt.Errorf("Transition: cancel from %s: %w", s, ErrInvalidTransition)
		}
		return StatusCancelled, nil
	}

	switch s {
	case StatusDraft:
		if e == EventSubmit {
			return StatusPendingPayment, nil
		}
	case StatusPendingPayment:
		switch e {
		case EventPaymentSucceeded:
			return StatusConfirmed, nil
		case EventPaymentFailed:
			return StatusPaymentFailed, nil
		}
	case StatusPaymentFailed:
		if e == EventRetryPayment {
			return StatusPendingPayment, nil
		}
	case StatusConfirmed:
		switch e {
		case EventProviderAccept:
			if kind.OnDemand() {
				return StatusProviderAccepted, nil
			}
		case EventStart:
			if !kind.OnDemand() {
				return StatusInProgress, nil
			}
		case EventComplete:
			return StatusCompleted, nil
		}
	case StatusProviderAccepted:
		switch e {
		case EventStart:
			return StatusInProgress, nil
		case EventComplete:
			return StatusCompleted, nil
		}
	case StatusInProgress:
		if e == EventComplete {
			return StatusCompleted, nil
		}
	}

	return s, fmt.Errorf("Transition: %s on %s (%s): %w", e, s, kind, ErrInvalidTransition)
}

// ValidateSelection enforces kind-specific completeness before a booking
// leaves draft: a slot for scheduled kinds, an address for kinds fulfilled at
// the patient's location, non-empty items for labs and pharmacy orders.
func (b *Booking) ValidateSelection() error {
	if b.Kind.TimeBound() && b.ScheduledAt == nil {
		return fmt.Errorf("ValidateSelection: %s requires a time slot: %w", b.Kind, ErrInvalidSelection)
	}

	switch b.Kind {
	case KindHomeVisit, KindAmbulance, KindPharmacyOrder:
		if b.Address == nil || *b.Address == "" {
			return fmt.Errorf("ValidateSelection: %s requires an address: %w", b.Kind, ErrInvalidSelection)
		}
	}

	switch b.Kind {
	case KindLab, KindPharmacyOrder:
		if len(b.Items) == 0 {
			return fmt.Errorf("ValidateSelection: %s requires at least one item: %w", b.Kind, ErrInvalidSelection)
		}
	}

	return nil
}
