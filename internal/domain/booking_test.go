package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    BookingStatus
		event   BookingEvent
		kind    BookingKind
		want    BookingStatus
		wantErr error
	}{
		{name: "submit from draft", from: StatusDraft, event: EventSubmit, kind: KindAppointment, want: StatusPendingPayment},
		{name: "payment success confirms", from: StatusPendingPayment, event: EventPaymentSucceeded, kind: KindAppointment, want: StatusConfirmed},
		{name: "payment failure", from: StatusPendingPayment, event: EventPaymentFailed, kind: KindLab, want: StatusPaymentFailed},
		{name: "retry returns to pending", from: StatusPaymentFailed, event: EventRetryPayment, kind: KindLab, want: StatusPendingPayment},
		{name: "on-demand kind requires acceptance", from: StatusConfirmed, event: EventProviderAccept, kind: KindHomeVisit, want: StatusProviderAccepted},
		{name: "scheduled kind starts without acceptance", from: StatusConfirmed, event: EventStart, kind: KindAppointment, want: StatusInProgress},
		{name: "scheduled kind cannot be accepted", from: StatusConfirmed, event: EventProviderAccept, kind: KindAppointment, wantErr: ErrInvalidTransition},
		{name: "on-demand kind cannot skip acceptance", from: StatusConfirmed, event: EventStart, kind: KindAmbulance, wantErr: ErrInvalidTransition},
		{name: "accepted starts", from: StatusProviderAccepted, event: EventStart, kind: KindAmbulance, want: StatusInProgress},
		{name: "in progress completes", from: StatusInProgress, event: EventComplete, kind: KindHomeVisit, want: StatusCompleted},
		{name: "confirmed completes directly", from: StatusConfirmed, event: EventComplete, kind: KindPharmacyOrder, want: StatusCompleted},
		{name: "cancel from pending payment", from: StatusPendingPayment, event: EventCancel, kind: KindAppointment, want: StatusCancelled},
		{name: "cancel from confirmed", from: StatusConfirmed, event: EventCancel, kind: KindHomeVisit, want: StatusCancelled},
		{name: "cancel from in progress", from: StatusInProgress, event: EventCancel, kind: KindAmbulance, want: StatusCancelled},
		{name: "cannot cancel completed", from: StatusCompleted, event: EventCancel, kind: KindAppointment, wantErr: ErrInvalidTransition},
		{name: "cannot cancel cancelled", from: StatusCancelled, event: EventCancel, kind: KindAppointment, wantErr: ErrInvalidTransition},
		{name: "cannot pay a draft", from: StatusDraft, event: EventPaymentSucceeded, kind: KindAppointment, wantErr: ErrInvalidTransition},
		{name: "cannot complete a terminal booking", from: StatusCompleted, event: EventComplete, kind: KindLab, wantErr: ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.from, tt.event, tt.kind)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestValidateSelection(t *testing.T) {
	slot := time.Now().Add(24 * time.Hour)
	addr := "12 Nile Corniche, Cairo"

	tests := []struct {
		name    string
		booking Booking
		wantErr error
	}{
		{
			name:    "appointment with slot",
			booking: Booking{Kind: KindAppointment, ScheduledAt: &slot},
		},
		{
			name:    "appointment without slot",
			booking: Booking{Kind: KindAppointment},
			wantErr: ErrInvalidSelection,
		},
		{
			name:    "lab needs items",
			booking: Booking{Kind: KindLab, ScheduledAt: &slot},
			wantErr: ErrInvalidSelection,
		},
		{
			name:    "lab with items",
			booking: Booking{Kind: KindLab, ScheduledAt: &slot, Items: []string{"cbc"}},
		},
		{
			name:    "home visit needs address",
			booking: Booking{Kind: KindHomeVisit, ScheduledAt: &slot},
			wantErr: ErrInvalidSelection,
		},
		{
			name:    "home visit with slot and address",
			booking: Booking{Kind: KindHomeVisit, ScheduledAt: &slot, Address: &addr},
		},
		{
			name:    "ambulance needs no slot",
			booking: Booking{Kind: KindAmbulance, Address: &addr},
		},
		{
			name:    "pharmacy order needs items and address",
			booking: Booking{Kind: KindPharmacyOrder, Address: &addr},
			wantErr: ErrInvalidSelection,
		},
		{
			name:    "pharmacy order complete",
			booking: Booking{Kind: KindPharmacyOrder, Address: &addr, Items: []string{"paracetamol 500mg"}},
		},
		{
			name:    "empty address rejected",
			booking: Booking{Kind: KindAmbulance, Address: new(string)},
			wantErr: ErrInvalidSelection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.booking.ValidateSelection()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
