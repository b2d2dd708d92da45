package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehaty/sehaty-backend/internal/auth"
	"github.com/sehaty/sehaty-backend/internal/domain"
	"github.com/sehaty/sehaty-backend/internal/service/booking"
)

type stubBookingService struct {
	booking *domain.Booking
	err     error

	gotInput  *booking.RequestInput
	gotMethod domain.PaymentMethod
	gotEvent  domain.BookingEvent
}

func (s *stubBookingService) Request(_ context.Context, in booking.RequestInput) (*domain.Booking, error) {
	s.gotInput = &in
	return s.booking, s.err
}

func (s *stubBookingService) Pay(_ context.Context, _, _ uuid.UUID, method domain.PaymentMethod, _ string) (*domain.Booking, error) {
	s.gotMethod = method
	return s.booking, s.err
}

func (s *stubBookingService) Advance(_ context.Context, _, _ uuid.UUID, event domain.BookingEvent) (*domain.Booking, error) {
	s.gotEvent = event
	return s.booking, s.err
}

func (s *stubBookingService) Cancel(_ context.Context, _, _ uuid.UUID) (*domain.Booking, error) {
	return s.booking, s.err
}

func (s *stubBookingService) Get(_ context.Context, _ uuid.UUID) (*domain.Booking, error) {
	return s.booking, s.err
}

func (s *stubBookingService) ListForPatient(_ context.Context, _ uuid.UUID, _, _ int) ([]domain.Booking, error) {
	if s.booking == nil {
		return nil, s.err
	}
	return []domain.Booking{*s.booking}, s.err
}

func (s *stubBookingService) History(_ context.Context, _ uuid.UUID) ([]domain.BookingAuditEvent, error) {
	return nil, s.err
}

func testBooking(patientID uuid.UUID) *domain.Booking {
	slot := time.Now().Add(24 * time.Hour).UTC()
	return &domain.Booking{
		ID:            uuid.New(),
		Kind:          domain.KindAppointment,
		PatientID:     patientID,
		ProviderID:    uuid.New(),
		ScheduledAt:   &slot,
		Fees:          []domain.FeeLine{{Label: "consultation", Amount: 1000}},
		TotalAmount:   1050,
		Currency:      domain.CurrencyEGP,
		PaymentStatus: domain.PaymentUnpaid,
		Status:        domain.StatusPendingPayment,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}

func authedRequest(method, target, body string, identity auth.Identity) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(auth.ContextWithIdentity(req.Context(), identity))
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestBookingCreate(t *testing.T) {
	patientID := uuid.New()
	identity := auth.Identity{ID: patientID, Role: domain.RolePatient}

	validBody := fmt.Sprintf(
		`{"kind":"appointment","provider_id":%q,"scheduled_at":"2026-09-10T10:00:00Z","fees":[{"label":"consultation","amount":1000}],"currency":"EGP"}`,
		uuid.NewString(),
	)

	tests := []struct {
		name       string
		body       string
		svc        *stubBookingService
		noIdentity bool
		wantStatus int
		wantCode   string
	}{
		{
			name:       "created",
			body:       validBody,
			svc:        &stubBookingService{booking: testBooking(patientID)},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing identity",
			body:       validBody,
			svc:        &stubBookingService{},
			noIdentity: true,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "MISSING_TOKEN",
		},
		{
			name:       "malformed body",
			body:       `{`,
			svc:        &stubBookingService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "unknown kind",
			body:       `{"kind":"dental","provider_id":"` + uuid.NewString() + `","fees":[{"label":"x","amount":100}],"currency":"EGP"}`,
			svc:        &stubBookingService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "missing fees",
			body:       `{"kind":"appointment","provider_id":"` + uuid.NewString() + `","currency":"EGP"}`,
			svc:        &stubBookingService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "incomplete selection from service",
			body:       validBody,
			svc:        &stubBookingService{err: domain.ErrInvalidSelection},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_SELECTION",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewBookingHandler(tc.svc)

			var req *http.Request
			if tc.noIdentity {
				req = httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(tc.body))
			} else {
				req = authedRequest(http.MethodPost, "/api/v1/bookings", tc.body, identity)
			}

			rec := httptest.NewRecorder()
			h.Create(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			if tc.wantCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
			} else {
				assert.True(t, resp.Success)
				assert.NotEmpty(t, rec.Header().Get("Location"))
			}
		})
	}
}

func TestBookingPay(t *testing.T) {
	patientID := uuid.New()
	identity := auth.Identity{ID: patientID, Role: domain.RolePatient}
	bookingID := uuid.New()

	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "paid",
			body:       `{"method":"wallet"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "unsupported method",
			body:       `{"method":"cheque"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "insufficient funds",
			body:       `{"method":"wallet"}`,
			svcErr:     domain.ErrInsufficientFunds,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INSUFFICIENT_FUNDS",
		},
		{
			name:       "already paid",
			body:       `{"method":"wallet"}`,
			svcErr:     domain.ErrInvalidTransition,
			wantStatus: http.StatusConflict,
			wantCode:   "INVALID_TRANSITION",
		},
		{
			name:       "gateway declined",
			body:       `{"method":"mobile_pay","payer_reference":"0100"}`,
			svcErr:     domain.ErrGatewayDeclined,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "GATEWAY_DECLINED",
		},
		{
			name:       "gateway timeout",
			body:       `{"method":"bank_epay","payer_reference":"EG38"}`,
			svcErr:     domain.ErrGatewayTimeout,
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "GATEWAY_TIMEOUT",
		},
		{
			name:       "not the patient",
			body:       `{"method":"wallet"}`,
			svcErr:     domain.ErrNotBookingActor,
			wantStatus: http.StatusForbidden,
			wantCode:   "NOT_BOOKING_ACTOR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubBookingService{booking: testBooking(patientID), err: tc.svcErr}
			h := NewBookingHandler(svc)

			req := authedRequest(http.MethodPost, "/api/v1/bookings/"+bookingID.String()+"/pay", tc.body, identity)
			req.SetPathValue("id", bookingID.String())

			rec := httptest.NewRecorder()
			h.Pay(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			if tc.wantCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
			} else {
				assert.True(t, resp.Success)
			}
		})
	}
}

func TestBookingGet_HidesOtherPartiesBookings(t *testing.T) {
	svc := &stubBookingService{booking: testBooking(uuid.New())}
	h := NewBookingHandler(svc)

	// Authenticated, but neither patient nor provider of this booking.
	outsider := auth.Identity{ID: uuid.New(), Role: domain.RolePatient}
	req := authedRequest(http.MethodGet, "/api/v1/bookings/"+svc.booking.ID.String(), "", outsider)
	req.SetPathValue("id", svc.booking.ID.String())

	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
