package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehaty/sehaty-backend/internal/domain"
)

type stubClient struct {
	resp *ChargeResponse
	err  error
	got  *ChargeRequest
}

func (s *stubClient) Charge(_ context.Context, req ChargeRequest) (*ChargeResponse, error) {
	s.got = &req
	return s.resp, s.err
}

func TestAuthorize_Wallet(t *testing.T) {
	stub := &stubClient{}
	adapter := NewAdapter(stub)
	entryID := uuid.New()

	auth, err := adapter.Authorize(context.Background(), AuthorizeRequest{
		Method:   domain.MethodWallet,
		Amount:   6000,
		Currency: domain.CurrencyEGP,
		EntryID:  entryID,
	})

	require.NoError(t, err)
	assert.Equal(t, SettleLedger, auth.Settlement)
	assert.Equal(t, "wal_"+entryID.String(), auth.TransactionID)
	assert.Nil(t, stub.got, "wallet must not call the external gateway")
}

func TestAuthorize_CashOnDelivery(t *testing.T) {
	stub := &stubClient{}
	adapter := NewAdapter(stub)

	auth, err := adapter.Authorize(context.Background(), AuthorizeRequest{
		Method:   domain.MethodCashOnDelivery,
		Amount:   8500,
		Currency: domain.CurrencyEGP,
		EntryID:  uuid.New(),
	})

	require.NoError(t, err)
	assert.Equal(t, SettleOnDelivery, auth.Settlement)
	assert.True(t, strings.HasPrefix(auth.TransactionID, "cod_"))
	assert.Nil(t, stub.got, "COD must not call the external gateway")
}

func TestAuthorize_External(t *testing.T) {
	tests := []struct {
		name    string
		method  domain.PaymentMethod
		payer   string
		resp    *ChargeResponse
		err     error
		wantErr error
	}{
		{
			name:   "mobile pay success",
			method: domain.MethodMobilePay,
			payer:  "+201001234567",
			resp:   &ChargeResponse{Outcome: OutcomeSuccess, TransactionID: "txn_1"},
		},
		{
			name:   "bank epay success",
			method: domain.MethodBankEPay,
			payer:  "EG380019000500000000263180002",
			resp:   &ChargeResponse{Outcome: OutcomeSuccess, TransactionID: "txn_2"},
		},
		{
			name:    "missing payer reference",
			method:  domain.MethodMobilePay,
			payer:   "",
			wantErr: domain.ErrMissingPayerReference,
		},
		{
			name:    "declined",
			method:  domain.MethodMobilePay,
			payer:   "+201001234567",
			resp:    &ChargeResponse{Outcome: OutcomeDeclined, FailureReason: "card blocked"},
			wantErr: domain.ErrGatewayDeclined,
		},
		{
			name:    "timeout propagates",
			method:  domain.MethodBankEPay,
			payer:   "EG38001900",
			err:     domain.ErrGatewayTimeout,
			wantErr: domain.ErrGatewayTimeout,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubClient{resp: tc.resp, err: tc.err}
			adapter := NewAdapter(stub)

			auth, err := adapter.Authorize(context.Background(), AuthorizeRequest{
				Method:         tc.method,
				Amount:         4500,
				Currency:       domain.CurrencyEGP,
				PayerReference: tc.payer,
				EntryID:        uuid.New(),
			})

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, SettleExternal, auth.Settlement)
			assert.Equal(t, tc.resp.TransactionID, auth.TransactionID)
			require.NotNil(t, stub.got)
			assert.Equal(t, int64(4500), stub.got.Amount)
		})
	}
}

func TestAuthorize_InvalidAmount(t *testing.T) {
	adapter := NewAdapter(&stubClient{})

	_, err := adapter.Authorize(context.Background(), AuthorizeRequest{
		Method:   domain.MethodWallet,
		Amount:   0,
		Currency: domain.CurrencyEGP,
		EntryID:  uuid.New(),
	})

	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestHTTPClient_Charge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/authorize", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"outcome":"success","transaction_id":"txn_http"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second)
	resp, err := client.Charge(context.Background(), ChargeRequest{
		Reference: uuid.NewString(),
		Method:    string(domain.MethodMobilePay),
		Amount:    1000,
		Currency:  domain.CurrencyEGP,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, resp.Outcome)
	assert.Equal(t, "txn_http", resp.TransactionID)
}

func TestHTTPClient_Charge_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 20*time.Millisecond)
	_, err := client.Charge(context.Background(), ChargeRequest{
		Reference: uuid.NewString(),
		Method:    string(domain.MethodBankEPay),
		Amount:    1000,
		Currency:  domain.CurrencyEGP,
	})

	require.ErrorIs(t, err, domain.ErrGatewayTimeout)
}
