package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/domain"
	"github.com/sehaty/sehaty-backend/internal/logging"
)

// Settlement tells the caller how the authorized money actually moves.
type Settlement string

const (
	// SettleLedger: funds move by committing the pending wallet debit.
	SettleLedger Settlement = "ledger"
	// SettleExternal: the gateway captured the funds; the entry is recorded
	// as completed without touching the wallet balance.
	SettleExternal Settlement = "external"
	// SettleOnDelivery: cash is collected at fulfillment; the entry stays
	// pending until reconciled outside the system.
	SettleOnDelivery Settlement = "on_delivery"
)

type AuthorizeRequest struct {
	Method         domain.PaymentMethod
	Amount         int64
	Currency       domain.Currency
	PayerReference string
	EntryID        uuid.UUID
}

type Authorization struct {
	TransactionID string
	Settlement    Settlement
}

// Client is the wire boundary to the payment service provider. The reference
// implementation talks to cmd/mock-gateway; a production adapter swaps in a
// real PSP client behind the same interface.
type Client interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error)
}

type ChargeRequest struct {
	Reference      string          `json:"reference"`
	Method         string          `json:"method"`
	Amount         int64           `json:"amount"`
	Currency       domain.Currency `json:"currency"`
	PayerReference string          `json:"payer_reference"`
}

type ChargeResponse struct {
	Outcome       string `json:"outcome"`
	TransactionID string `json:"transaction_id"`
	FailureReason string `json:"failure_reason,omitempty"`
}

const (
	OutcomeSuccess  = "success"
	OutcomeDeclined = "declined"
)

// Adapter normalizes every payment method to one authorize contract. It never
// mutates booking or ledger state; settlement is the orchestrator's job.
type Adapter struct {
	client Client
}

func NewAdapter(client Client) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) Authorize(ctx context.Context, req AuthorizeRequest) (*Authorization, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("Authorize: %w", domain.ErrInvalidAmount)
	}

	switch req.Method {
	case domain.MethodWallet:
		// No external call: the wallet debit commit is the authorization.
		return &Authorization{
			TransactionID: "wal_" + req.EntryID.String(),
			Settlement:    SettleLedger,
		}, nil

	case domain.MethodCashOnDelivery:
		return &Authorization{
			TransactionID: "cod_" + uuid.NewString(),
			Settlement:    SettleOnDelivery,
		}, nil

	case domain.MethodMobilePay, domain.MethodBankEPay:
		return a.authorizeExternal(ctx, req)

	default:
		return nil, fmt.Errorf("Authorize: %q: %w", req.Method, domain.ErrInvalidMethod)
	}
}

func (a *Adapter) authorizeExternal(ctx context.Context, req AuthorizeRequest) (*Authorization, error) {
	if req.PayerReference == "" {
		return nil, fmt.Errorf("authorizeExternal: %s: %w", req.Method, domain.ErrMissingPayerReference)
	}

	log := logging.FromContext(ctx)

	resp, err := a.client.Charge(ctx, ChargeRequest{
		Reference:      req.EntryID.String(),
		Method:         string(req.Method),
		Amount:         req.Amount,
		Currency:       req.Currency,
		PayerReference: req.PayerReference,
	})
	if err != nil {
		return nil, fmt.Errorf("authorizeExternal: %w", err)
	}

	if resp.Outcome != OutcomeSuccess {
		log.Info("gateway declined",
			"method", req.Method,
			"reference", req.EntryID,
			"reason", resp.FailureReason,
		)
		return nil, fmt.Errorf("authorizeExternal: %s: %w", resp.FailureReason, domain.ErrGatewayDeclined)
	}

	return &Authorization{
		TransactionID: resp.TransactionID,
		Settlement:    SettleExternal,
	}, nil
}
