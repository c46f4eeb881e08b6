package port

import "context"

// RefundResult is the gateway's answer to a refund request.
type RefundResult struct {
	ExternalID string
	Status     string
}

// TransferResult is the gateway's answer to a transfer (payout) request.
type TransferResult struct {
	ExternalID string
}

// GatewayObject is a gateway-side record fetched for reconciliation.
type GatewayObject struct {
	ID          string
	AmountCents int64
	Status      string
}

// Gateway object types used by Retrieve.
const (
	GatewayObjectCharge   = "charge"
	GatewayObjectRefund   = "refund"
	GatewayObjectTransfer = "transfer"
)

// PaymentGateway is the external payment processor. Calls are synchronous
// and blocking; refunds and transfers are not guaranteed idempotent, so an
// idempotency key is attached and callers must not blindly retry.
type PaymentGateway interface {
	// Refund reverses part or all of a charge identified by paymentRef.
	Refund(ctx context.Context, paymentRef string, amountCents int64, reason, idempotencyKey string) (*RefundResult, error)

	// Transfer pays out to an external destination reference.
	Transfer(ctx context.Context, destinationRef string, amountCents int64, idempotencyKey string) (*TransferResult, error)

	// Retrieve fetches a gateway object for reconciliation.
	Retrieve(ctx context.Context, objectType, objectID string) (*GatewayObject, error)
}

// NotificationHook delivers fire-and-forget case notifications. Errors are
// logged by the caller and never propagate into the core workflow.
type NotificationHook interface {
	Notify(ctx context.Context, eventName string, payload map[string]interface{}) error
}
