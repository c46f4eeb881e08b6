package stride

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/homeshine/conflict-engine/internal/application/port"
)

// Client is a REST client for the Stride payment gateway implementing
// port.PaymentGateway. Refund and transfer calls carry an Idempotency-Key
// header because Stride does not guarantee idempotency on its own.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds the gateway connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a new Stride gateway client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type refundRequest struct {
	ChargeID    string `json:"charge_id"`
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason"`
}

type refundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type transferRequest struct {
	Destination string `json:"destination"`
	AmountCents int64  `json:"amount_cents"`
}

type transferResponse struct {
	ID string `json:"id"`
}

type objectResponse struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Refund reverses part or all of a charge
func (c *Client) Refund(ctx context.Context, paymentRef string, amountCents int64, reason, idempotencyKey string) (*port.RefundResult, error) {
	var resp refundResponse
	err := c.post(ctx, "/v1/refunds", idempotencyKey, refundRequest{
		ChargeID:    paymentRef,
		AmountCents: amountCents,
		Reason:      reason,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("stride refund: %w", err)
	}

	c.logger.Info("Stride refund created",
		zap.String("refund_id", resp.ID),
		zap.String("charge_id", paymentRef),
		zap.Int64("amount_cents", amountCents),
	)
	return &port.RefundResult{ExternalID: resp.ID, Status: resp.Status}, nil
}

// Transfer pays out to an external destination reference
func (c *Client) Transfer(ctx context.Context, destinationRef string, amountCents int64, idempotencyKey string) (*port.TransferResult, error) {
	var resp transferResponse
	err := c.post(ctx, "/v1/transfers", idempotencyKey, transferRequest{
		Destination: destinationRef,
		AmountCents: amountCents,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("stride transfer: %w", err)
	}

	c.logger.Info("Stride transfer created",
		zap.String("transfer_id", resp.ID),
		zap.String("destination", destinationRef),
		zap.Int64("amount_cents", amountCents),
	)
	return &port.TransferResult{ExternalID: resp.ID}, nil
}

// Retrieve fetches a gateway object for reconciliation
func (c *Client) Retrieve(ctx context.Context, objectType, objectID string) (*port.GatewayObject, error) {
	var path string
	switch objectType {
	case port.GatewayObjectCharge:
		path = "/v1/charges/" + objectID
	case port.GatewayObjectRefund:
		path = "/v1/refunds/" + objectID
	case port.GatewayObjectTransfer:
		path = "/v1/transfers/" + objectID
	default:
		return nil, fmt.Errorf("unknown gateway object type %q", objectType)
	}

	var resp objectResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("stride retrieve %s: %w", objectType, err)
	}
	return &port.GatewayObject{ID: resp.ID, AmountCents: resp.AmountCents, Status: resp.Status}, nil
}

func (c *Client) post(ctx context.Context, path, idempotencyKey string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr errorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gateway %d %s: %s", resp.StatusCode, apiErr.Error.Code, apiErr.Error.Message)
		}
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.PaymentGateway = (*Client)(nil)
