package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/pkg/config"
)

// ErrGateway wraps every failure talking to the payment provider.
var ErrGateway = errors.New("payment gateway error")

// CustomerInfo identifies the payer to the gateway.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// InitiateRequest describes one checkout. Amount is in rupees and sent to Khalti in paisa.
type InitiateRequest struct {
	OrderID   string
	OrderName string
	Amount    float64
	Customer  CustomerInfo
}

// InitiateResult is the gateway's redirect target.
type InitiateResult struct {
	PIDX       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
}

// Gateway starts hosted checkouts.
type Gateway interface {
	Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error)
}

type khaltiPayload struct {
	ReturnURL         string       `json:"return_url"`
	WebsiteURL        string       `json:"website_url"`
	Amount            int64        `json:"amount"`
	PurchaseOrderID   string       `json:"purchase_order_id"`
	PurchaseOrderName string       `json:"purchase_order_name"`
	CustomerInfo      CustomerInfo `json:"customer_info"`
}

// KhaltiClient talks to the Khalti ePayment v2 API.
type KhaltiClient struct {
	httpClient *http.Client
	baseURL    string
	secret     string
	returnURL  string
	websiteURL string
	logger     *zap.Logger
}

func NewKhaltiClient(cfg config.PaymentConfig, logger *zap.Logger) *KhaltiClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KhaltiClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.GatewayBaseURL,
		secret:     cfg.GatewaySecret,
		returnURL:  cfg.ReturnURL,
		websiteURL: cfg.WebsiteURL,
		logger:     logger,
	}
}

func (k *KhaltiClient) Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	body, err := json.Marshal(khaltiPayload{
		ReturnURL:         k.returnURL,
		WebsiteURL:        k.websiteURL,
		Amount:            ToPaisa(req.Amount),
		PurchaseOrderID:   req.OrderID,
		PurchaseOrderName: req.OrderName,
		CustomerInfo:      req.Customer,
	})
	if err != nil {
		return InitiateResult{}, fmt.Errorf("encode khalti payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, k.baseURL+"/epayment/initiate/", bytes.NewReader(body))
	if err != nil {
		return InitiateResult{}, fmt.Errorf("build khalti request: %w", err)
	}
	httpReq.Header.Set("Authorization", "key "+k.secret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := k.httpClient.Do(httpReq)
	if err != nil {
		return InitiateResult{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return InitiateResult{}, fmt.Errorf("%w: read response: %v", ErrGateway, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		k.logger.Warn("khalti initiate rejected", zap.Int("status", resp.StatusCode), zap.ByteString("body", raw))
		return InitiateResult{}, fmt.Errorf("%w: status %d", ErrGateway, resp.StatusCode)
	}

	var result InitiateResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return InitiateResult{}, fmt.Errorf("%w: decode response: %v", ErrGateway, err)
	}
	if result.PaymentURL == "" {
		return InitiateResult{}, fmt.Errorf("%w: missing payment_url", ErrGateway)
	}
	return result, nil
}

// ToPaisa converts rupees to integer paisa, rounding half away from zero.
func ToPaisa(amount float64) int64 {
	if amount < 0 {
		return -ToPaisa(-amount)
	}
	return int64(amount*100 + 0.5)
}
