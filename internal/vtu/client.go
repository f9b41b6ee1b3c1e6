package vtu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cardbillhq/cardbill-api/internal/logging"
	"github.com/cardbillhq/cardbill-api/internal/observability"
)

type PurchaseRequest struct {
	TransactionID uuid.UUID
	ServiceType   string
	Provider      string
	Recipient     string
	Amount        decimal.Decimal
}

// PurchaseResult is the provider's verdict. Raw carries the full response
// body so it can be stored on the transaction record verbatim.
type PurchaseResult struct {
	Success bool
	Message string
	Raw     json.RawMessage
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type purchasePayload struct {
	Reference   string `json:"reference"`
	ServiceType string `json:"service_type"`
	Provider    string `json:"provider"`
	Recipient   string `json:"recipient"`
	Amount      string `json:"amount"`
}

type purchaseResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (c *Client) Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	log := logging.FromContext(ctx)

	payload := purchasePayload{
		Reference:   req.TransactionID.String(),
		ServiceType: req.ServiceType,
		Provider:    req.Provider,
		Recipient:   req.Recipient,
		Amount:      req.Amount.StringFixed(2),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("Purchase: marshal: %w", err)
	}

	url := c.baseURL + "/purchase"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("Purchase: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	log.Info("vtu provider request sent", "transaction_id", req.TransactionID, "service_type", req.ServiceType)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observability.ProviderRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("Purchase: send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		observability.ProviderRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("Purchase: read response: %w", err)
	}

	log.Info("vtu provider response received",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	var parsed purchaseResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		observability.ProviderRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("Purchase: decode response: %w", err)
	}

	success := resp.StatusCode == http.StatusOK && parsed.Status == "success"
	outcome := "declined"
	if success {
		outcome = "success"
	}
	observability.ProviderRequestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return &PurchaseResult{
		Success: success,
		Message: parsed.Message,
		Raw:     raw,
	}, nil
}
