package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const paystackBaseURL = "https://api.paystack.co"

// Paystack talks to the Paystack REST API. Paystack amounts are already in
// minor units (kobo), so no conversion happens at this port boundary.
type Paystack struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewPaystack creates a Paystack adapter with a bounded request timeout so a
// slow provider cannot hold a worker indefinitely.
func NewPaystack(secretKey string, timeout time.Duration) *Paystack {
	return &Paystack{
		secretKey: secretKey,
		baseURL:   paystackBaseURL,
		client:    &http.Client{Timeout: timeout},
	}
}

func (p *Paystack) Name() string { return "paystack" }

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// call performs one authenticated request and normalizes failures into *Error.
func (p *Paystack) call(ctx context.Context, method, path string, body interface{}, out interface{}) (string, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return "", err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		// Timeouts and connection failures are transient: the remote side
		// effect may still have happened, verification decides later.
		return "", &Error{Kind: KindTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindTransient, Code: resp.StatusCode, Message: err.Error()}
	}

	var envelope paystackEnvelope
	if resp.StatusCode >= 400 {
		_ = json.Unmarshal(raw, &envelope)
		return string(raw), &Error{
			Kind:    classifyStatus(resp.StatusCode),
			Code:    resp.StatusCode,
			Message: envelope.Message,
		}
	}

	if err := json.Unmarshal(raw, &envelope); err != nil {
		return string(raw), &Error{Kind: KindTransient, Code: resp.StatusCode, Message: "malformed provider response"}
	}
	if !envelope.Status {
		return string(raw), &Error{Kind: KindRejected, Code: resp.StatusCode, Message: envelope.Message}
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return string(raw), &Error{Kind: KindTransient, Code: resp.StatusCode, Message: "malformed provider response"}
		}
	}
	return string(raw), nil
}

func (p *Paystack) InitializePayment(ctx context.Context, params InitializeParams) (*InitializeResult, error) {
	payload := map[string]interface{}{
		"amount":    params.Amount,
		"email":     params.PayerEmail,
		"reference": params.Reference,
		"metadata":  params.Metadata,
	}
	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		Reference        string `json:"reference"`
	}
	if _, err := p.call(ctx, http.MethodPost, "/transaction/initialize", payload, &data); err != nil {
		return nil, err
	}
	return &InitializeResult{PaymentURL: data.AuthorizationURL, Reference: data.Reference}, nil
}

func (p *Paystack) VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error) {
	var data struct {
		Status string `json:"status"`
		Amount int64  `json:"amount"`
	}
	raw, err := p.call(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &data)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{Amount: data.Amount, Raw: raw}
	switch data.Status {
	case "success":
		result.Status = VerifySuccess
	case "failed", "abandoned", "reversed":
		result.Status = VerifyFailed
	default:
		result.Status = VerifyPending
	}
	return result, nil
}

func (p *Paystack) CreateSubaccount(ctx context.Context, params SubaccountParams) (*SubaccountResult, error) {
	payload := map[string]interface{}{
		"business_name":     params.BusinessName,
		"settlement_bank":   params.BankCode,
		"account_number":    params.AccountNumber,
		"percentage_charge": params.PercentageCharge,
	}
	var data struct {
		SubaccountCode string `json:"subaccount_code"`
	}
	if _, err := p.call(ctx, http.MethodPost, "/subaccount", payload, &data); err != nil {
		return nil, err
	}
	return &SubaccountResult{SubaccountID: data.SubaccountCode}, nil
}

func (p *Paystack) InitiatePayout(ctx context.Context, params PayoutParams) (*PayoutResult, error) {
	// Paystack transfers go to a recipient code, so the recipient is created
	// (idempotently on their side) before the transfer itself.
	recipientPayload := map[string]interface{}{
		"type":           "nuban",
		"name":           params.AccountName,
		"account_number": params.AccountNumber,
		"bank_code":      params.BankCode,
		"currency":       "NGN",
	}
	var recipient struct {
		RecipientCode string `json:"recipient_code"`
	}
	if _, err := p.call(ctx, http.MethodPost, "/transferrecipient", recipientPayload, &recipient); err != nil {
		return nil, err
	}

	transferPayload := map[string]interface{}{
		"source":    "balance",
		"amount":    params.Amount,
		"recipient": recipient.RecipientCode,
		"reference": params.Reference,
		"reason":    params.Reason,
	}
	var transfer struct {
		TransferCode string `json:"transfer_code"`
	}
	if _, err := p.call(ctx, http.MethodPost, "/transfer", transferPayload, &transfer); err != nil {
		return nil, err
	}
	return &PayoutResult{TransferRef: transfer.TransferCode}, nil
}
