package gateway

import (
	"context"
	"errors"
	"fmt"
)

// PaymentGateway is the uniform contract every payment provider implements.
// Amounts are always minor currency units on both sides of the port;
// adapters convert whatever their provider speaks before returning.
type PaymentGateway interface {
	// InitializePayment starts a hosted checkout and returns the URL the
	// payer is sent to plus the reference used for later verification.
	InitializePayment(ctx context.Context, params InitializeParams) (*InitializeResult, error)

	// VerifyPayment asks the provider for the authoritative state of a
	// previously initialized payment.
	VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error)

	// CreateSubaccount registers a split-settlement target for a mechanic's
	// bank account.
	CreateSubaccount(ctx context.Context, params SubaccountParams) (*SubaccountResult, error)

	// InitiatePayout starts a bank transfer for a wallet withdrawal.
	InitiatePayout(ctx context.Context, params PayoutParams) (*PayoutResult, error)

	// Name identifies the provider ("paystack", "stripe", "sandbox").
	Name() string
}

type InitializeParams struct {
	Amount     int64 // minor units
	PayerEmail string
	Reference  string
	Metadata   map[string]string
}

type InitializeResult struct {
	PaymentURL string
	Reference  string
}

type VerifyStatus string

const (
	VerifySuccess VerifyStatus = "success"
	VerifyFailed  VerifyStatus = "failed"
	VerifyPending VerifyStatus = "pending"
)

type VerifyResult struct {
	Status VerifyStatus
	Amount int64 // minor units
	Raw    string
}

type SubaccountParams struct {
	BusinessName     string
	BankCode         string
	AccountNumber    string
	PercentageCharge float64
}

type SubaccountResult struct {
	SubaccountID string
}

type PayoutParams struct {
	Amount        int64 // minor units
	BankCode      string
	AccountNumber string
	AccountName   string
	Reference     string
	Reason        string
}

type PayoutResult struct {
	TransferRef string
}

// ErrorKind classifies a provider failure for retry decisions.
type ErrorKind int

const (
	// KindRejected is a definitive provider rejection (4xx). Surfaced to the
	// caller, never retried.
	KindRejected ErrorKind = iota
	// KindTransient is a network error, timeout or 5xx. The reconciliation
	// workers retry these; the request path does not.
	KindTransient
	// KindQuota is a rate/quota rejection (429), retryable with backoff.
	KindQuota
)

// Error is the normalized provider failure returned by every adapter.
type Error struct {
	Kind    ErrorKind
	Code    int
	Message string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTransient:
		return fmt.Sprintf("gateway unavailable (code %d): %s", e.Code, e.Message)
	case KindQuota:
		return fmt.Sprintf("gateway quota exceeded (code %d): %s", e.Code, e.Message)
	default:
		return fmt.Sprintf("gateway rejected request (code %d): %s", e.Code, e.Message)
	}
}

// IsTransient reports whether err is a retryable gateway failure.
func IsTransient(err error) bool {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind == KindTransient || gerr.Kind == KindQuota
	}
	return false
}

// IsRejected reports whether err is a definitive gateway rejection.
func IsRejected(err error) bool {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind == KindRejected
	}
	return false
}

// classifyStatus maps an HTTP status code to an ErrorKind.
func classifyStatus(status int) ErrorKind {
	switch {
	case status == 429:
		return KindQuota
	case status >= 500:
		return KindTransient
	default:
		return KindRejected
	}
}
