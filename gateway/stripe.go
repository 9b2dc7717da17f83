package gateway

import (
	"context"
	"encoding/json"
	"errors"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/account"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/transfer"
)

// Stripe implements the gateway port on top of stripe-go. Payments run
// through hosted Checkout sessions; payouts are transfers to the mechanic's
// connected account (AccountNumber carries the connected account id in this
// rendition). Stripe amounts are already minor units.
type Stripe struct {
	successURL string
	cancelURL  string
	currency   string
}

// NewStripe initializes the stripe client with the given API key.
func NewStripe(apiKey, successURL, cancelURL string) *Stripe {
	stripe.Key = apiKey
	return &Stripe{
		successURL: successURL,
		cancelURL:  cancelURL,
		currency:   "usd",
	}
}

func (s *Stripe) Name() string { return "stripe" }

// wrapErr normalizes a stripe-go failure into *Error.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return &Error{
			Kind:    classifyStatus(serr.HTTPStatusCode),
			Code:    serr.HTTPStatusCode,
			Message: serr.Msg,
		}
	}
	// Anything that never produced an HTTP response is transient.
	return &Error{Kind: KindTransient, Message: err.Error()}
}

func (s *Stripe) InitializePayment(ctx context.Context, params InitializeParams) (*InitializeResult, error) {
	sessionParams := &stripe.CheckoutSessionParams{
		Params:            stripe.Params{Context: ctx},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail:     stripe.String(params.PayerEmail),
		ClientReferenceID: stripe.String(params.Reference),
		SuccessURL:        stripe.String(s.successURL),
		CancelURL:         stripe.String(s.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(s.currency),
					UnitAmount: stripe.Int64(params.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Booking payment"),
					},
				},
			},
		},
	}
	checkout, err := session.New(sessionParams)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &InitializeResult{PaymentURL: checkout.URL, Reference: checkout.ID}, nil
}

func (s *Stripe) VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error) {
	checkout, err := session.Get(reference, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, wrapErr(err)
	}

	raw, _ := json.Marshal(checkout)
	result := &VerifyResult{Amount: checkout.AmountTotal, Raw: string(raw)}
	switch {
	case checkout.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		result.Status = VerifySuccess
	case checkout.Status == stripe.CheckoutSessionStatusExpired:
		result.Status = VerifyFailed
	default:
		result.Status = VerifyPending
	}
	return result, nil
}

func (s *Stripe) CreateSubaccount(ctx context.Context, params SubaccountParams) (*SubaccountResult, error) {
	acct, err := account.New(&stripe.AccountParams{
		Params: stripe.Params{Context: ctx},
		Type:   stripe.String(string(stripe.AccountTypeExpress)),
		BusinessProfile: &stripe.AccountBusinessProfileParams{
			Name: stripe.String(params.BusinessName),
		},
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return &SubaccountResult{SubaccountID: acct.ID}, nil
}

func (s *Stripe) InitiatePayout(ctx context.Context, params PayoutParams) (*PayoutResult, error) {
	tr, err := transfer.New(&stripe.TransferParams{
		Params:        stripe.Params{Context: ctx},
		Amount:        stripe.Int64(params.Amount),
		Currency:      stripe.String(s.currency),
		Destination:   stripe.String(params.AccountNumber),
		TransferGroup: stripe.String(params.Reference),
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return &PayoutResult{TransferRef: tr.ID}, nil
}
