package gateway

import (
	"context"
	"fmt"
	"sync"
)

// Sandbox is the deterministic test gateway: every call succeeds, references
// are predictable, and all calls are recorded so tests can assert on them.
// It is also the default provider when no credentials are configured.
type Sandbox struct {
	mu       sync.Mutex
	seq      int
	payments map[string]int64 // reference -> amount

	InitializeCalls []InitializeParams
	VerifyCalls     []string
	PayoutCalls     []PayoutParams
}

func NewSandbox() *Sandbox {
	return &Sandbox{payments: make(map[string]int64)}
}

func (s *Sandbox) Name() string { return "sandbox" }

func (s *Sandbox) InitializePayment(ctx context.Context, params InitializeParams) (*InitializeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	reference := params.Reference
	if reference == "" {
		reference = fmt.Sprintf("sandbox_%06d", s.seq)
	}
	s.payments[reference] = params.Amount
	s.InitializeCalls = append(s.InitializeCalls, params)
	return &InitializeResult{
		PaymentURL: "https://sandbox.invalid/pay/" + reference,
		Reference:  reference,
	}, nil
}

func (s *Sandbox) VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.VerifyCalls = append(s.VerifyCalls, reference)
	amount, ok := s.payments[reference]
	if !ok {
		return nil, &Error{Kind: KindRejected, Code: 404, Message: "unknown reference"}
	}
	return &VerifyResult{Status: VerifySuccess, Amount: amount, Raw: `{"sandbox":true}`}, nil
}

func (s *Sandbox) CreateSubaccount(ctx context.Context, params SubaccountParams) (*SubaccountResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return &SubaccountResult{SubaccountID: fmt.Sprintf("SUB_sandbox_%06d", s.seq)}, nil
}

func (s *Sandbox) InitiatePayout(ctx context.Context, params PayoutParams) (*PayoutResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.PayoutCalls = append(s.PayoutCalls, params)
	return &PayoutResult{TransferRef: fmt.Sprintf("TRF_sandbox_%06d", s.seq)}, nil
}
