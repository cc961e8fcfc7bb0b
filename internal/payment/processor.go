// Package payment defines the gateway contract the billing sweep
// charges through. The engine never talks to a concrete provider
// directly, so escalation stays agnostic to the processor in use.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrDeclined means the charge was rejected; the billing record
	// stays pending and the overdue sweep takes over.
	ErrDeclined = errors.New("payment_declined")
	// ErrProviderUnavailable means the gateway could not be reached;
	// the charge may be retried on the next sweep.
	ErrProviderUnavailable = errors.New("payment_provider_unavailable")
)

// ChargeRequest identifies what to charge. IdempotencyKey lets a
// provider dedupe retries of the same billing record.
type ChargeRequest struct {
	Amount         int64
	Currency       string
	Reference      string
	IdempotencyKey string
}

// Result reports a successful charge.
type Result struct {
	TransactionID string
	Amount        int64
}

// Processor charges an invoice amount. Implementations return
// ErrDeclined or ErrProviderUnavailable for the two failure classes;
// anything else is treated as an internal fault.
type Processor interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (Result, error)
}
