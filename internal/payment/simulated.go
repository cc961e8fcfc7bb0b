package payment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// SimulatedProcessor approves a configurable share of charges. It is
// the stand-in used until a real gateway adapter is wired; production
// deployments must provide their own Processor.
type SimulatedProcessor struct {
	log         *zap.Logger
	successRate float64
	rng         *rand.Rand

	mu   sync.Mutex
	seen map[string]Result
}

func NewSimulated(log *zap.Logger, successRate float64) *SimulatedProcessor {
	if successRate <= 0 || successRate > 1 {
		successRate = 0.9
	}
	return &SimulatedProcessor{
		log:         log.Named("payment.simulated"),
		successRate: successRate,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		seen:        map[string]Result{},
	}
}

func (p *SimulatedProcessor) Name() string { return "simulated" }

func (p *SimulatedProcessor) Charge(ctx context.Context, req ChargeRequest) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Replay the original outcome for a repeated idempotency key.
	if req.IdempotencyKey != "" {
		if result, ok := p.seen[req.IdempotencyKey]; ok {
			return result, nil
		}
	}

	if p.rng.Float64() >= p.successRate {
		p.log.Debug("simulated decline", zap.String("reference", req.Reference))
		return Result{}, ErrDeclined
	}

	result := Result{
		TransactionID: fmt.Sprintf("TXN-%d", time.Now().UnixNano()),
		Amount:        req.Amount,
	}
	if req.IdempotencyKey != "" {
		p.seen[req.IdempotencyKey] = result
	}
	return result, nil
}

var Module = fx.Module("payment",
	fx.Provide(func(log *zap.Logger) Processor {
		return NewSimulated(log, 0.9)
	}),
)
