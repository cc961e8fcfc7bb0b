package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

// Provider renders customer-facing invoice documents.
type Provider interface {
	GenerateInvoice(ctx context.Context, data InvoiceData) (io.Reader, error)
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)
