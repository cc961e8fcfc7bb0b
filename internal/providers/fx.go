package providers

import (
	"github.com/nordflytt/lagring/internal/providers/email"
	"github.com/nordflytt/lagring/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
