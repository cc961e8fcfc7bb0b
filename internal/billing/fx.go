package billing

import (
	"github.com/nordflytt/lagring/internal/billing/repository"
	"github.com/nordflytt/lagring/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
