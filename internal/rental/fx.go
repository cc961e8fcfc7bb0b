package rental

import (
	"github.com/nordflytt/lagring/internal/rental/repository"
	"github.com/nordflytt/lagring/internal/rental/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rental",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
