package facility

import (
	"github.com/nordflytt/lagring/internal/facility/repository"
	"github.com/nordflytt/lagring/internal/facility/service"
	"go.uber.org/fx"
)

var Module = fx.Module("facility",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
