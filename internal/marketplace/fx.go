package marketplace

import (
	"github.com/smallbiznis/qzpay/internal/marketplace/repository"
	"github.com/smallbiznis/qzpay/internal/marketplace/service"
	"go.uber.org/fx"
)

var Module = fx.Module("marketplace",
	fx.Provide(
		repository.New,
		service.New,
	),
)
