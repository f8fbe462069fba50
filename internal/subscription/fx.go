package subscription

import (
	"github.com/smallbiznis/qzpay/internal/subscription/repository"
	"github.com/smallbiznis/qzpay/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription",
	fx.Provide(
		repository.New,
		service.New,
	),
)
