package entitlement

import (
	"github.com/smallbiznis/qzpay/internal/entitlement/repository"
	"github.com/smallbiznis/qzpay/internal/entitlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("entitlement",
	fx.Provide(
		repository.New,
		service.New,
	),
)
