package catalog

import (
	"github.com/smallbiznis/qzpay/internal/catalog/repository"
	"github.com/smallbiznis/qzpay/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog",
	fx.Provide(
		repository.New,
		service.New,
	),
)
