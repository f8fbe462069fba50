package invoice

import (
	"github.com/smallbiznis/qzpay/internal/invoice/repository"
	"github.com/smallbiznis/qzpay/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice",
	fx.Provide(
		repository.New,
		service.New,
	),
)
