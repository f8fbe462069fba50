package customer

import (
	"github.com/smallbiznis/qzpay/internal/customer/repository"
	"github.com/smallbiznis/qzpay/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer",
	fx.Provide(
		repository.New,
		service.New,
	),
)
