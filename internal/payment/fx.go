package payment

import (
	"github.com/smallbiznis/qzpay/internal/payment/repository"
	"github.com/smallbiznis/qzpay/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment",
	fx.Provide(
		repository.New,
		service.New,
		service.NewCharger,
	),
)
