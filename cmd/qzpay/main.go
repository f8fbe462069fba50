package main

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/qzpay/internal/billing"
	"github.com/smallbiznis/qzpay/internal/catalog"
	catalogdomain "github.com/smallbiznis/qzpay/internal/catalog/domain"
	"github.com/smallbiznis/qzpay/internal/clock"
	"github.com/smallbiznis/qzpay/internal/config"
	"github.com/smallbiznis/qzpay/internal/customer"
	customerdomain "github.com/smallbiznis/qzpay/internal/customer/domain"
	"github.com/smallbiznis/qzpay/internal/entitlement"
	entitlementdomain "github.com/smallbiznis/qzpay/internal/entitlement/domain"
	"github.com/smallbiznis/qzpay/internal/events"
	"github.com/smallbiznis/qzpay/internal/invoice"
	invoicedomain "github.com/smallbiznis/qzpay/internal/invoice/domain"
	"github.com/smallbiznis/qzpay/internal/marketplace"
	marketplacedomain "github.com/smallbiznis/qzpay/internal/marketplace/domain"
	"github.com/smallbiznis/qzpay/internal/observability/metrics"
	"github.com/smallbiznis/qzpay/internal/payment"
	paymentdomain "github.com/smallbiznis/qzpay/internal/payment/domain"
	"github.com/smallbiznis/qzpay/internal/provider"
	"github.com/smallbiznis/qzpay/internal/provider/fake"
	"github.com/smallbiznis/qzpay/internal/scheduler"
	"github.com/smallbiznis/qzpay/internal/subscription"
	subscriptiondomain "github.com/smallbiznis/qzpay/internal/subscription/domain"
	"github.com/smallbiznis/qzpay/pkg/db"
	"github.com/smallbiznis/qzpay/pkg/log"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	fx.New(
		config.Module,
		log.Module,
		db.Module,
		clock.Module,
		metrics.Module,

		fx.Provide(newSnowflakeNode),
		fx.Provide(
			fx.Annotate(
				func() provider.Factory { return fake.NewFactory() },
				fx.ResultTags(`group:"provider_factories"`),
			),
		),

		events.Module,
		provider.Module,
		catalog.Module,
		customer.Module,
		entitlement.Module,
		invoice.Module,
		payment.Module,
		subscription.Module,
		marketplace.Module,
		billing.Module,
		scheduler.Module,

		fx.Invoke(migrate),
	).Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	nodeID := int64(1)
	if raw := os.Getenv("SNOWFLAKE_NODE_ID"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			nodeID = parsed
		}
	}
	return snowflake.NewNode(nodeID)
}

func migrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(
		&catalogdomain.Plan{},
		&catalogdomain.Price{},
		&catalogdomain.PlanEntitlement{},
		&catalogdomain.PlanLimit{},
		&customerdomain.Customer{},
		&entitlementdomain.Entitlement{},
		&entitlementdomain.Limit{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLine{},
		&paymentdomain.Payment{},
		&paymentdomain.WebhookEvent{},
		&subscriptiondomain.Subscription{},
		&marketplacedomain.Vendor{},
		&marketplacedomain.VendorPayout{},
	)
}
