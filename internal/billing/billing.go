// Package billing is the single entry point applications embed. It exposes
// every domain service behind one engine plus the event bus feeding
// application hooks.
package billing

import (
	catalogdomain "github.com/smallbiznis/qzpay/internal/catalog/domain"
	customerdomain "github.com/smallbiznis/qzpay/internal/customer/domain"
	entitlementdomain "github.com/smallbiznis/qzpay/internal/entitlement/domain"
	"github.com/smallbiznis/qzpay/internal/events"
	invoicedomain "github.com/smallbiznis/qzpay/internal/invoice/domain"
	marketplacedomain "github.com/smallbiznis/qzpay/internal/marketplace/domain"
	paymentdomain "github.com/smallbiznis/qzpay/internal/payment/domain"
	subscriptiondomain "github.com/smallbiznis/qzpay/internal/subscription/domain"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Bus           *events.Bus
	Customers     customerdomain.Service
	Catalog       catalogdomain.Service
	Subscriptions subscriptiondomain.Service
	Invoices      invoicedomain.Service
	Payments      paymentdomain.Service
	Entitlements  entitlementdomain.Service
	Marketplace   marketplacedomain.Service
}

// Engine bundles the domain services of the billing core.
type Engine struct {
	Customers     customerdomain.Service
	Catalog       catalogdomain.Service
	Subscriptions subscriptiondomain.Service
	Invoices      invoicedomain.Service
	Payments      paymentdomain.Service
	Entitlements  entitlementdomain.Service
	Marketplace   marketplacedomain.Service

	bus *events.Bus
}

func New(p Params) *Engine {
	return &Engine{
		Customers:     p.Customers,
		Catalog:       p.Catalog,
		Subscriptions: p.Subscriptions,
		Invoices:      p.Invoices,
		Payments:      p.Payments,
		Entitlements:  p.Entitlements,
		Marketplace:   p.Marketplace,
		bus:           p.Bus,
	}
}

// Events returns the bus applications subscribe on.
func (e *Engine) Events() *events.Bus {
	return e.bus
}

var Module = fx.Module("billing", fx.Provide(New))
