// Package fake is an in-memory processor adapter used in tests and local
// mode. It honors idempotency keys and verifies webhook signatures the same
// way a real adapter would.
package fake

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/smallbiznis/qzpay/internal/provider"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string { return "fake" }

func (f *Factory) NewAdapter(cfg provider.Config) (provider.Provider, error) {
	secret, _ := cfg.Config["webhook_secret"].(string)
	if secret == "" {
		secret = "whsec_fake"
	}
	return &Adapter{
		webhookSecret: secret,
		customers:     map[string]*provider.Customer{},
		payments:      map[string]*provider.Payment{},
		subscriptions: map[string]*provider.Subscription{},
		prices:        map[string]*provider.Price{},
		idempotency:   map[string]string{},
	}, nil
}

// Adapter is safe for concurrent use.
type Adapter struct {
	mu            sync.Mutex
	webhookSecret string
	seq           int

	customers     map[string]*provider.Customer
	payments      map[string]*provider.Payment
	subscriptions map[string]*provider.Subscription
	prices        map[string]*provider.Price

	// idempotency maps request keys to the resource they created.
	idempotency map[string]string

	// FailPayments makes CreatePayment report a processor decline.
	FailPayments bool
	// FailSubscriptions makes subscription calls fail.
	FailSubscriptions bool
}

func NewAdapter() *Adapter {
	a, _ := NewFactory().NewAdapter(provider.Config{})
	return a.(*Adapter)
}

func (a *Adapter) Name() string { return "fake" }

func (a *Adapter) nextID(prefix string) string {
	a.seq++
	return fmt.Sprintf("%s_%06d", prefix, a.seq)
}

func (a *Adapter) opError(op string, err error) error {
	return &provider.Error{Provider: "fake", Op: op, Err: err}
}

func (a *Adapter) CreateCustomer(ctx context.Context, req provider.CreateCustomerRequest) (*provider.Customer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	customer := &provider.Customer{
		ID:       a.nextID("cus"),
		Email:    req.Email,
		Name:     req.Name,
		Metadata: req.Metadata,
	}
	a.customers[customer.ID] = customer
	return customer, nil
}

func (a *Adapter) UpdateCustomer(ctx context.Context, req provider.UpdateCustomerRequest) (*provider.Customer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	customer, ok := a.customers[req.CustomerID]
	if !ok {
		return nil, a.opError("customers.update", errors.New("no such customer"))
	}
	if req.Email != "" {
		customer.Email = req.Email
	}
	if req.Name != "" {
		customer.Name = req.Name
	}
	if req.Metadata != nil {
		customer.Metadata = req.Metadata
	}
	return customer, nil
}

func (a *Adapter) CreatePayment(ctx context.Context, req provider.CreatePaymentRequest) (*provider.Payment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if req.IdempotencyKey != "" {
		if existingID, ok := a.idempotency[req.IdempotencyKey]; ok {
			return a.payments[existingID], nil
		}
	}

	if a.FailPayments {
		return nil, a.opError("payments.create", errors.New("card declined"))
	}

	payment := &provider.Payment{
		ID:       a.nextID("py"),
		Amount:   req.Amount,
		Currency: req.Currency,
		Status:   provider.PaymentStatusSucceeded,
	}
	a.payments[payment.ID] = payment
	if req.IdempotencyKey != "" {
		a.idempotency[req.IdempotencyKey] = payment.ID
	}
	return payment, nil
}

func (a *Adapter) CapturePayment(ctx context.Context, paymentID string) (*provider.Payment, error) {
	return a.setPaymentStatus(paymentID, provider.PaymentStatusSucceeded, "payments.capture")
}

func (a *Adapter) CancelPayment(ctx context.Context, paymentID string) (*provider.Payment, error) {
	return a.setPaymentStatus(paymentID, provider.PaymentStatusCanceled, "payments.cancel")
}

func (a *Adapter) RefundPayment(ctx context.Context, req provider.RefundPaymentRequest) (*provider.Payment, error) {
	return a.setPaymentStatus(req.PaymentID, provider.PaymentStatusRefunded, "payments.refund")
}

func (a *Adapter) RetrievePayment(ctx context.Context, paymentID string) (*provider.Payment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	payment, ok := a.payments[paymentID]
	if !ok {
		return nil, a.opError("payments.retrieve", errors.New("no such payment"))
	}
	return payment, nil
}

func (a *Adapter) setPaymentStatus(paymentID string, status provider.PaymentStatus, op string) (*provider.Payment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	payment, ok := a.payments[paymentID]
	if !ok {
		return nil, a.opError(op, errors.New("no such payment"))
	}
	payment.Status = status
	return payment, nil
}

func (a *Adapter) CreateSubscription(ctx context.Context, req provider.CreateSubscriptionRequest) (*provider.Subscription, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if req.IdempotencyKey != "" {
		if existingID, ok := a.idempotency[req.IdempotencyKey]; ok {
			return a.subscriptions[existingID], nil
		}
	}

	if a.FailSubscriptions {
		return nil, a.opError("subscriptions.create", errors.New("subscription rejected"))
	}

	status := provider.SubscriptionStatusActive
	if req.TrialDays > 0 {
		status = provider.SubscriptionStatusTrialing
	}
	subscription := &provider.Subscription{
		ID:         a.nextID("sub"),
		CustomerID: req.CustomerID,
		PriceID:    req.PriceID,
		Status:     status,
	}
	a.subscriptions[subscription.ID] = subscription
	if req.IdempotencyKey != "" {
		a.idempotency[req.IdempotencyKey] = subscription.ID
	}
	return subscription, nil
}

func (a *Adapter) UpdateSubscription(ctx context.Context, req provider.UpdateSubscriptionRequest) (*provider.Subscription, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.FailSubscriptions {
		return nil, a.opError("subscriptions.update", errors.New("subscription rejected"))
	}
	subscription, ok := a.subscriptions[req.SubscriptionID]
	if !ok {
		return nil, a.opError("subscriptions.update", errors.New("no such subscription"))
	}
	if req.PriceID != "" {
		subscription.PriceID = req.PriceID
	}
	return subscription, nil
}

func (a *Adapter) CancelSubscription(ctx context.Context, subscriptionID string) (*provider.Subscription, error) {
	return a.setSubscriptionStatus(subscriptionID, provider.SubscriptionStatusCanceled, "subscriptions.cancel")
}

func (a *Adapter) PauseSubscription(ctx context.Context, subscriptionID string) (*provider.Subscription, error) {
	return a.setSubscriptionStatus(subscriptionID, provider.SubscriptionStatusPaused, "subscriptions.pause")
}

func (a *Adapter) ResumeSubscription(ctx context.Context, subscriptionID string) (*provider.Subscription, error) {
	return a.setSubscriptionStatus(subscriptionID, provider.SubscriptionStatusActive, "subscriptions.resume")
}

func (a *Adapter) RetrieveSubscription(ctx context.Context, subscriptionID string) (*provider.Subscription, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	subscription, ok := a.subscriptions[subscriptionID]
	if !ok {
		return nil, a.opError("subscriptions.retrieve", errors.New("no such subscription"))
	}
	return subscription, nil
}

func (a *Adapter) setSubscriptionStatus(subscriptionID string, status provider.SubscriptionStatus, op string) (*provider.Subscription, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.FailSubscriptions {
		return nil, a.opError(op, errors.New("subscription rejected"))
	}
	subscription, ok := a.subscriptions[subscriptionID]
	if !ok {
		return nil, a.opError(op, errors.New("no such subscription"))
	}
	subscription.Status = status
	return subscription, nil
}

func (a *Adapter) CreatePrice(ctx context.Context, req provider.CreatePriceRequest) (*provider.Price, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	price := &provider.Price{
		ID:            a.nextID("price"),
		Amount:        req.Amount,
		Currency:      req.Currency,
		Interval:      req.Interval,
		IntervalCount: req.IntervalCount,
	}
	a.prices[price.ID] = price
	return price, nil
}

func (a *Adapter) RetrievePrice(ctx context.Context, priceID string) (*provider.Price, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	price, ok := a.prices[priceID]
	if !ok {
		return nil, a.opError("prices.retrieve", errors.New("no such price"))
	}
	return price, nil
}

func (a *Adapter) VerifySignature(payload []byte, signature string) bool {
	return hmac.Equal([]byte(a.Sign(payload)), []byte(signature))
}

func (a *Adapter) ConstructEvent(payload []byte, signature string) (*provider.Event, error) {
	if !a.VerifySignature(payload, signature) {
		return nil, provider.ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, provider.ErrInvalidPayload
	}
	if event.ID == "" || event.Type == "" {
		return nil, provider.ErrInvalidPayload
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return &provider.Event{
		ID:         event.ID,
		Type:       event.Type,
		PaymentID:  event.PaymentID,
		Amount:     event.Amount,
		Currency:   event.Currency,
		OccurredAt: occurredAt,
		RawPayload: payload,
	}, nil
}

// Sign produces the signature ConstructEvent expects; tests use it to build
// valid webhook payloads.
func (a *Adapter) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

type webhookEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	PaymentID  string    `json:"payment_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	OccurredAt time.Time `json:"occurred_at"`
}
