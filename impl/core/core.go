package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v76"

	"codepool/entity"
	"codepool/impl/allocation"
	"codepool/impl/inventory"
	"codepool/impl/ledger"
	"codepool/internal/catalog"
	"codepool/lib/sl"
)

type AuthService interface {
	UserByToken(token string) (*entity.User, error)
}

type PaymentService interface {
	CheckoutLink(ctx context.Context, order *entity.PurchaseOrder, amount int64) (*entity.Payment, error)
	VerifySignature(payload []byte, header string, tolerance time.Duration) bool
	ParseCompletedCheckout(evt *stripe.Event) (*entity.PurchaseOrder, error)
}

type LegacySource interface {
	FetchCodes(ctx context.Context, service string) ([]string, error)
}

// Core wires the allocation engine, inventory maintenance and ledger behind
// the interfaces the HTTP handlers consume. Optional collaborators (auth,
// payments, legacy import) are attached after construction.
type Core struct {
	engine      *allocation.Engine
	maintenance *inventory.Maintenance
	ledger      *ledger.Ledger
	registry    *catalog.Registry
	auth        AuthService
	payments    PaymentService
	legacy      LegacySource
	log         *slog.Logger
}

func New(engine *allocation.Engine, maintenance *inventory.Maintenance, ldg *ledger.Ledger, registry *catalog.Registry, log *slog.Logger) *Core {
	if engine == nil || maintenance == nil || ldg == nil {
		panic("core: service is nil")
	}
	return &Core{
		engine:      engine,
		maintenance: maintenance,
		ledger:      ldg,
		registry:    registry,
		log:         log.With(sl.Module("core")),
	}
}

func (c *Core) SetAuthService(auth AuthService)         { c.auth = auth }
func (c *Core) SetPaymentService(pay PaymentService)    { c.payments = pay }
func (c *Core) SetLegacySource(legacy LegacySource)     { c.legacy = legacy }

func (c *Core) AuthenticateByToken(token string) (*entity.User, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.UserByToken(token)
}

func (c *Core) AllocateCodes(ctx context.Context, service, identity string, quantity int) (*entity.Receipt, error) {
	return c.engine.Allocate(ctx, service, identity, quantity)
}

func (c *Core) AddCodes(ctx context.Context, service string, codes []string) (*entity.AddCodesResult, error) {
	added, skipped, err := c.maintenance.AddCodes(ctx, service, codes)
	if err != nil {
		return nil, err
	}
	return &entity.AddCodesResult{Added: added, Skipped: skipped}, nil
}

// ResetCodes clears one catalog, or every known catalog when service is
// empty.
func (c *Core) ResetCodes(ctx context.Context, service string) error {
	if service == "" {
		return c.maintenance.ResetAll(ctx)
	}
	return c.maintenance.ResetCodes(ctx, service)
}

// ImportLegacyCodes pulls raw codes from the old storefront database and
// feeds them through the normal replenishment path.
func (c *Core) ImportLegacyCodes(ctx context.Context, service string) (*entity.AddCodesResult, error) {
	if c.legacy == nil {
		return nil, fmt.Errorf("legacy source not connected")
	}
	codes, err := c.legacy.FetchCodes(ctx, service)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return &entity.AddCodesResult{}, nil
	}
	return c.AddCodes(ctx, service, codes)
}

func (c *Core) TransactionsByService(ctx context.Context, service string) ([]entity.TransactionSummary, error) {
	return c.ledger.ListTransactions(ctx, service)
}

func (c *Core) TransactionByOwner(ctx context.Context, identity, txnId string) ([]entity.TransactionCode, error) {
	return c.ledger.RetrieveByTransaction(ctx, identity, txnId)
}

// CheckoutLink prices a purchase order from the registry and asks the
// payment provider for a checkout session.
func (c *Core) CheckoutLink(ctx context.Context, order *entity.PurchaseOrder) (*entity.Payment, error) {
	if c.payments == nil {
		return nil, fmt.Errorf("payment service not connected")
	}
	cat, err := c.registry.Resolve(order.Service)
	if err != nil {
		return nil, err
	}
	if order.Quantity < 1 || order.Quantity > c.engine.MaxQuantity() {
		return nil, entity.Validationf("quantity must be between 1 and %d", c.engine.MaxQuantity())
	}
	amount := int64(order.Quantity) * cat.UnitPrice
	return c.payments.CheckoutLink(ctx, order, amount)
}

func (c *Core) StripeVerifySignature(payload []byte, header string, tolerance time.Duration) bool {
	if c.payments == nil {
		return false
	}
	return c.payments.VerifySignature(payload, header, tolerance)
}

// StripeEvent fulfills a paid checkout by allocating the purchased codes to
// the payer. Errors are logged, never returned: the webhook must not be
// retried into a double allocation.
func (c *Core) StripeEvent(ctx context.Context, evt *stripe.Event) {
	if c.payments == nil {
		return
	}
	order, err := c.payments.ParseCompletedCheckout(evt)
	if err != nil {
		c.log.With(slog.String("event_id", evt.ID), sl.Err(err)).Error("parse checkout event")
		return
	}
	if order == nil {
		// not a completed checkout, nothing to fulfill
		return
	}

	log := c.log.With(
		slog.String("event_id", evt.ID),
		slog.String("session_id", order.SessionId),
		slog.String("service", order.Service),
	)
	receipt, err := c.engine.Allocate(ctx, order.Service, order.Client.Email, order.Quantity)
	if err != nil {
		log.With(sl.Err(err)).Error("fulfill paid checkout")
		return
	}
	log.With(slog.String("txn_id", receipt.TxnId)).Info("checkout fulfilled")
}
