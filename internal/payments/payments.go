package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront-service/internal/apperr"
	"storefront-service/internal/orders"
	"storefront-service/internal/stores/kafka"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

var (
	ErrPaymentNotFound  = fmt.Errorf("%w: payment not found", apperr.ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("%w: order not found", apperr.ErrNotFound)
	ErrPaymentExists    = fmt.Errorf("%w: payment already exists for this order", apperr.ErrConflict)
	ErrAlreadyCompleted = fmt.Errorf("%w: payment already completed", apperr.ErrConflict)
	ErrMethodDisabled   = fmt.Errorf("%w: payment method is not available", apperr.ErrValidation)
)

type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
	// PaymentForOrder returns the payment of an order owned by userID.
	PaymentForOrder(ctx context.Context, orderID, userID int64) (Payment, error)
	// PaymentByGatewayOrder scopes the lookup to userID unless it is nil.
	PaymentByGatewayOrder(ctx context.Context, gatewayOrderID string, userID *int64) (Payment, error)
}

type Tx interface {
	LockOrder(ctx context.Context, orderID int64) (OrderRef, error)
	HasPayment(ctx context.Context, orderID int64) (bool, error)
	InsertPayment(ctx context.Context, p *Payment) error
	LockPayment(ctx context.Context, paymentID int64) (Payment, error)
	UpdatePayment(ctx context.Context, p Payment) error
	SetOrderStatus(ctx context.Context, orderID int64, status orders.Status) error
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// StatusNotifier is told about order transitions a payment causes.
type StatusNotifier interface {
	StatusChanged(ctx context.Context, orderID, userID int64, from, to orders.Status)
}

type Service struct {
	store    Store
	gateways map[Method]Gateway
	currency string
	events   Publisher
	notifier StatusNotifier
	now      func() time.Time
}

type Option func(*Service)

func WithGateway(m Method, g Gateway) Option {
	return func(s *Service) {
		if g != nil {
			s.gateways[m] = g
		}
	}
}

func WithEvents(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithStatusNotifier(n StatusNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

func NewService(store Store, currency string, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("payment store is nil")
	}
	if currency == "" {
		currency = "INR"
	}
	s := &Service{
		store:    store,
		gateways: map[Method]Gateway{},
		currency: strings.ToUpper(currency),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// checkPayable loads the order under lock and applies the create preconditions.
func checkPayable(ctx context.Context, tx Tx, userID, orderID int64) (OrderRef, error) {
	o, err := tx.LockOrder(ctx, orderID)
	if err != nil {
		return OrderRef{}, err
	}
	if o.UserID != userID {
		return OrderRef{}, ErrOrderNotFound
	}
	exists, err := tx.HasPayment(ctx, orderID)
	if err != nil {
		return OrderRef{}, err
	}
	if exists {
		return OrderRef{}, ErrPaymentExists
	}
	if o.Status != orders.StatusPending {
		return OrderRef{}, fmt.Errorf("%w: order is %s, payments need a pending order", apperr.ErrInvalidTransition, o.Status)
	}
	return o, nil
}

// Create attaches a payment to a pending order. Cash on delivery confirms the order at once;
// gateway methods open a remote payment and leave the order pending until Verify.
func (s *Service) Create(ctx context.Context, userID int64, np NewPayment) (Created, error) {
	method, err := ParseMethod(np.Method)
	if err != nil {
		return Created{}, err
	}
	if method == MethodCOD {
		return s.createCOD(ctx, userID, np.OrderID)
	}

	gw, ok := s.gateways[method]
	if !ok {
		return Created{}, fmt.Errorf("%w: %s", ErrMethodDisabled, method)
	}

	var order OrderRef
	err = s.store.InTx(ctx, func(tx Tx) error {
		order, err = checkPayable(ctx, tx, userID, np.OrderID)
		return err
	})
	if err != nil {
		return Created{}, err
	}

	amountMinor := MinorUnits(order.TotalPrice)
	remote, err := gw.CreateOrder(ctx, Intent{
		OrderID:     order.ID,
		UserID:      userID,
		AmountMinor: amountMinor,
		Currency:    s.currency,
		Receipt:     "order-" + strconv.FormatInt(order.ID, 10) + "-" + uuid.NewString()[:8],
	})
	if err != nil {
		return Created{}, err
	}

	var p Payment
	err = s.store.InTx(ctx, func(tx Tx) error {
		// the order may have been paid while the gateway was called
		if _, err := checkPayable(ctx, tx, userID, np.OrderID); err != nil {
			return err
		}
		gatewayID := remote.ID
		p = Payment{
			OrderID:        order.ID,
			Method:         method,
			Amount:         order.TotalPrice,
			Status:         StatusPending,
			GatewayOrderID: &gatewayID,
		}
		return tx.InsertPayment(ctx, &p)
	})
	if err != nil {
		return Created{}, err
	}

	return Created{
		Payment:        p,
		GatewayOrderID: remote.ID,
		ClientSecret:   remote.ClientSecret,
		AmountMinor:    amountMinor,
		Currency:       s.currency,
	}, nil
}

func (s *Service) createCOD(ctx context.Context, userID, orderID int64) (Created, error) {
	var p Payment
	var order OrderRef
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		order, err = checkPayable(ctx, tx, userID, orderID)
		if err != nil {
			return err
		}
		p = Payment{OrderID: order.ID, Method: MethodCOD, Amount: order.TotalPrice, Status: StatusPending}
		if err := tx.InsertPayment(ctx, &p); err != nil {
			return err
		}
		return tx.SetOrderStatus(ctx, order.ID, orders.StatusConfirmed)
	})
	if err != nil {
		return Created{}, err
	}

	s.orderConfirmed(ctx, order)
	return Created{Payment: p, AmountMinor: MinorUnits(p.Amount), Currency: s.currency}, nil
}

// Verify asks the gateway to confirm a payment made by userID. A rejected payment is
// stored as failed and the order is left as it was; the user may submit again.
func (s *Service) Verify(ctx context.Context, userID int64, v Verification) (Payment, error) {
	p, err := s.store.PaymentByGatewayOrder(ctx, v.GatewayOrderID, &userID)
	if err != nil {
		return Payment{}, err
	}
	if p.Status == StatusCompleted {
		return Payment{}, ErrAlreadyCompleted
	}
	gw, ok := s.gateways[p.Method]
	if !ok {
		return Payment{}, fmt.Errorf("%w: %s", ErrMethodDisabled, p.Method)
	}

	if err := gw.Verify(ctx, v.GatewayOrderID, v.GatewayPaymentID, v.Signature); err != nil {
		if !errors.Is(err, ErrSignatureMismatch) {
			return Payment{}, err
		}
		if ferr := s.markFailed(ctx, p.ID); ferr != nil {
			return Payment{}, errors.Join(err, ferr)
		}
		return Payment{}, err
	}

	return s.complete(ctx, p.ID, v.GatewayPaymentID, v.Signature)
}

func (s *Service) markFailed(ctx context.Context, paymentID int64) error {
	return s.store.InTx(ctx, func(tx Tx) error {
		p, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Status == StatusCompleted {
			return nil
		}
		p.Status = StatusFailed
		return tx.UpdatePayment(ctx, p)
	})
}

// complete marks the payment completed and confirms its order in one transaction.
func (s *Service) complete(ctx context.Context, paymentID int64, gatewayPaymentID, signature string) (Payment, error) {
	var p Payment
	var order OrderRef
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		p, err = tx.LockPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Status == StatusCompleted {
			return ErrAlreadyCompleted
		}
		order, err = tx.LockOrder(ctx, p.OrderID)
		if err != nil {
			return err
		}
		if err := orders.Transition(order.Status, orders.StatusConfirmed); err != nil {
			return err
		}

		p.Status = StatusCompleted
		if gatewayPaymentID != "" {
			p.GatewayPaymentID = &gatewayPaymentID
		}
		if signature != "" {
			p.GatewaySignature = &signature
		}
		if err := tx.UpdatePayment(ctx, p); err != nil {
			return err
		}
		return tx.SetOrderStatus(ctx, order.ID, orders.StatusConfirmed)
	})
	if err != nil {
		return Payment{}, err
	}

	s.paymentCompleted(ctx, p)
	s.orderConfirmed(ctx, order)
	return p, nil
}

// CompleteByGateway handles a provider callback that reports a payment as settled.
// Repeated callbacks for a completed payment are ignored.
func (s *Service) CompleteByGateway(ctx context.Context, gatewayOrderID, gatewayPaymentID string) error {
	p, err := s.store.PaymentByGatewayOrder(ctx, gatewayOrderID, nil)
	if err != nil {
		return err
	}
	if p.Status == StatusCompleted {
		return nil
	}
	_, err = s.complete(ctx, p.ID, gatewayPaymentID, "")
	if errors.Is(err, ErrAlreadyCompleted) {
		return nil
	}
	return err
}

func (s *Service) Get(ctx context.Context, userID, orderID int64) (Payment, error) {
	return s.store.PaymentForOrder(ctx, orderID, userID)
}

func (s *Service) orderConfirmed(ctx context.Context, o OrderRef) {
	if s.notifier != nil {
		s.notifier.StatusChanged(ctx, o.ID, o.UserID, o.Status, orders.StatusConfirmed)
	}
}

func (s *Service) paymentCompleted(ctx context.Context, p Payment) {
	if s.events == nil {
		return
	}
	ev := kafka.PaymentCompletedEvent{
		OrderID:     p.OrderID,
		PaymentID:   p.ID,
		Method:      string(p.Method),
		Amount:      p.Amount,
		CompletedAt: s.now().UTC(),
	}
	if p.GatewayPaymentID != nil {
		ev.GatewayPaymentID = *p.GatewayPaymentID
	}
	if err := s.events.Publish(ctx, kafka.TopicPaymentCompleted, strconv.FormatInt(p.OrderID, 10), ev); err != nil {
		slog.Error("failed to publish payment event",
			slog.String(logkey.TraceID, ctxmanage.TraceIdFromContext(ctx)),
			slog.Int64(logkey.OrderID, p.OrderID),
			slog.String(logkey.ERROR, err.Error()))
	}
}
