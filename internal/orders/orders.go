package orders

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"storefront-service/internal/apperr"
	"storefront-service/internal/products"
	"storefront-service/internal/stores/kafka"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
	"storefront-service/pkg/paginate"
)

var (
	ErrOrderNotFound     = fmt.Errorf("%w: order not found", apperr.ErrNotFound)
	ErrEmptyCart         = fmt.Errorf("%w: cart is empty", apperr.ErrValidation)
	ErrInvalidAddress    = fmt.Errorf("%w: invalid address", apperr.ErrValidation)
	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", apperr.ErrValidation)
	ErrNotOrderOwner     = fmt.Errorf("%w: order belongs to another user", apperr.ErrForbidden)
)

// Feed events pushed to connected admins.
const (
	FeedOrderCreated       = "order.created"
	FeedOrderStatusChanged = "order.status_changed"
)

// Store is the order persistence. Multi-step changes go through InTx.
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	ListAll(ctx context.Context, status Status, p paginate.Page) ([]Order, int64, error)
	Get(ctx context.Context, orderID int64) (Order, error)
}

// Tx is the set of writes available inside one transaction.
type Tx interface {
	CartLinesForUpdate(ctx context.Context, userID int64) ([]CartLine, error)
	AddressBelongsTo(ctx context.Context, addressID, userID int64) (bool, error)
	// DecrementStock subtracts quantity only when enough stock is left and reports whether it did.
	DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error)
	RestockItems(ctx context.Context, orderID int64) error
	InsertOrder(ctx context.Context, o *Order) error
	InsertItems(ctx context.Context, orderID int64, items []Item) error
	DeleteCartItems(ctx context.Context, itemIDs []int64) error
	LockOrder(ctx context.Context, orderID int64) (Order, error)
	SetStatus(ctx context.Context, orderID int64, status Status) error
	SetShippingAddress(ctx context.Context, orderID, addressID int64) error
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

type Notifier interface {
	Broadcast(event string, payload any)
}

type Service struct {
	store  Store
	events Publisher
	feed   Notifier
	now    func() time.Time
}

// NewService builds the order service. events and feed may be nil.
func NewService(store Store, events Publisher, feed Notifier) (*Service, error) {
	if store == nil {
		return nil, errors.New("order store is nil")
	}
	return &Service{store: store, events: events, feed: feed, now: time.Now}, nil
}

// Create converts the user's cart into a pending order. Stock is taken with a
// conditional update per line; any shortfall rolls the whole order back.
func (s *Service) Create(ctx context.Context, userID int64, no NewOrder) (Order, error) {
	var order Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		lines, err := tx.CartLinesForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		// product rows are locked in id order so overlapping checkouts cannot deadlock
		slices.SortFunc(lines, func(a, b CartLine) int {
			return cmp.Compare(a.ProductID, b.ProductID)
		})

		if err := checkAddress(ctx, tx, no.ShippingAddressID, userID); err != nil {
			return err
		}
		if no.BillingAddressID != nil {
			if err := checkAddress(ctx, tx, *no.BillingAddressID, userID); err != nil {
				return err
			}
		}

		total := decimal.Zero
		items := make([]Item, 0, len(lines))
		lineIDs := make([]int64, 0, len(lines))
		for _, line := range lines {
			ok, err := tx.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, line.ProductName)
			}
			total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			productID := line.ProductID
			items = append(items, Item{
				ProductID:       &productID,
				ProductName:     line.ProductName,
				Quantity:        line.Quantity,
				Price:           line.Price,
				DiscountedPrice: products.DiscountedPrice(line.Price, line.Discount),
			})
			lineIDs = append(lineIDs, line.ItemID)
		}

		shipping := no.ShippingAddressID
		order = Order{
			UserID:            userID,
			ShippingAddressID: &shipping,
			BillingAddressID:  no.BillingAddressID,
			TotalPrice:        total,
			Status:            StatusPending,
		}
		if err := tx.InsertOrder(ctx, &order); err != nil {
			return err
		}
		if err := tx.InsertItems(ctx, order.ID, items); err != nil {
			return err
		}
		order.Items = items
		return tx.DeleteCartItems(ctx, lineIDs)
	})
	if err != nil {
		return Order{}, err
	}

	s.orderCreated(ctx, order)
	return order, nil
}

func checkAddress(ctx context.Context, tx Tx, addressID, userID int64) error {
	ok, err := tx.AddressBelongsTo(ctx, addressID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidAddress
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID int64) ([]Order, error) {
	return s.store.ListByUser(ctx, userID)
}

// ListAll is the staff view over every order, optionally filtered by status.
func (s *Service) ListAll(ctx context.Context, status Status, p paginate.Page) ([]Order, int64, error) {
	return s.store.ListAll(ctx, status, p)
}

// Get returns ErrOrderNotFound for orders of other users.
func (s *Service) Get(ctx context.Context, userID, orderID int64) (Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if o.UserID != userID {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

// UpdateShippingAddress is allowed only while the order is confirmed.
func (s *Service) UpdateShippingAddress(ctx context.Context, userID, orderID, addressID int64) (Order, error) {
	err := s.store.InTx(ctx, func(tx Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return ErrNotOrderOwner
		}
		if o.Status != StatusConfirmed {
			return fmt.Errorf("%w: shipping address can only change while the order is confirmed", apperr.ErrInvalidTransition)
		}
		if err := checkAddress(ctx, tx, addressID, userID); err != nil {
			return err
		}
		return tx.SetShippingAddress(ctx, orderID, addressID)
	})
	if err != nil {
		return Order{}, err
	}
	return s.store.Get(ctx, orderID)
}

func (s *Service) Cancel(ctx context.Context, userID, orderID int64) (Order, error) {
	return s.changeStatus(ctx, orderID, &userID, StatusCancelled)
}

func (s *Service) InitiateReturn(ctx context.Context, userID, orderID int64) (Order, error) {
	return s.changeStatus(ctx, orderID, &userID, StatusReturnInitiated)
}

// Advance moves any order along a legal edge on behalf of staff.
func (s *Service) Advance(ctx context.Context, orderID int64, to Status) (Order, error) {
	if !to.Valid() {
		return Order{}, fmt.Errorf("%w: unknown order status %q", apperr.ErrValidation, to)
	}
	return s.changeStatus(ctx, orderID, nil, to)
}

func (s *Service) changeStatus(ctx context.Context, orderID int64, owner *int64, to Status) (Order, error) {
	var from Status
	var userID int64
	err := s.store.InTx(ctx, func(tx Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if owner != nil && o.UserID != *owner {
			return ErrOrderNotFound
		}
		if err := Transition(o.Status, to); err != nil {
			return err
		}
		if err := tx.SetStatus(ctx, orderID, to); err != nil {
			return err
		}
		if to == StatusCancelled {
			if err := tx.RestockItems(ctx, orderID); err != nil {
				return err
			}
		}
		from, userID = o.Status, o.UserID
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.StatusChanged(ctx, orderID, userID, from, to)
	return s.store.Get(ctx, orderID)
}

func (s *Service) orderCreated(ctx context.Context, o Order) {
	if s.events != nil {
		ev := kafka.OrderCreatedEvent{
			OrderID:    o.ID,
			UserID:     o.UserID,
			TotalPrice: o.TotalPrice,
			CreatedAt:  s.now().UTC(),
		}
		for _, it := range o.Items {
			if it.ProductID != nil {
				ev.Items = append(ev.Items, kafka.OrderItemEvent{ProductID: *it.ProductID, Quantity: it.Quantity})
			}
		}
		s.publish(ctx, kafka.TopicOrderCreated, o.ID, ev)
	}
	if s.feed != nil {
		s.feed.Broadcast(FeedOrderCreated, o)
	}
}

// StatusChanged announces a committed transition. Payments call it after confirming an order.
func (s *Service) StatusChanged(ctx context.Context, orderID, userID int64, from, to Status) {
	if s.events != nil {
		s.publish(ctx, kafka.TopicOrderStatusChanged, orderID, kafka.OrderStatusChangedEvent{
			OrderID:   orderID,
			UserID:    userID,
			From:      string(from),
			To:        string(to),
			ChangedAt: s.now().UTC(),
		})
	}
	if s.feed != nil {
		s.feed.Broadcast(FeedOrderStatusChanged, map[string]any{
			"order_id": orderID,
			"user_id":  userID,
			"from":     from,
			"to":       to,
		})
	}
}

// publish never fails the caller; the order is already committed.
func (s *Service) publish(ctx context.Context, topic string, orderID int64, event any) {
	if err := s.events.Publish(ctx, topic, strconv.FormatInt(orderID, 10), event); err != nil {
		slog.Error("failed to publish order event",
			slog.String(logkey.TraceID, ctxmanage.TraceIdFromContext(ctx)),
			slog.Int64(logkey.OrderID, orderID),
			slog.String("Topic", topic),
			slog.String(logkey.ERROR, err.Error()))
	}
}
