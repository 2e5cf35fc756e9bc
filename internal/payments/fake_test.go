package payments

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/shopspring/decimal"

	"storefront-service/internal/orders"
)

type memState struct {
	orders   map[int64]OrderRef
	payments map[int64]Payment
	nextID   int64
}

func (s memState) clone() memState {
	return memState{orders: maps.Clone(s.orders), payments: maps.Clone(s.payments), nextID: s.nextID}
}

type memStore struct {
	mu sync.Mutex
	st memState
	// failOn names a Tx method that returns errStoreFailure
	failOn string
}

var errStoreFailure = errors.New("store failure")

func newMemStore() *memStore {
	return &memStore{st: memState{orders: map[int64]OrderRef{}, payments: map[int64]Payment{}}}
}

func (m *memStore) addOrder(id, userID int64, total string, status orders.Status) {
	m.st.orders[id] = OrderRef{ID: id, UserID: userID, Status: status, TotalPrice: decimal.RequireFromString(total)}
}

func (m *memStore) order(id int64) OrderRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.orders[id]
}

func (m *memStore) payment(orderID int64) (Payment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.st.payments {
		if p.OrderID == orderID {
			return p, true
		}
	}
	return Payment{}, false
}

func (m *memStore) InTx(_ context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := m.st.clone()
	if err := fn(&memTx{st: &m.st, failOn: m.failOn}); err != nil {
		m.st = saved
		return err
	}
	return nil
}

func (m *memStore) PaymentForOrder(_ context.Context, orderID, userID int64) (Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.st.payments {
		if p.OrderID == orderID && m.st.orders[orderID].UserID == userID {
			return p, nil
		}
	}
	return Payment{}, ErrPaymentNotFound
}

func (m *memStore) PaymentByGatewayOrder(_ context.Context, gatewayOrderID string, userID *int64) (Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.st.payments {
		if p.GatewayOrderID == nil || *p.GatewayOrderID != gatewayOrderID {
			continue
		}
		if userID != nil && m.st.orders[p.OrderID].UserID != *userID {
			continue
		}
		return p, nil
	}
	return Payment{}, ErrPaymentNotFound
}

type memTx struct {
	st     *memState
	failOn string
}

func (t *memTx) LockOrder(_ context.Context, orderID int64) (OrderRef, error) {
	o, ok := t.st.orders[orderID]
	if !ok {
		return OrderRef{}, ErrOrderNotFound
	}
	return o, nil
}

func (t *memTx) HasPayment(_ context.Context, orderID int64) (bool, error) {
	for _, p := range t.st.payments {
		if p.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertPayment(_ context.Context, p *Payment) error {
	for _, existing := range t.st.payments {
		if existing.OrderID == p.OrderID {
			return ErrPaymentExists
		}
	}
	t.st.nextID++
	p.ID = t.st.nextID
	t.st.payments[p.ID] = *p
	return nil
}

func (t *memTx) LockPayment(_ context.Context, paymentID int64) (Payment, error) {
	p, ok := t.st.payments[paymentID]
	if !ok {
		return Payment{}, ErrPaymentNotFound
	}
	return p, nil
}

func (t *memTx) UpdatePayment(_ context.Context, p Payment) error {
	if t.failOn == "UpdatePayment" {
		return errStoreFailure
	}
	if _, ok := t.st.payments[p.ID]; !ok {
		return ErrPaymentNotFound
	}
	t.st.payments[p.ID] = p
	return nil
}

func (t *memTx) SetOrderStatus(_ context.Context, orderID int64, status orders.Status) error {
	if t.failOn == "SetOrderStatus" {
		return errStoreFailure
	}
	o := t.st.orders[orderID]
	o.Status = status
	t.st.orders[orderID] = o
	return nil
}

// fakeGateway accepts payments whose signature equals "ok".
type fakeGateway struct {
	created []Intent
}

func (g *fakeGateway) CreateOrder(_ context.Context, in Intent) (GatewayOrder, error) {
	g.created = append(g.created, in)
	return GatewayOrder{ID: "gw_order_1", ClientSecret: "secret_1"}, nil
}

func (g *fakeGateway) Verify(_ context.Context, _, _, signature string) error {
	if signature != "ok" {
		return ErrSignatureMismatch
	}
	return nil
}

type publishedEvent struct {
	topic string
	key   string
	event any
}

type fakePublisher struct {
	events []publishedEvent
}

func (p *fakePublisher) Publish(_ context.Context, topic, key string, event any) error {
	p.events = append(p.events, publishedEvent{topic: topic, key: key, event: event})
	return nil
}

type statusChange struct {
	orderID  int64
	from, to orders.Status
}

type fakeNotifier struct {
	changes []statusChange
}

func (n *fakeNotifier) StatusChanged(_ context.Context, orderID, _ int64, from, to orders.Status) {
	n.changes = append(n.changes, statusChange{orderID: orderID, from: from, to: to})
}
