package orders

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"storefront-service/pkg/paginate"
)

type memProduct struct {
	name     string
	price    decimal.Decimal
	discount *int
	stock    int
}

type memLine struct {
	itemID    int64
	userID    int64
	productID int64
	quantity  int
}

type memState struct {
	products  map[int64]memProduct
	lines     []memLine
	addresses map[int64]int64
	orders    map[int64]Order
	nextID    int64
}

func (s memState) clone() memState {
	c := memState{
		products:  maps.Clone(s.products),
		lines:     slices.Clone(s.lines),
		addresses: maps.Clone(s.addresses),
		orders:    make(map[int64]Order, len(s.orders)),
		nextID:    s.nextID,
	}
	for id, o := range s.orders {
		o.Items = slices.Clone(o.Items)
		c.orders[id] = o
	}
	return c
}

// memStore is an in-memory Store whose transactions roll back on error.
type memStore struct {
	mu    sync.Mutex
	state memState
	// decremented lists product ids in the order their stock was taken, across transactions
	decremented []int64
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		products:  map[int64]memProduct{},
		addresses: map[int64]int64{},
		orders:    map[int64]Order{},
	}}
}

func (m *memStore) addProduct(id int64, name, price string, stock int) {
	m.state.products[id] = memProduct{name: name, price: decimal.RequireFromString(price), stock: stock}
}

func (m *memStore) addLine(userID, productID int64, quantity int) {
	m.state.nextID++
	m.state.lines = append(m.state.lines, memLine{itemID: m.state.nextID, userID: userID, productID: productID, quantity: quantity})
}

func (m *memStore) addAddress(id, userID int64) {
	m.state.addresses[id] = userID
}

func (m *memStore) setStatus(orderID int64, st Status) {
	o := m.state.orders[orderID]
	o.Status = st
	m.state.orders[orderID] = o
}

func (m *memStore) cartLines(userID int64) []memLine {
	var out []memLine
	for _, l := range m.state.lines {
		if l.userID == userID {
			out = append(out, l)
		}
	}
	return out
}

func (m *memStore) InTx(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.state.clone()
	if err := fn(&memTx{s: &m.state, decremented: &m.decremented}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *memStore) ListByUser(_ context.Context, userID int64) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.state.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) ListAll(_ context.Context, status Status, p paginate.Page) ([]Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.state.orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	start := min(p.Offset(), len(out))
	end := min(start+p.Limit(), len(out))
	return out[start:end], total, nil
}

func (m *memStore) Get(_ context.Context, orderID int64) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.state.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

type memTx struct {
	s           *memState
	decremented *[]int64
}

func (t *memTx) CartLinesForUpdate(_ context.Context, userID int64) ([]CartLine, error) {
	var out []CartLine
	for _, l := range t.s.lines {
		if l.userID != userID {
			continue
		}
		p := t.s.products[l.productID]
		out = append(out, CartLine{ItemID: l.itemID, ProductID: l.productID, ProductName: p.name,
			Price: p.price, Discount: p.discount, Quantity: l.quantity})
	}
	return out, nil
}

func (t *memTx) AddressBelongsTo(_ context.Context, addressID, userID int64) (bool, error) {
	owner, ok := t.s.addresses[addressID]
	return ok && owner == userID, nil
}

func (t *memTx) DecrementStock(_ context.Context, productID int64, quantity int) (bool, error) {
	*t.decremented = append(*t.decremented, productID)
	p, ok := t.s.products[productID]
	if !ok || p.stock < quantity {
		return false, nil
	}
	p.stock -= quantity
	t.s.products[productID] = p
	return true, nil
}

func (t *memTx) RestockItems(_ context.Context, orderID int64) error {
	for _, it := range t.s.orders[orderID].Items {
		if it.ProductID == nil {
			continue
		}
		p := t.s.products[*it.ProductID]
		p.stock += it.Quantity
		t.s.products[*it.ProductID] = p
	}
	return nil
}

func (t *memTx) InsertOrder(_ context.Context, o *Order) error {
	t.s.nextID++
	o.ID = t.s.nextID
	t.s.orders[o.ID] = *o
	return nil
}

func (t *memTx) InsertItems(_ context.Context, orderID int64, items []Item) error {
	o := t.s.orders[orderID]
	for i := range items {
		t.s.nextID++
		items[i].ID = t.s.nextID
		items[i].OrderID = orderID
	}
	o.Items = slices.Clone(items)
	t.s.orders[orderID] = o
	return nil
}

func (t *memTx) DeleteCartItems(_ context.Context, itemIDs []int64) error {
	t.s.lines = slices.DeleteFunc(t.s.lines, func(l memLine) bool {
		return slices.Contains(itemIDs, l.itemID)
	})
	return nil
}

func (t *memTx) LockOrder(_ context.Context, orderID int64) (Order, error) {
	o, ok := t.s.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (t *memTx) SetStatus(_ context.Context, orderID int64, status Status) error {
	o := t.s.orders[orderID]
	o.Status = status
	t.s.orders[orderID] = o
	return nil
}

func (t *memTx) SetShippingAddress(_ context.Context, orderID, addressID int64) error {
	o := t.s.orders[orderID]
	o.ShippingAddressID = &addressID
	t.s.orders[orderID] = o
	return nil
}

type recordedEvent struct {
	topic string
	key   string
	event any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{topic: topic, key: key, event: event})
	return f.err
}

type fakeFeed struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeFeed) Broadcast(event string, _ any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}
