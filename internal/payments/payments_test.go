package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperr"
	"storefront-service/internal/orders"
	"storefront-service/internal/stores/kafka"
)

type fixture struct {
	store    *memStore
	gateway  *fakeGateway
	events   *fakePublisher
	notifier *fakeNotifier
	svc      *Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		store:    newMemStore(),
		gateway:  &fakeGateway{},
		events:   &fakePublisher{},
		notifier: &fakeNotifier{},
	}
	svc, err := NewService(f.store, "inr",
		WithGateway(MethodRazorpay, f.gateway),
		WithEvents(f.events),
		WithStatusNotifier(f.notifier))
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestCashOnDeliveryConfirmsOrder(t *testing.T) {
	f := newFixture(t)
	f.store.addOrder(1, 7, "250.00", orders.StatusPending)

	created, err := f.svc.Create(context.Background(), 7, NewPayment{OrderID: 1, Method: "cod"})
	require.NoError(t, err)

	assert.Equal(t, MethodCOD, created.Payment.Method)
	assert.Equal(t, StatusPending, created.Payment.Status)
	assert.True(t, created.Payment.Amount.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, int64(25000), created.AmountMinor)
	assert.Equal(t, "INR", created.Currency)
	assert.Empty(t, created.GatewayOrderID)

	assert.Equal(t, orders.StatusConfirmed, f.store.order(1).Status)
	require.Len(t, f.notifier.changes, 1)
	assert.Equal(t, statusChange{orderID: 1, from: orders.StatusPending, to: orders.StatusConfirmed}, f.notifier.changes[0])
	assert.Empty(t, f.gateway.created)
}

func TestCreateRejects(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*memStore)
		userID int64
		input  NewPayment
		want   error
	}{
		{
			name:   "unknown method",
			setup:  func(m *memStore) { m.addOrder(1, 7, "10", orders.StatusPending) },
			userID: 7,
			input:  NewPayment{OrderID: 1, Method: "paypal"},
			want:   apperr.ErrValidation,
		},
		{
			name:   "method without gateway",
			setup:  func(m *memStore) { m.addOrder(1, 7, "10", orders.StatusPending) },
			userID: 7,
			input:  NewPayment{OrderID: 1, Method: "stripe"},
			want:   ErrMethodDisabled,
		},
		{
			name:   "missing order",
			setup:  func(*memStore) {},
			userID: 7,
			input:  NewPayment{OrderID: 1, Method: "cod"},
			want:   apperr.ErrNotFound,
		},
		{
			name:   "order of another user",
			setup:  func(m *memStore) { m.addOrder(1, 8, "10", orders.StatusPending) },
			userID: 7,
			input:  NewPayment{OrderID: 1, Method: "cod"},
			want:   apperr.ErrNotFound,
		},
		{
			name:   "order not pending",
			setup:  func(m *memStore) { m.addOrder(1, 7, "10", orders.StatusCancelled) },
			userID: 7,
			input:  NewPayment{OrderID: 1, Method: "razorpay"},
			want:   apperr.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f.store)
			_, err := f.svc.Create(context.Background(), tt.userID, tt.input)
			assert.ErrorIs(t, err, tt.want)
			_, ok := f.store.payment(1)
			assert.False(t, ok)
		})
	}
}

func TestSecondPaymentConflicts(t *testing.T) {
	f := newFixture(t)
	f.store.addOrder(1, 7, "99.99", orders.StatusPending)

	_, err := f.svc.Create(context.Background(), 7, NewPayment{OrderID: 1, Method: "razorpay"})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), 7, NewPayment{OrderID: 1, Method: "razorpay"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Len(t, f.gateway.created, 1)
}

func TestGatewayPaymentFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.addOrder(1, 7, "99.99", orders.StatusPending)

	created, err := f.svc.Create(ctx, 7, NewPayment{OrderID: 1, Method: "razorpay"})
	require.NoError(t, err)
	assert.Equal(t, "gw_order_1", created.GatewayOrderID)
	assert.Equal(t, int64(9999), created.AmountMinor)
	require.Len(t, f.gateway.created, 1)
	assert.Equal(t, "INR", f.gateway.created[0].Currency)
	assert.Equal(t, orders.StatusPending, f.store.order(1).Status)

	t.Run("tampered signature fails the payment", func(t *testing.T) {
		_, err := f.svc.Verify(ctx, 7, Verification{GatewayOrderID: "gw_order_1", GatewayPaymentID: "pay_1", Signature: "forged"})
		assert.ErrorIs(t, err, ErrSignatureMismatch)

		p, _ := f.store.payment(1)
		assert.Equal(t, StatusFailed, p.Status)
		assert.Equal(t, orders.StatusPending, f.store.order(1).Status)
		assert.Empty(t, f.events.events)
	})

	t.Run("other users cannot verify", func(t *testing.T) {
		_, err := f.svc.Verify(ctx, 8, Verification{GatewayOrderID: "gw_order_1", GatewayPaymentID: "pay_1", Signature: "ok"})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("valid signature completes and confirms", func(t *testing.T) {
		p, err := f.svc.Verify(ctx, 7, Verification{GatewayOrderID: "gw_order_1", GatewayPaymentID: "pay_1", Signature: "ok"})
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, p.Status)
		require.NotNil(t, p.GatewayPaymentID)
		assert.Equal(t, "pay_1", *p.GatewayPaymentID)
		assert.Equal(t, orders.StatusConfirmed, f.store.order(1).Status)

		require.Len(t, f.events.events, 1)
		assert.Equal(t, kafka.TopicPaymentCompleted, f.events.events[0].topic)
		assert.Equal(t, "1", f.events.events[0].key)
		ev := f.events.events[0].event.(kafka.PaymentCompletedEvent)
		assert.Equal(t, "pay_1", ev.GatewayPaymentID)
		assert.True(t, ev.Amount.Equal(decimal.RequireFromString("99.99")))
	})

	t.Run("second verification conflicts", func(t *testing.T) {
		_, err := f.svc.Verify(ctx, 7, Verification{GatewayOrderID: "gw_order_1", GatewayPaymentID: "pay_1", Signature: "ok"})
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("get returns the payment to its owner only", func(t *testing.T) {
		p, err := f.svc.Get(ctx, 7, 1)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, p.Status)

		_, err = f.svc.Get(ctx, 8, 1)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestCompleteByGatewayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.addOrder(1, 7, "10", orders.StatusPending)
	_, err := f.svc.Create(ctx, 7, NewPayment{OrderID: 1, Method: "razorpay"})
	require.NoError(t, err)

	require.NoError(t, f.svc.CompleteByGateway(ctx, "gw_order_1", "ch_1"))
	require.NoError(t, f.svc.CompleteByGateway(ctx, "gw_order_1", "ch_1"))

	p, _ := f.store.payment(1)
	assert.Equal(t, StatusCompleted, p.Status)
	assert.Equal(t, orders.StatusConfirmed, f.store.order(1).Status)
	assert.Len(t, f.events.events, 1)
	assert.Len(t, f.notifier.changes, 1)

	assert.ErrorIs(t, f.svc.CompleteByGateway(ctx, "unknown", ""), apperr.ErrNotFound)
}

func TestCompleteRequiresPendingOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.addOrder(1, 7, "10", orders.StatusPending)
	_, err := f.svc.Create(ctx, 7, NewPayment{OrderID: 1, Method: "razorpay"})
	require.NoError(t, err)
	f.store.addOrder(1, 7, "10", orders.StatusCancelled)

	_, err = f.svc.Verify(ctx, 7, Verification{GatewayOrderID: "gw_order_1", GatewayPaymentID: "pay_1", Signature: "ok"})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	p, _ := f.store.payment(1)
	assert.Equal(t, StatusPending, p.Status)
}

func TestCashOnDeliveryRollsBackTogether(t *testing.T) {
	f := newFixture(t)
	f.store.addOrder(1, 7, "250.00", orders.StatusPending)
	f.store.failOn = "SetOrderStatus"

	_, err := f.svc.Create(context.Background(), 7, NewPayment{OrderID: 1, Method: "cod"})
	require.ErrorIs(t, err, errStoreFailure)

	_, found := f.store.payment(1)
	assert.False(t, found)
	assert.Equal(t, orders.StatusPending, f.store.order(1).Status)
	assert.Empty(t, f.notifier.changes)

	f.store.failOn = ""
	_, err = f.svc.Create(context.Background(), 7, NewPayment{OrderID: 1, Method: "cod"})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusConfirmed, f.store.order(1).Status)
}

func TestCompleteRollsBackTogether(t *testing.T) {
	for _, step := range []string{"UpdatePayment", "SetOrderStatus"} {
		t.Run(step, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			f.store.addOrder(1, 7, "10", orders.StatusPending)
			_, err := f.svc.Create(ctx, 7, NewPayment{OrderID: 1, Method: "razorpay"})
			require.NoError(t, err)

			f.store.failOn = step
			_, err = f.svc.Verify(ctx, 7, Verification{GatewayOrderID: "gw_order_1", GatewayPaymentID: "pay_1", Signature: "ok"})
			require.ErrorIs(t, err, errStoreFailure)

			p, found := f.store.payment(1)
			require.True(t, found)
			assert.Equal(t, StatusPending, p.Status)
			assert.Nil(t, p.GatewayPaymentID)
			assert.Equal(t, orders.StatusPending, f.store.order(1).Status)
			assert.Empty(t, f.events.events)
			assert.Empty(t, f.notifier.changes)

			f.store.failOn = ""
			require.NoError(t, f.svc.CompleteByGateway(ctx, "gw_order_1", "pay_1"))
			p, _ = f.store.payment(1)
			assert.Equal(t, StatusCompleted, p.Status)
			assert.Equal(t, orders.StatusConfirmed, f.store.order(1).Status)
		})
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(25000), MinorUnits(decimal.NewFromInt(250)))
	assert.Equal(t, int64(1999), MinorUnits(decimal.RequireFromString("19.99")))
	assert.Equal(t, int64(1), MinorUnits(decimal.RequireFromString("0.005")))
}

func TestParseMethod(t *testing.T) {
	for _, s := range []string{"cod", "razorpay", "stripe"} {
		m, err := ParseMethod(s)
		require.NoError(t, err)
		assert.Equal(t, Method(s), m)
	}
	_, err := ParseMethod("COD")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRazorpayVerify(t *testing.T) {
	const secret = "rzp_test_secret"
	g, err := NewRazorpayGateway("rzp_test_key", secret)
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("order_1|pay_1"))
	signature := hex.EncodeToString(mac.Sum(nil))

	ctx := context.Background()
	assert.NoError(t, g.Verify(ctx, "order_1", "pay_1", signature))
	assert.ErrorIs(t, g.Verify(ctx, "order_1", "pay_2", signature), ErrSignatureMismatch)
	assert.ErrorIs(t, g.Verify(ctx, "order_1", "pay_1", ""), ErrSignatureMismatch)

	_, err = NewRazorpayGateway("", secret)
	assert.Error(t, err)
}
