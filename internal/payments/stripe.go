package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway builds a gateway on its own client so the global stripe.Key stays untouched.
// backends may be nil to talk to the live API.
func NewStripeGateway(secretKey, webhookSecret string, backends *stripe.Backends) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}, nil
}

func (g *StripeGateway) CreateOrder(ctx context.Context, in Intent) (GatewayOrder, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.AmountMinor),
		Currency: stripe.String(strings.ToLower(in.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", strconv.FormatInt(in.OrderID, 10))
	params.AddMetadata("user_id", strconv.FormatInt(in.UserID, 10))
	params.AddMetadata("receipt", in.Receipt)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return GatewayOrder{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// Verify asks stripe for the intent; only a succeeded intent whose latest charge matches
// gatewayPaymentID is accepted. Stripe does not sign client confirmations, so signature is unused.
func (g *StripeGateway) Verify(ctx context.Context, gatewayOrderID, gatewayPaymentID, _ string) error {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(gatewayOrderID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == 404 {
			return ErrSignatureMismatch
		}
		return fmt.Errorf("failed to retrieve payment intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("%w: payment intent is %s", ErrSignatureMismatch, pi.Status)
	}
	if gatewayPaymentID != "" && pi.LatestCharge != nil && pi.LatestCharge.ID != gatewayPaymentID {
		return ErrSignatureMismatch
	}
	return nil
}

// WebhookPayment is a successful payment reported by a stripe webhook.
type WebhookPayment struct {
	IntentID string
	ChargeID string
}

// ParseWebhook checks the Stripe-Signature header and extracts a succeeded payment intent.
// ok is false for event types that need no action.
func (g *StripeGateway) ParseWebhook(payload []byte, signatureHeader string) (WebhookPayment, bool, error) {
	if g.webhookSecret == "" {
		return WebhookPayment{}, false, errors.New("stripe webhook secret is not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return WebhookPayment{}, false, fmt.Errorf("%w: %s", ErrSignatureMismatch, err.Error())
	}
	if event.Type != stripe.EventTypePaymentIntentSucceeded {
		return WebhookPayment{}, false, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return WebhookPayment{}, false, fmt.Errorf("failed to decode payment intent: %w", err)
	}
	wp := WebhookPayment{IntentID: pi.ID}
	if pi.LatestCharge != nil {
		wp.ChargeID = pi.LatestCharge.ID
	}
	return wp, true, nil
}
