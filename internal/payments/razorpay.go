package payments

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

type RazorpayGateway struct {
	client *razorpay.Client
	secret string
}

func NewRazorpayGateway(key, secret string) (*RazorpayGateway, error) {
	if key == "" || secret == "" {
		return nil, errors.New("razorpay key and secret are required")
	}
	return &RazorpayGateway{client: razorpay.NewClient(key, secret), secret: secret}, nil
}

func (g *RazorpayGateway) CreateOrder(_ context.Context, in Intent) (GatewayOrder, error) {
	data := map[string]interface{}{
		"amount":          in.AmountMinor,
		"currency":        in.Currency,
		"receipt":         in.Receipt,
		"payment_capture": 1,
		"notes": map[string]interface{}{
			"order_id": in.OrderID,
			"user_id":  in.UserID,
		},
	}
	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("failed to create razorpay order: %w", err)
	}
	id, ok := body["id"].(string)
	if !ok || id == "" {
		return GatewayOrder{}, errors.New("razorpay order response has no id")
	}
	return GatewayOrder{ID: id}, nil
}

// Verify checks the HMAC signature razorpay returns to the client after checkout.
func (g *RazorpayGateway) Verify(_ context.Context, gatewayOrderID, gatewayPaymentID, signature string) error {
	params := map[string]interface{}{
		"razorpay_order_id":   gatewayOrderID,
		"razorpay_payment_id": gatewayPaymentID,
	}
	if signature == "" || !utils.VerifyPaymentSignature(params, signature, g.secret) {
		return ErrSignatureMismatch
	}
	return nil
}
