package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/apperr"
	"storefront-service/internal/payments"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

const maxWebhookBody = 65536

func (h *Handler) CreatePayment(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	var np payments.NewPayment
	if err := h.bind(c, &np); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	created, err := h.payments.Create(c.Request.Context(), userID, np)
	if err != nil {
		fail(c, "Failed to create payment.", err)
		return
	}
	slog.Info("payment created", slog.String(logkey.TraceID, traceId),
		slog.Int64(logkey.OrderID, np.OrderID), slog.String("Method", np.Method))
	respond(c, http.StatusCreated, "Payment created successfully.", created)
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	var v payments.Verification
	if err := h.bind(c, &v); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	p, err := h.payments.Verify(c.Request.Context(), userID, v)
	if err != nil {
		fail(c, "Payment verification failed.", err)
		return
	}
	respond(c, http.StatusOK, "Payment verified successfully.", p)
}

// GetPayment looks the payment up by its order id.
func (h *Handler) GetPayment(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	orderID, err := idParam(c, "id")
	if err != nil {
		fail(c, "Payment not found.", err)
		return
	}
	p, err := h.payments.Get(c.Request.Context(), userID, orderID)
	if err != nil {
		fail(c, "Payment not found.", err)
		return
	}
	respond(c, http.StatusOK, "Payment retrieved successfully.", p)
}

func (h *Handler) StripeWebhook(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	if h.stripe == nil {
		fail(c, "Stripe is not enabled.", fmt.Errorf("%w: stripe webhooks are not configured", apperr.ErrNotFound))
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		fail(c, "Invalid payload.", fmt.Errorf("%w: %s", apperr.ErrValidation, err.Error()))
		return
	}
	wp, ok, err := h.stripe.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if !errors.Is(err, apperr.ErrValidation) {
			err = fmt.Errorf("%w: %s", apperr.ErrValidation, err.Error())
		}
		fail(c, "Invalid webhook.", err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.payments.CompleteByGateway(c.Request.Context(), wp.IntentID, wp.ChargeID); err != nil {
		fail(c, "Failed to complete payment.", err)
		return
	}
	slog.Info("stripe payment completed", slog.String(logkey.TraceID, traceId), slog.String("IntentID", wp.IntentID))
	c.JSON(http.StatusOK, gin.H{"received": true})
}
