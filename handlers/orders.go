package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/orders"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
	"storefront-service/pkg/paginate"
)

func (h *Handler) CreateOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	var no orders.NewOrder
	if err := h.bind(c, &no); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	o, err := h.orders.Create(c.Request.Context(), userID, no)
	if err != nil {
		fail(c, "Failed to create order.", err)
		return
	}
	slog.Info("order created", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.OrderID, o.ID), slog.Int64(logkey.UserID, userID))
	respond(c, http.StatusCreated, "Order created successfully.", o)
}

func (h *Handler) ListOrders(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	list, err := h.orders.List(c.Request.Context(), userID)
	if err != nil {
		fail(c, "An error occurred while listing orders.", err)
		return
	}
	respond(c, http.StatusOK, "Orders retrieved successfully.", list)
}

func (h *Handler) GetOrder(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Order not found.", err)
		return
	}
	o, err := h.orders.Get(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, "Order not found.", err)
		return
	}
	respond(c, http.StatusOK, "Order retrieved successfully.", o)
}

// UpdateOrder changes only the shipping address.
func (h *Handler) UpdateOrder(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Order not found.", err)
		return
	}
	var req orders.ShippingUpdate
	if err := h.bind(c, &req); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	o, err := h.orders.UpdateShippingAddress(c.Request.Context(), userID, id, req.ShippingAddressID)
	if err != nil {
		fail(c, "Failed to update order.", err)
		return
	}
	respond(c, http.StatusOK, "Order updated successfully.", o)
}

func (h *Handler) CancelOrder(c *gin.Context) {
	h.ownerTransition(c, "Order cancelled successfully.", "Failed to cancel order.", h.orders.Cancel)
}

func (h *Handler) ReturnOrder(c *gin.Context) {
	h.ownerTransition(c, "Return initiated successfully.", "Failed to initiate return.", h.orders.InitiateReturn)
}

func (h *Handler) ownerTransition(c *gin.Context, okMsg, failMsg string,
	apply func(ctx context.Context, userID, orderID int64) (orders.Order, error)) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Order not found.", err)
		return
	}
	o, err := apply(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, failMsg, err)
		return
	}
	respond(c, http.StatusOK, okMsg, o)
}

func (h *Handler) AdminListOrders(c *gin.Context) {
	var status orders.Status
	if s := c.Query("status"); s != "" {
		st, err := orders.ParseStatus(s)
		if err != nil {
			fail(c, "Invalid status.", err)
			return
		}
		status = st
	}
	page := paginate.FromQuery(c.Request.URL.Query())
	list, total, err := h.orders.ListAll(c.Request.Context(), status, page)
	if err != nil {
		fail(c, "An error occurred while listing orders.", err)
		return
	}
	respond(c, http.StatusOK, "Orders retrieved successfully.", paginate.NewResult(list, total, page, c.Request.URL))
}

func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Order not found.", err)
		return
	}
	var req orders.StatusUpdate
	if err := h.bind(c, &req); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	to, err := orders.ParseStatus(req.Status)
	if err != nil {
		fail(c, "Invalid status.", err)
		return
	}
	o, err := h.orders.Advance(c.Request.Context(), id, to)
	if err != nil {
		fail(c, "Failed to update order status.", err)
		return
	}
	respond(c, http.StatusOK, "Order status updated successfully.", o)
}
