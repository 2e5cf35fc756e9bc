package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/cart"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

type addItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	// Quantity defaults to cart.DefaultQuantity when omitted.
	Quantity *int `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity" validate:"required"`
}

func (h *Handler) GetCart(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	resp, err := h.carts.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		fail(c, "An error occurred while retrieving the cart.", err)
		return
	}
	respond(c, http.StatusOK, "Cart retrieved successfully.", resp)
}

func (h *Handler) CartItems(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	items, err := h.carts.Items(c.Request.Context(), userID)
	if err != nil {
		fail(c, "An error occurred while retrieving cart items.", err)
		return
	}
	respond(c, http.StatusOK, "Cart items retrieved successfully.", items)
}

func (h *Handler) AddToCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	var req addItemRequest
	if err := h.bind(c, &req); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	quantity := cart.DefaultQuantity
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item, err := h.carts.AddItem(c.Request.Context(), userID, req.ProductID, quantity)
	if err != nil {
		fail(c, "Failed to add product to cart.", err)
		return
	}

	slog.Info("product added to cart", slog.String(logkey.TraceID, traceId),
		slog.Int64("ProductID", req.ProductID), slog.Int("Quantity", quantity), slog.Int64(logkey.UserID, userID))
	respond(c, http.StatusCreated, "Product added to cart successfully.", item)
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Cart item not found.", err)
		return
	}
	var req quantityRequest
	if err := h.bind(c, &req); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	item, err := h.carts.UpdateItemQuantity(c.Request.Context(), userID, id, req.Quantity)
	if err != nil {
		fail(c, "Failed to update cart item.", err)
		return
	}
	respond(c, http.StatusOK, "Cart item updated successfully.", item)
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Cart item not found.", err)
		return
	}
	if err := h.carts.RemoveItem(c.Request.Context(), userID, id); err != nil {
		fail(c, "Failed to remove cart item.", err)
		return
	}
	respond(c, http.StatusOK, "Item removed from cart.", nil)
}

func (h *Handler) ClearCart(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		fail(c, "Failed to clear cart.", err)
		return
	}
	respond(c, http.StatusOK, "Cart cleared.", nil)
}
