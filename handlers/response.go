package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/apperr"
	"storefront-service/internal/auth"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

var errNoClaims = fmt.Errorf("%w: authentication credentials were not provided", apperr.ErrUnauthorized)

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// fail writes the error envelope with the status err maps to.
func fail(c *gin.Context, message string, err error) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error(message, slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	} else {
		slog.Info(message, slog.String(logkey.TraceID, traceId), slog.Int("Status", status), slog.String(logkey.ERROR, err.Error()))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
		"details": err.Error(),
	})
}

func claimsOf(c *gin.Context) (auth.Claims, error) {
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		return auth.Claims{}, errNoClaims
	}
	return claims, nil
}

func userIDOf(c *gin.Context) (int64, error) {
	claims, err := claimsOf(c)
	if err != nil {
		return 0, err
	}
	return claims.UserID()
}

func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", apperr.ErrValidation, name)
	}
	return id, nil
}

// bind decodes the JSON body into dst and runs its validate tags.
func (h *Handler) bind(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %s", apperr.ErrValidation, err.Error())
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrValidation, err.Error())
	}
	return nil
}
