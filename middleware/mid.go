package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/auth"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

type Mid struct {
	keys    *auth.Keys
	revoked auth.Revoker
}

func NewMid(keys *auth.Keys, revoked auth.Revoker) (*Mid, error) {
	if keys == nil {
		return nil, errors.New("auth keys are nil")
	}
	if revoked == nil {
		revoked = auth.NewMemoryRevoker()
	}
	return &Mid{keys: keys, revoked: revoked}, nil
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
		"details": http.StatusText(status),
	})
}

// AccessToken reads the access token from the cookie, falling back to a bearer header.
func AccessToken(c *gin.Context) string {
	if token, err := c.Cookie(auth.AccessCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Authentication rejects requests without a valid, unrevoked access token and puts
// the claims on the request context under auth.ClaimsKey.
func (m *Mid) Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)
		ctx := c.Request.Context()

		token := AccessToken(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		claims, err := m.keys.ValidateToken(token, auth.TokenAccess)
		if err != nil {
			slog.Info("rejected token", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			abort(c, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}

		revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			slog.Error("revocation check failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			abort(c, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if revoked {
			abort(c, http.StatusUnauthorized, "Token has been revoked")
			return
		}

		c.Request = c.Request.WithContext(context.WithValue(ctx, auth.ClaimsKey, claims))
		c.Next()
	}
}

// Authorize runs next only for users holding one of roles.
func (m *Mid) Authorize(next gin.HandlerFunc, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)
		claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
		if !ok {
			slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
			abort(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		for _, role := range roles {
			if claims.HasRole(role) {
				next(c)
				return
			}
		}
		slog.Info("forbidden", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, claims.Subject))
		abort(c, http.StatusForbidden, "You do not have permission to perform this action.")
	}
}
