package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/apperr"
	"storefront-service/internal/auth"
	"storefront-service/internal/users"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

type credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type deleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

func (h *Handler) setAuthCookies(c *gin.Context, pair auth.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.AccessCookie, pair.Access, maxAge(pair.AccessExpiry), "/", "", h.secureCookies, true)
	if pair.Refresh != "" {
		c.SetCookie(auth.RefreshCookie, pair.Refresh, maxAge(pair.RefreshExpiry), "/", "", h.secureCookies, true)
	}
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.AccessCookie, "", -1, "/", "", h.secureCookies, true)
	c.SetCookie(auth.RefreshCookie, "", -1, "/", "", h.secureCookies, true)
}

func maxAge(exp time.Time) int {
	return max(int(time.Until(exp).Seconds()), 0)
}

func (h *Handler) issueFor(c *gin.Context, u users.User) (auth.TokenPair, error) {
	pair, err := h.keys.IssuePair(u.ID, u.Username, u.Roles())
	if err != nil {
		return auth.TokenPair{}, err
	}
	h.setAuthCookies(c, pair)
	return pair, nil
}

func (h *Handler) Register(c *gin.Context) {
	var nu users.NewUser
	if err := h.bind(c, &nu); err != nil {
		fail(c, "Username or email cannot be empty.", err)
		return
	}

	u, err := h.accounts.InsertUser(c.Request.Context(), nu)
	if err != nil {
		fail(c, "An error occurred while registering the user.", err)
		return
	}
	pair, err := h.issueFor(c, u)
	if err != nil {
		fail(c, "An error occurred while registering the user.", err)
		return
	}

	slog.Info("user registered", slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)), slog.Int64(logkey.UserID, u.ID))
	respond(c, http.StatusCreated, "User registered successfully.", gin.H{"user": u, "tokens": pair})
}

func (h *Handler) Login(c *gin.Context) {
	var req credentials
	if err := h.bind(c, &req); err != nil {
		fail(c, "Username and password are required.", err)
		return
	}

	u, err := h.accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, "Invalid credentials.", err)
		return
	}
	pair, err := h.issueFor(c, u)
	if err != nil {
		fail(c, "An error occurred during login.", err)
		return
	}
	respond(c, http.StatusOK, "Login successful.", gin.H{"user": u, "tokens": pair})
}

// refreshToken reads the refresh token from its cookie or the request body.
func refreshToken(c *gin.Context) string {
	if token, err := c.Cookie(auth.RefreshCookie); err == nil && token != "" {
		return token
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

// Logout revokes the presented access token and, when present, the refresh token.
func (h *Handler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	claims, err := claimsOf(c)
	if err != nil {
		fail(c, "An error occurred during logout.", err)
		return
	}

	if err := h.revoker.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		fail(c, "An error occurred during logout.", err)
		return
	}
	if token := refreshToken(c); token != "" {
		if rc, err := h.keys.ValidateToken(token, auth.TokenRefresh); err == nil {
			if err := h.revoker.Revoke(ctx, rc.ID, time.Until(rc.ExpiresAt.Time)); err != nil {
				fail(c, "An error occurred during logout.", err)
				return
			}
		}
	}

	h.clearAuthCookies(c)
	respond(c, http.StatusOK, "Logout successful.", nil)
}

// Refresh exchanges a valid refresh token for a new access token.
func (h *Handler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()
	token := refreshToken(c)
	if token == "" {
		fail(c, "Refresh token is required.", fmt.Errorf("%w: refresh token missing", apperr.ErrUnauthorized))
		return
	}

	claims, err := h.keys.ValidateToken(token, auth.TokenRefresh)
	if err != nil {
		fail(c, "Invalid refresh token.", err)
		return
	}
	revoked, err := h.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		fail(c, "An error occurred while refreshing the token.", err)
		return
	}
	if revoked {
		fail(c, "Invalid refresh token.", fmt.Errorf("%w: token has been revoked", apperr.ErrUnauthorized))
		return
	}

	access, exp, err := h.keys.IssueAccess(claims)
	if err != nil {
		fail(c, "An error occurred while refreshing the token.", err)
		return
	}
	h.setAuthCookies(c, auth.TokenPair{Access: access, AccessExpiry: exp})
	respond(c, http.StatusOK, "Token refreshed.", gin.H{"access_token": access})
}

func (h *Handler) Profile(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	u, err := h.accounts.GetUser(c.Request.Context(), userID)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	respond(c, http.StatusOK, "User profile retrieved.", u)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	var uu users.UpdateUser
	if err := h.bind(c, &uu); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	u, err := h.accounts.UpdateUser(c.Request.Context(), userID, uu)
	if err != nil {
		fail(c, "An error occurred while updating the profile.", err)
		return
	}
	respond(c, http.StatusOK, "User successfully updated.", u)
}

func (h *Handler) DeleteProfile(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	var req deleteAccountRequest
	if err := h.bind(c, &req); err != nil {
		fail(c, "Password is required.", err)
		return
	}
	if err := h.accounts.DeleteUser(c.Request.Context(), userID, req.Password); err != nil {
		msg := "An error occurred while deleting the user account."
		if errors.Is(err, apperr.ErrUnauthorized) {
			msg = "Incorrect password."
		}
		fail(c, msg, err)
		return
	}
	h.clearAuthCookies(c)
	respond(c, http.StatusOK, "User account successfully deleted.", nil)
}

func (h *Handler) ListAddresses(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	list, err := h.accounts.ListAddresses(c.Request.Context(), userID)
	if err != nil {
		fail(c, "An error occurred while listing addresses.", err)
		return
	}
	respond(c, http.StatusOK, "Addresses retrieved.", list)
}

func (h *Handler) CreateAddress(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	var na users.NewAddress
	if err := h.bind(c, &na); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	a, err := h.accounts.InsertAddress(c.Request.Context(), userID, na)
	if err != nil {
		fail(c, "An error occurred while creating the address.", err)
		return
	}
	respond(c, http.StatusCreated, "Address successfully created.", a)
}

func (h *Handler) GetAddress(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Address not found.", err)
		return
	}
	a, err := h.accounts.GetAddress(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, "Address not found.", err)
		return
	}
	respond(c, http.StatusOK, "Address retrieved.", a)
}

func (h *Handler) UpdateAddress(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Address not found.", err)
		return
	}
	var na users.NewAddress
	if err := h.bind(c, &na); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	a, err := h.accounts.UpdateAddress(c.Request.Context(), userID, id, na)
	if err != nil {
		fail(c, "An error occurred while updating the address.", err)
		return
	}
	respond(c, http.StatusOK, "Address successfully updated.", a)
}

func (h *Handler) DeleteAddress(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Address not found.", err)
		return
	}
	if err := h.accounts.DeleteAddress(c.Request.Context(), userID, id); err != nil {
		fail(c, "An error occurred while deleting the address.", err)
		return
	}
	respond(c, http.StatusOK, "Address successfully deleted.", nil)
}
