package auth

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"storefront-service/internal/apperr"
)

type ctxKey int

const ClaimsKey ctxKey = 1

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Cookie names carrying the tokens.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

var ErrInvalidToken = fmt.Errorf("%w: invalid or expired token", apperr.ErrUnauthorized)

type Claims struct {
	jwt.RegisteredClaims
	Username  string   `json:"username"`
	Roles     []string `json:"roles"`
	TokenType string   `json:"token_type"`
}

func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// UserID parses the subject back into the numeric user id.
func (c Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed subject", apperr.ErrUnauthorized)
	}
	return id, nil
}

type TokenPair struct {
	Access        string    `json:"access_token"`
	Refresh       string    `json:"refresh_token"`
	AccessExpiry  time.Time `json:"-"`
	RefreshExpiry time.Time `json:"-"`
}

// Keys signs and verifies HS256 tokens with a shared secret.
type Keys struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewKeys(secret, issuer string, accessTTL, refreshTTL time.Duration) (*Keys, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	return &Keys{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

func (k *Keys) RefreshTTL() time.Duration {
	return k.refreshTTL
}

// IssuePair creates an access and a refresh token for the user.
func (k *Keys) IssuePair(userID int64, username string, roles []string) (TokenPair, error) {
	access, accessExp, err := k.issue(userID, username, roles, TokenAccess, k.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := k.issue(userID, username, roles, TokenRefresh, k.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh, AccessExpiry: accessExp, RefreshExpiry: refreshExp}, nil
}

// IssueAccess creates only an access token, used when exchanging a refresh token.
func (k *Keys) IssueAccess(c Claims) (string, time.Time, error) {
	id, err := c.UserID()
	if err != nil {
		return "", time.Time{}, err
	}
	return k.issue(id, c.Username, c.Roles, TokenAccess, k.accessTTL)
}

func (k *Keys) issue(userID int64, username string, roles []string, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := k.now()
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    k.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Username:  username,
		Roles:     roles,
		TokenType: tokenType,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing %s token: %w", tokenType, err)
	}
	return signed, exp, nil
}

// ValidateToken parses tokenStr and checks signature, expiry and token type.
func (k *Keys) ValidateToken(tokenStr, tokenType string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return k.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(k.issuer),
		jwt.WithTimeFunc(k.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.TokenType != tokenType {
		return Claims{}, fmt.Errorf("%w: expected %s token", apperr.ErrUnauthorized, tokenType)
	}
	return claims, nil
}
