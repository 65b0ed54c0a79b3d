package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims reelgen expects in a bearer token. Subject is
// the user id.
type TokenClaims struct {
	Email  string `json:"email,omitempty"`
	Locale string `json:"locale,omitempty"`
	jwt.RegisteredClaims
}

type identityKey struct{}

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
}

// SignToken issues an HS256 token for subject. A zero ttl means no expiry.
func SignToken(secret, issuer, subject, email string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is required")
	}
	now := time.Now()
	claims := TokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			Issuer:   issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyToken parses and validates an HS256 token.
func VerifyToken(secret, issuer, token string) (*TokenClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// AuthJWT rejects requests without a valid bearer token and stores the
// caller's Identity in the request context.
func AuthJWT(secret, issuer string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing authorization")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid authorization")
				return
			}
			claims, err := VerifyToken(secret, issuer, strings.TrimSpace(parts[1]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid token")
				return
			}
			ctx := ContextWithIdentity(r.Context(), Identity{UserID: claims.Subject, Email: claims.Email})
			if claims.Locale != "" && r.Header.Get("X-Locale") == "" {
				r.Header.Set("X-Locale", claims.Locale)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func IdentityFromContext(ctx context.Context) Identity {
	if v, ok := ctx.Value(identityKey{}).(Identity); ok {
		return v
	}
	return Identity{}
}

func UserIDFromContext(ctx context.Context) string {
	return IdentityFromContext(ctx).UserID
}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	if strings.TrimSpace(id.UserID) == "" {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, id)
}
