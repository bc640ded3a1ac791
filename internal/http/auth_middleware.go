package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"

	jwtpkg "github.com/alimagdye/product-management-api/pkg/jwt"
)

type authContextKey string

type authInfo struct {
	UserID   string
	Username string
}

const contextKeyAuth authContextKey = "changelog-auth-info"

type contextSetter interface {
	SetContext(context.Context)
}

// requireAuth is the access gate in front of every protected route. It
// verifies the bearer token on each request independently; there is no
// session state, no retry, and a rejection is final for that request.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, _, ok := r.ensureAuth(w, req)
		if !ok {
			return
		}
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

// ensureAuth validates the Authorization header and enriches the context with
// the verified claims. Rejections are differentiated: a missing header, an
// empty token, an expired token, a tampered token and any other verification
// failure each get their own 401 message.
func (r *Router) ensureAuth(w http.ResponseWriter, req *http.Request) (context.Context, authInfo, bool) {
	header := req.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		r.logger.Warn("authorization header missing or malformed", "path", req.URL.Path)
		writeError(w, http.StatusUnauthorized, "No authorization token provided")
		return req.Context(), authInfo{}, false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		r.logger.Warn("bearer token empty", "path", req.URL.Path)
		writeError(w, http.StatusUnauthorized, "Token missing")
		return req.Context(), authInfo{}, false
	}
	claims, err := jwtpkg.Parse(token, r.cfg.JWTSecret)
	if err != nil {
		r.logger.Warn("token verification failed", "error", err, "path", req.URL.Path)
		switch {
		case errors.Is(err, jwtlib.ErrTokenExpired):
			writeError(w, http.StatusUnauthorized, "Token expired")
		case errors.Is(err, jwtlib.ErrTokenMalformed),
			errors.Is(err, jwtlib.ErrTokenSignatureInvalid),
			errors.Is(err, jwtlib.ErrTokenUnverifiable):
			writeError(w, http.StatusUnauthorized, "Invalid token")
		default:
			writeError(w, http.StatusUnauthorized, "Authorization failed")
		}
		return req.Context(), authInfo{}, false
	}
	info := authInfo{UserID: claims.UserID, Username: claims.Username}
	ctx := context.WithValue(req.Context(), contextKeyAuth, info)
	return ctx, info, true
}

// authInfoFromContext extracts auth metadata from context.
func authInfoFromContext(ctx context.Context) (authInfo, bool) {
	value := ctx.Value(contextKeyAuth)
	if value == nil {
		return authInfo{}, false
	}
	info, ok := value.(authInfo)
	return info, ok
}
