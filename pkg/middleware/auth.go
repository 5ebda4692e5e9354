package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// Principal is the authenticated caller, derived from verified claims.
type Principal struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

func (p *Principal) IsAdmin() bool { return p != nil && p.Role == "admin" }

type principalKey struct{}

const (
	claimsKey    = "claims"
	principalCtx = "principal"
)

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by the auth middleware, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

// CurrentPrincipal returns the principal attached to the gin context, or nil.
func CurrentPrincipal(c *gin.Context) *Principal {
	if v, ok := c.Get(principalCtx); ok {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return PrincipalFromContext(c.Request.Context())
}

// PrincipalFromClaims maps token claims onto a Principal. Returns nil without a subject.
func PrincipalFromClaims(claims map[string]interface{}) *Principal {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil
	}
	p := &Principal{UserID: sub}
	p.Email, _ = claims["email"].(string)
	p.Name, _ = claims["name"].(string)
	p.Role, _ = claims["role"].(string)
	if p.Role == "" {
		p.Role = "user"
	}
	return p
}

func authenticate(c *gin.Context, ver Verifier) (map[string]interface{}, int, string) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		// browsers cannot set headers on websocket handshakes
		if t := c.Query("access_token"); t != "" && strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			auth = "Bearer " + t
		} else {
			return nil, http.StatusUnauthorized, "missing Authorization header"
		}
	}
	// Expect 'Bearer <token>'
	var token string
	if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
		return nil, http.StatusUnauthorized, "invalid Authorization header"
	}
	idToken, err := ver.Verify(c.Request.Context(), token)
	if err != nil {
		return nil, http.StatusUnauthorized, "invalid token"
	}
	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, http.StatusUnauthorized, "failed to parse claims"
	}
	return claims, http.StatusOK, ""
}

func attach(c *gin.Context, claims map[string]interface{}) {
	c.Set(claimsKey, claims)
	if p := PrincipalFromClaims(claims); p != nil {
		c.Set(principalCtx, p)
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
	}
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, status, msg := authenticate(c, ver)
		if status != http.StatusOK {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		attach(c, claims)
		if CurrentPrincipal(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches a principal when a valid Bearer token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ver != nil && c.GetHeader("Authorization") != "" {
			if claims, status, _ := authenticate(c, ver); status == http.StatusOK {
				attach(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRole rejects callers whose principal does not carry the given role.
// Must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CurrentPrincipal(c)
		if p == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if p.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
