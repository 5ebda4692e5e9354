package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// fakeToken implements Token
type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier implements Verifier
type fakeVerifier struct{}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	switch raw {
	case "goodtoken":
		return &fakeToken{data: map[string]interface{}{"sub": "user1", "email": "test@example.com"}}, nil
	case "admintoken":
		return &fakeToken{data: map[string]interface{}{"sub": "admin1", "email": "admin@example.com", "role": "admin"}}, nil
	case "nosub":
		return &fakeToken{data: map[string]interface{}{"email": "x@example.com"}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rw := httptest.NewRecorder()

	g.GET("/", AuthMiddleware(&fakeVerifier{}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_InvalidHeader(t *testing.T) {
	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "BadHeader")
	rw := httptest.NewRecorder()

	g.GET("/", AuthMiddleware(&fakeVerifier{}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_ValidTokenAttachesPrincipal(t *testing.T) {
	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer goodtoken")
	rw := httptest.NewRecorder()

	g.GET("/", AuthMiddleware(&fakeVerifier{}), func(c *gin.Context) {
		p := PrincipalFromContext(c.Request.Context())
		require.NotNil(t, p)
		c.JSON(http.StatusOK, gin.H{"user": p.UserID, "email": p.Email, "role": p.Role})
	})
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusOK, rw.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Equal(t, "user1", got["user"])
	require.Equal(t, "test@example.com", got["email"])
	require.Equal(t, "user", got["role"])
}

func TestAuthMiddleware_RejectsTokenWithoutSubject(t *testing.T) {
	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nosub")
	rw := httptest.NewRecorder()

	g.GET("/", AuthMiddleware(&fakeVerifier{}), func(c *gin.Context) { c.Status(http.StatusOK) })
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestRequireRole(t *testing.T) {
	g := gin.New()
	g.GET("/admin", AuthMiddleware(&fakeVerifier{}), RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, tc := range []struct {
		token string
		want  int
	}{
		{"goodtoken", http.StatusForbidden},
		{"admintoken", http.StatusOK},
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+tc.token)
		rw := httptest.NewRecorder()
		g.ServeHTTP(rw, req)
		require.Equal(t, tc.want, rw.Code, tc.token)
	}
}

func TestOptionalAuth(t *testing.T) {
	g := gin.New()
	g.GET("/", OptionalAuth(&fakeVerifier{}), func(c *gin.Context) {
		if p := CurrentPrincipal(c); p != nil {
			c.String(http.StatusOK, p.UserID)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, "anonymous", rw.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer badtoken")
	rw = httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, "anonymous", rw.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer goodtoken")
	rw = httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, "user1", rw.Body.String())
}

func TestAuthMiddleware_QueryTokenOnlyForWebsocket(t *testing.T) {
	g := gin.New()
	g.GET("/stream", AuthMiddleware(&fakeVerifier{}), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentPrincipal(c).UserID)
	})

	req := httptest.NewRequest(http.MethodGet, "/stream?access_token=goodtoken", nil)
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, http.StatusUnauthorized, rw.Code)

	req = httptest.NewRequest(http.MethodGet, "/stream?access_token=goodtoken", nil)
	req.Header.Set("Upgrade", "websocket")
	rw = httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, http.StatusOK, rw.Code)
	require.Equal(t, "user1", rw.Body.String())
}
