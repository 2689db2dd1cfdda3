package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func protectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTMiddleware(secret))
	r.GET("/who", func(c *gin.Context) {
		admin, ok := GetCurrentAdmin(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, admin.Subject)
	})
	return r
}

func call(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddlewareAcceptsValidToken(t *testing.T) {
	token, err := GenerateJWT(AdminSubject, secret, time.Now())
	require.NoError(t, err)

	w := call(protectedRouter(), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, AdminSubject, w.Body.String())
}

func TestJWTMiddlewareRejects(t *testing.T) {
	wrongKey, err := GenerateJWT(AdminSubject, "other", time.Now())
	require.NoError(t, err)
	expired, err := GenerateJWT(AdminSubject, secret, time.Now().Add(-2*TokenTTL))
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":   "",
		"no bearer": "Token abc",
		"garbage":   "Bearer abc.def.ghi",
		"wrong key": "Bearer " + wrongKey,
		"expired":   "Bearer " + expired,
	} {
		t.Run(name, func(t *testing.T) {
			w := call(protectedRouter(), header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("bismillah")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "bismillah"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "bismillah"))
}
