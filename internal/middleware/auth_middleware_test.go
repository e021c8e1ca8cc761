package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"farmhub/internal/middleware"
	"farmhub/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func setupAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := middleware.NewAuthMiddleware()

	r := gin.New()
	r.GET("/me", auth.RequireLogin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": middleware.CurrentUserID(c)})
	})
	r.GET("/admin", auth.RequireLogin(), auth.RequirePlatformAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doRequest(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequireLogin_AcceptsIssuedToken(t *testing.T) {
	r := setupAuthRouter()

	token, err := jwt.GetJWTManager().GenerateToken("u1", "t1", "alice", false)
	require.NoError(t, err)

	w := doRequest(r, "/me", token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "u1")
}

func TestRequireLogin_RejectsMissingToken(t *testing.T) {
	r := setupAuthRouter()

	w := doRequest(r, "/me", "")
	require.Contains(t, w.Body.String(), `"code":401`)
}

func TestRequireLogin_RejectsMalformedToken(t *testing.T) {
	r := setupAuthRouter()

	w := doRequest(r, "/me", "not-a-jwt")
	require.Contains(t, w.Body.String(), `"code":401`)
}

func TestRequirePlatformAdmin_ForbidsRegularUser(t *testing.T) {
	r := setupAuthRouter()

	token, err := jwt.GetJWTManager().GenerateToken("u1", "t1", "alice", false)
	require.NoError(t, err)

	w := doRequest(r, "/admin", token)
	require.Contains(t, w.Body.String(), `"code":403`)
}

func TestRequirePlatformAdmin_AllowsPlatformAdmin(t *testing.T) {
	r := setupAuthRouter()

	token, err := jwt.GetJWTManager().GenerateToken("admin1", "", "root", true)
	require.NoError(t, err)

	w := doRequest(r, "/admin", token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "true")
}
