package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()
	utils.InitJWT("middleware-test-secret", time.Hour)
	os.Exit(m.Run())
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	ok := func(c *gin.Context) {
		uid, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"user": uid, "role": CurrentRole(c)})
	}
	r.GET("/booking", AuthRequired(), ok)
	admin := r.Group("/", AuthRequired(), RequireCapability(models.CapAdmin))
	admin.GET("/admin-dashboard", ok)
	return r
}

func tokenFor(t *testing.T, id uint, role models.Role) string {
	t.Helper()
	token, err := utils.GenerateToken(id, string(role))
	require.NoError(t, err)
	return token
}

func TestAuthRequiredRedirectsToLogin(t *testing.T) {
	r := protectedRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/booking", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?next=%2Fbooking", w.Header().Get("Location"))
}

func TestAuthRequiredAcceptsCookieAndBearer(t *testing.T) {
	r := protectedRouter()
	token := tokenFor(t, 7, models.RoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/booking", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":7,"role":"customer"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/booking", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	r := protectedRouter()
	token := tokenFor(t, 8, models.RoleCustomer)
	claims, err := utils.ParseToken(token)
	require.NoError(t, err)
	utils.BlacklistToken(context.Background(), claims)

	req := httptest.NewRequest(http.MethodGet, "/booking", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestAdminAreaRedirectsNonAdmins(t *testing.T) {
	r := protectedRouter()
	for _, role := range []models.Role{models.RoleCustomer, models.RoleStaff} {
		req := httptest.NewRequest(http.MethodGet, "/admin-dashboard", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tokenFor(t, 3, role)})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code, role)
		assert.Equal(t, "/login", w.Header().Get("Location"))
		assert.Contains(t, w.Header().Get("Set-Cookie"), "flash=")
	}

	req := httptest.NewRequest(http.MethodGet, "/admin-dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tokenFor(t, 1, models.RoleAdmin)})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterBlocksPerIP(t *testing.T) {
	r := gin.New()
	r.GET("/login", NewStrictRateLimiter(2), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestImagesOnly(t *testing.T) {
	r := gin.New()
	r.GET("/uploads/*filepath", ImagesOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for path, want := range map[string]int{
		"/uploads/menu_images/a.png":  http.StatusOK,
		"/uploads/menu_images/b.JPEG": http.StatusOK,
		"/uploads/.env":               http.StatusNotFound,
		"/uploads/menu_images/x.html": http.StatusNotFound,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}
}

func TestWebSocketOnly(t *testing.T) {
	r := gin.New()
	r.GET("/admin-feed", WebSocketOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin-feed", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
