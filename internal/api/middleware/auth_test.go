package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/api/middleware"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret"

func authedRouter(handler gin.HandlerFunc, mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", mw, handler)
	return router
}

func echoActor(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no actor"})
		return
	}
	c.JSON(http.StatusOK, actor)
}

func TestAuth_RoundTrip(t *testing.T) {
	actor := domain.Actor{ID: 7, Name: "Grace Wanjiru", Role: domain.RolePharmacist, BranchID: 2}

	token, err := middleware.IssueToken(testSecret, actor, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	router := authedRouter(echoActor, middleware.Auth(testSecret))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
}

func TestAuth_RejectsBadTokens(t *testing.T) {
	router := authedRouter(echoActor, middleware.Auth(testSecret))

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", tc.name, rec.Code)
		}
	}
}

func TestAuth_RejectsTokenSignedWithWrongSecret(t *testing.T) {
	token, err := middleware.IssueToken("some-other-secret", domain.Actor{ID: 1}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	router := authedRouter(echoActor, middleware.Auth(testSecret))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_RejectsExpiredToken(t *testing.T) {
	token, err := middleware.IssueToken(testSecret, domain.Actor{ID: 1}, -time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	router := authedRouter(echoActor, middleware.Auth(testSecret))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestDeviceAuth_AcceptsDeviceTokenAndUserToken(t *testing.T) {
	const deviceToken = "shared-device-key"
	router := authedRouter(echoActor, middleware.DeviceAuth(testSecret, deviceToken))

	// Device token yields the synthetic device actor.
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+deviceToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("device token status = %d, want 200", rec.Code)
	}

	// A regular user JWT still passes.
	userToken, err := middleware.IssueToken(testSecret, domain.Actor{ID: 3, Role: domain.RoleCashier}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("user token status = %d, want 200", rec.Code)
	}

	// An empty configured device token must not turn into a free pass.
	open := authedRouter(echoActor, middleware.DeviceAuth(testSecret, ""))
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec = httptest.NewRecorder()
	open.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("empty device token status = %d, want 401", rec.Code)
	}
}
