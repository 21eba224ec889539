package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yihuitong/internal/domain"
	redisstate "yihuitong/internal/infra/state/redis"
	"yihuitong/internal/middleware"
	"yihuitong/internal/navigator"
	"yihuitong/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubIdentifier struct {
	sessions map[string]*domain.Session
	err      error
}

func (s *stubIdentifier) Identify(_ context.Context, token string) (*domain.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	if session, ok := s.sessions[token]; ok {
		return session, nil
	}
	return nil, service.ErrUnauthenticated
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuth(t *testing.T) {
	session := &domain.Session{ID: "s1", Identity: domain.Identity{DisplayName: "张三", Email: "zhang@example.com"}}
	identifier := &stubIdentifier{sessions: map[string]*domain.Session{"good": session}}

	router := gin.New()
	router.GET("/private", middleware.Auth(identifier), func(c *gin.Context) {
		got, ok := middleware.SessionFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"name": got.Identity.DisplayName})
	})

	tests := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"Bearer 头", "/private", "Bearer good", http.StatusOK},
		{"查询参数", "/private?token=good", "", http.StatusOK},
		{"缺少 token", "/private", "", http.StatusUnauthorized},
		{"无效 token", "/private", "Bearer bad", http.StatusUnauthorized},
		{"格式错误的头", "/private?token=good", "Token good", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, middleware.MsgLoginRequired, body["error"])
				assert.Equal(t, navigator.PathLogin, body["redirect"])
			} else {
				assert.Equal(t, "张三", body["name"])
			}
		})
	}
}

func TestAuth_StorageError(t *testing.T) {
	router := gin.New()
	router.GET("/private", middleware.Auth(&stubIdentifier{err: service.ErrInternalServer}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private?token=x", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	identifier := &stubIdentifier{sessions: map[string]*domain.Session{"good": {ID: "s1"}}}
	router := gin.New()
	router.GET("/open", middleware.OptionalAuth(identifier), func(c *gin.Context) {
		_, ok := middleware.SessionFrom(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})

	for token, want := range map[string]bool{"good": true, "bad": false, "": false} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open?token="+token, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, decode(t, w)["authenticated"], "token %q", token)
	}
}

func TestRateLimit_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := redisstate.NewRedisRateLimiter(client, "t:")

	router := gin.New()
	router.Use(middleware.RateLimit(limiter, 2, time.Second))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	mr.FastForward(2 * time.Second)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimit_LimiterError(t *testing.T) {
	router := gin.New()
	router.Use(middleware.RateLimit(failingLimiter{}, 1, time.Second))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimit_PanicsOnBadConfig(t *testing.T) {
	assert.Panics(t, func() { middleware.RateLimit(nil, 1, time.Second) })
	assert.Panics(t, func() { middleware.RateLimit(failingLimiter{}, 0, time.Second) })
	assert.Panics(t, func() { middleware.RateLimit(failingLimiter{}, 1, 0) })
}

func TestErrorBoundary_IsolatesRouteGroups(t *testing.T) {
	router := gin.New()
	broken := router.Group(navigator.PathMeetingRecord, middleware.ErrorBoundary(navigator.PathMeetingRecord))
	broken.GET("", func(c *gin.Context) { panic("render failed") })
	healthy := router.Group(navigator.PathJoinMeeting, middleware.ErrorBoundary(navigator.PathJoinMeeting))
	healthy.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/meeting-record", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, middleware.MsgPageError, body["error"])
	assert.Equal(t, "P-MEETING-RECORD", body["pageId"])
	assert.Equal(t, "/meeting-record", body["pathname"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/join-meeting", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

type recordingReporter struct {
	mu      sync.Mutex
	changes []navigator.PathChange
	err     error
}

func (r *recordingReporter) Report(_ context.Context, change navigator.PathChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change)
	return r.err
}

func TestReportPath(t *testing.T) {
	reporter := &recordingReporter{}
	router := gin.New()
	router.GET("/meeting-room", middleware.ReportPath(reporter, nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/meeting-room?roomNumber=1234&role=host&token=secret", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, reporter.changes, 1)
	change := reporter.changes[0]
	assert.Equal(t, navigator.PathChangeType, change.Type)
	assert.Equal(t, "P-MEETING-ROOM", change.PageID)
	assert.Equal(t, "/meeting-room", change.Pathname)
	assert.Equal(t, "?roomNumber=1234&role=host", change.Search)
}

func TestReportPath_StripsTokenKeepingOrder(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"roomNumber=1234&role=host", "?roomNumber=1234&role=host"},
		{"token=secret&roomNumber=1234&role=host", "?roomNumber=1234&role=host"},
		{"role=participant&token=secret&roomNumber=5678", "?role=participant&roomNumber=5678"},
		{"to%6Ben=secret&roomNumber=1234", "?roomNumber=1234"},
		{"token=secret", ""},
		{"", ""},
	}
	for _, tt := range tests {
		reporter := &recordingReporter{}
		router := gin.New()
		router.GET("/meeting-room", middleware.ReportPath(reporter, nil), func(c *gin.Context) { c.Status(http.StatusOK) })

		target := "/meeting-room"
		if tt.query != "" {
			target += "?" + tt.query
		}
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))

		require.Len(t, reporter.changes, 1, tt.query)
		assert.Equal(t, tt.want, reporter.changes[0].Search, tt.query)
	}
}

func TestReportPath_ReportsFaultingScreen(t *testing.T) {
	reporter := &recordingReporter{}
	router := gin.New()
	group := router.Group("/meeting-room", middleware.ErrorBoundary("/meeting-room"), middleware.ReportPath(reporter, nil))
	group.GET("", func(c *gin.Context) { panic("render failed") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/meeting-room?roomNumber=1234", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, reporter.changes, 1)
	assert.Equal(t, "P-MEETING-ROOM", reporter.changes[0].PageID)
	assert.Equal(t, "?roomNumber=1234", reporter.changes[0].Search)
}

func TestReportPath_FailureDoesNotFailRequest(t *testing.T) {
	reporter := &recordingReporter{err: errors.New("publish failed")}
	router := gin.New()
	router.GET("/login", middleware.ReportPath(reporter, nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, reporter.changes, 1)
}

func TestReportPath_PublishesToRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	publisher := redisstate.NewRedisPathPublisher(client, "t:")

	sub := client.Subscribe(context.Background(), publisher.Channel())
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	router := gin.New()
	router.GET("/join-meeting", middleware.ReportPath(publisher, nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/join-meeting", nil))

	select {
	case msg := <-sub.Channel():
		var change navigator.PathChange
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &change))
		assert.Equal(t, "P-JOIN-MEETING", change.PageID)
		assert.Equal(t, "", change.Search)
	case <-time.After(2 * time.Second):
		t.Fatal("path change was not published")
	}
}
