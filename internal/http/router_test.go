package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-social-backend/internal/config"
	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/media"
	"github.com/tbourn/go-social-backend/internal/queue"
)

var routerDBSeq atomic.Int64

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:routerdb%d?mode=memory&cache=shared", routerDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// schema so handlers don't explode on list endpoints
	if err := db.AutoMigrate(&domain.Post{}, &domain.Like{}, &domain.Comment{}, &domain.Tag{}, &domain.Cooldown{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestStore(t *testing.T) *media.Store {
	t.Helper()
	store, err := media.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("media store: %v", err)
	}
	return store
}

func testConfig(origins []string) config.Config {
	return config.Config{
		APIBasePath:    "/api",
		CORS:           config.CORSConfig{AllowedOrigins: origins},
		Security:       config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
		Queue:          config.QueueConfig{RPCTimeout: time.Second},
		CooldownWindow: time.Hour,
	}
}

func newTestRouter(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	RegisterRoutes(r, db, queue.NewMemory(16), queue.NewReplies(), newTestStore(t), cfg)
	return r, db
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(nil)) // nil origins triggers AllowAllOrigins branch

	// /health works
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || len(w.Body.Bytes()) == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (PUT /api/posts)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/posts", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("PUT /api/posts expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	r, _ := newTestRouter(t, testConfig([]string{"http://example.com"}))

	// Any request runs through CORS middleware; header should reflect origin.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestRegisterRoutes_PostLifecycle(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(nil))

	// Create a post through the full stack.
	body := bytes.NewBufferString(`{"user":"alice","text":"hello #world"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/posts = %d body=%s", w.Code, w.Body.String())
	}
	var created struct {
		ID   int64    `json:"id"`
		User string   `json:"user"`
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	if created.ID == 0 || created.User != "alice" {
		t.Fatalf("unexpected create response: %+v", created)
	}

	// A second post inside the cooldown window is rate limited.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewBufferString(`{"user":"alice","text":"again"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second post expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("429 response missing Retry-After header")
	}

	// Fetch it back.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/posts/%d", created.ID), nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/posts/%d = %d", created.ID, w.Code)
	}

	// Like it, then list comments (empty).
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/posts/%d/like", created.ID), bytes.NewBufferString(`{"user":"bob"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("like = %d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/posts/%d/comments", created.ID), nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("comments = %d", w.Code)
	}

	// Timer for an author inside the window.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/posts/timer/alice", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("timer = %d", w.Code)
	}
	var timer struct {
		CanPost          bool `json:"can_post"`
		SecondsRemaining int  `json:"seconds_remaining"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &timer); err != nil {
		t.Fatalf("decode timer: %v", err)
	}
	if timer.CanPost || timer.SecondsRemaining <= 0 {
		t.Fatalf("expected active cooldown, got %+v", timer)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })

	// non-root prefix
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	// Hit all three
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/one", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "one" {
		t.Fatalf("GET /one got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/two", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "two" {
		t.Fatalf("GET /two got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("GET /api/ping got %d %q", rec.Code, rec.Body.String())
	}
}

// Smoke test that a request traverses otel + logging + gzip + security headers pipeline.
func TestPipeline_Smoke(t *testing.T) {
	cfg := testConfig(nil)
	cfg.Security = config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: time.Hour} // enabled (but only set on https)
	r, _ := newTestRouter(t, cfg)

	// Any request goes through the middleware stack
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	// simulate https so HSTS could be eligible if middleware checks scheme
	req.URL.Scheme = "https"
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("pipeline GET /health = %d", w.Code)
	}
	// RequestID header should be present (from RequestID middleware)
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
}

func Test_postRepoShim_Proxies(t *testing.T) {
	db := newTestDB(t)

	shim := postRepoShim{}
	ctx := context.Background()

	// --- CreatePost ---
	p1, _, err := shim.CreatePost(ctx, db, "u1", "first #go", "", 0, time.Now().UTC())
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if p1 == nil || p1.ID == 0 || p1.Author != "u1" {
		t.Fatalf("CreatePost returned bad post: %+v", p1)
	}

	// --- GetPost ---
	got, err := shim.GetPost(ctx, db, p1.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.ID != p1.ID {
		t.Fatalf("GetPost mismatch: got id=%d want %d", got.ID, p1.ID)
	}

	// --- GetAllPosts / GetLatestPost ---
	if _, _, err := shim.CreatePost(ctx, db, "u2", "second", "", 0, time.Now().UTC()); err != nil {
		t.Fatalf("CreatePost second: %v", err)
	}
	all, err := shim.GetAllPosts(ctx, db)
	if err != nil {
		t.Fatalf("GetAllPosts: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("GetAllPosts expected 2, got %d", len(all))
	}
	latest, err := shim.GetLatestPost(ctx, db)
	if err != nil {
		t.Fatalf("GetLatestPost: %v", err)
	}
	if latest.Author != "u2" {
		t.Fatalf("GetLatestPost expected u2, got %q", latest.Author)
	}

	// --- Search variants ---
	byUser, err := shim.SearchPostsByUser(ctx, db, "u1")
	if err != nil || len(byUser) != 1 {
		t.Fatalf("SearchPostsByUser: %v len=%d", err, len(byUser))
	}
	byText, err := shim.SearchPostsByText(ctx, db, "FIRST")
	if err != nil || len(byText) != 1 {
		t.Fatalf("SearchPostsByText: %v len=%d", err, len(byText))
	}

	// --- Tags ---
	if err := shim.AttachTags(ctx, db, p1.ID, []string{"go"}); err != nil {
		t.Fatalf("AttachTags: %v", err)
	}
	tags, err := shim.ListTags(ctx, db, p1.ID)
	if err != nil || len(tags) != 1 || tags[0] != "go" {
		t.Fatalf("ListTags: %v tags=%v", err, tags)
	}
	byTag, err := shim.SearchPostsByTag(ctx, db, "GO")
	if err != nil || len(byTag) != 1 {
		t.Fatalf("SearchPostsByTag: %v len=%d", err, len(byTag))
	}

	// --- Sentiment backfill source / reset ---
	missing, err := shim.ListPostsWithoutSentiment(ctx, db)
	if err != nil || len(missing) != 2 {
		t.Fatalf("ListPostsWithoutSentiment: %v len=%d", err, len(missing))
	}
	if err := shim.DeleteAllPosts(ctx, db); err != nil {
		t.Fatalf("DeleteAllPosts: %v", err)
	}
	if rest, _ := shim.GetAllPosts(ctx, db); len(rest) != 0 {
		t.Fatalf("expected empty table after reset, got %d", len(rest))
	}
}

func Test_socialRepoShim_Proxies(t *testing.T) {
	db := newTestDB(t)

	posts := postRepoShim{}
	shim := socialRepoShim{}
	ctx := context.Background()
	now := time.Now().UTC()

	p, _, err := posts.CreatePost(ctx, db, "author", "a post", "", 0, now)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	added, err := shim.AddLike(ctx, db, p.ID, "fan", now)
	if err != nil || !added {
		t.Fatalf("AddLike: added=%v err=%v", added, err)
	}
	liked, err := shim.IsLiked(ctx, db, p.ID, "fan")
	if err != nil || !liked {
		t.Fatalf("IsLiked: liked=%v err=%v", liked, err)
	}
	n, err := shim.CountLikes(ctx, db, p.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountLikes: n=%d err=%v", n, err)
	}
	if err := shim.RemoveLike(ctx, db, p.ID, "fan"); err != nil {
		t.Fatalf("RemoveLike: %v", err)
	}

	cm, err := shim.AddComment(ctx, db, p.ID, "fan", "nice", now)
	if err != nil || cm.ID == 0 {
		t.Fatalf("AddComment: %+v err=%v", cm, err)
	}
	list, err := shim.ListComments(ctx, db, p.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListComments: %v len=%d", err, len(list))
	}
	cn, err := shim.CountComments(ctx, db, p.ID)
	if err != nil || cn != 1 {
		t.Fatalf("CountComments: n=%d err=%v", cn, err)
	}

	if _, err := shim.GetPost(ctx, db, p.ID); err != nil {
		t.Fatalf("GetPost: %v", err)
	}
}

func Test_cooldownRepoShim_Proxies(t *testing.T) {
	db := newTestDB(t)

	shim := cooldownRepoShim{}
	ctx := context.Background()

	if _, err := shim.GetCooldown(ctx, db, "ghost"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}

	if _, _, err := (postRepoShim{}).CreatePost(ctx, db, "known", "text", "", time.Hour, time.Now().UTC()); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	cd, err := shim.GetCooldown(ctx, db, "known")
	if err != nil {
		t.Fatalf("GetCooldown: %v", err)
	}
	if cd.Author != "known" {
		t.Fatalf("GetCooldown author=%q", cd.Author)
	}
}
