// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, and security headers.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tbourn/go-social-backend/internal/config"
	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/http/handlers"
	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/media"
	"github.com/tbourn/go-social-backend/internal/queue"
	"github.com/tbourn/go-social-backend/internal/repo"
	"github.com/tbourn/go-social-backend/internal/services"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// postRepoShim adapts the repository free functions to the services.PostRepo
// interface expected by the PostService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type postRepoShim struct{}

// CreatePost proxies repo.CreatePost.
func (postRepoShim) CreatePost(ctx context.Context, db *gorm.DB, author, text, image string, window time.Duration, now time.Time) (*domain.Post, time.Duration, error) {
	return repo.CreatePost(ctx, db, author, text, image, window, now)
}

// GetPost proxies repo.GetPost.
func (postRepoShim) GetPost(ctx context.Context, db *gorm.DB, id int64) (*domain.Post, error) {
	return repo.GetPost(ctx, db, id)
}

// GetAllPosts proxies repo.GetAllPosts.
func (postRepoShim) GetAllPosts(ctx context.Context, db *gorm.DB) ([]domain.Post, error) {
	return repo.GetAllPosts(ctx, db)
}

// GetLatestPost proxies repo.GetLatestPost.
func (postRepoShim) GetLatestPost(ctx context.Context, db *gorm.DB) (*domain.Post, error) {
	return repo.GetLatestPost(ctx, db)
}

// SearchPostsByUser proxies repo.SearchPostsByUser.
func (postRepoShim) SearchPostsByUser(ctx context.Context, db *gorm.DB, user string) ([]domain.Post, error) {
	return repo.SearchPostsByUser(ctx, db, user)
}

// SearchPostsByText proxies repo.SearchPostsByText.
func (postRepoShim) SearchPostsByText(ctx context.Context, db *gorm.DB, query string) ([]domain.Post, error) {
	return repo.SearchPostsByText(ctx, db, query)
}

// SearchPostsByTag proxies repo.SearchPostsByTag.
func (postRepoShim) SearchPostsByTag(ctx context.Context, db *gorm.DB, tag string) ([]domain.Post, error) {
	return repo.SearchPostsByTag(ctx, db, tag)
}

// AttachTags proxies repo.AttachTags.
func (postRepoShim) AttachTags(ctx context.Context, db *gorm.DB, postID int64, names []string) error {
	return repo.AttachTags(ctx, db, postID, names)
}

// ListTags proxies repo.ListTags.
func (postRepoShim) ListTags(ctx context.Context, db *gorm.DB, postID int64) ([]string, error) {
	return repo.ListTags(ctx, db, postID)
}

// ListPostsWithoutSentiment proxies repo.ListPostsWithoutSentiment.
func (postRepoShim) ListPostsWithoutSentiment(ctx context.Context, db *gorm.DB) ([]domain.Post, error) {
	return repo.ListPostsWithoutSentiment(ctx, db)
}

// DeleteAllPosts proxies repo.DeleteAllPosts.
func (postRepoShim) DeleteAllPosts(ctx context.Context, db *gorm.DB) error {
	return repo.DeleteAllPosts(ctx, db)
}

// socialRepoShim adapts the repository free functions to the
// services.SocialRepo interface expected by the SocialService.
type socialRepoShim struct{}

// GetPost proxies repo.GetPost.
func (socialRepoShim) GetPost(ctx context.Context, db *gorm.DB, id int64) (*domain.Post, error) {
	return repo.GetPost(ctx, db, id)
}

// AddLike proxies repo.AddLike.
func (socialRepoShim) AddLike(ctx context.Context, db *gorm.DB, postID int64, user string, now time.Time) (bool, error) {
	return repo.AddLike(ctx, db, postID, user, now)
}

// RemoveLike proxies repo.RemoveLike.
func (socialRepoShim) RemoveLike(ctx context.Context, db *gorm.DB, postID int64, user string) error {
	return repo.RemoveLike(ctx, db, postID, user)
}

// CountLikes proxies repo.CountLikes.
func (socialRepoShim) CountLikes(ctx context.Context, db *gorm.DB, postID int64) (int64, error) {
	return repo.CountLikes(ctx, db, postID)
}

// IsLiked proxies repo.IsLiked.
func (socialRepoShim) IsLiked(ctx context.Context, db *gorm.DB, postID int64, user string) (bool, error) {
	return repo.IsLiked(ctx, db, postID, user)
}

// AddComment proxies repo.AddComment.
func (socialRepoShim) AddComment(ctx context.Context, db *gorm.DB, postID int64, user, text string, now time.Time) (*domain.Comment, error) {
	return repo.AddComment(ctx, db, postID, user, text, now)
}

// ListComments proxies repo.ListComments.
func (socialRepoShim) ListComments(ctx context.Context, db *gorm.DB, postID int64) ([]domain.Comment, error) {
	return repo.ListComments(ctx, db, postID)
}

// CountComments proxies repo.CountComments.
func (socialRepoShim) CountComments(ctx context.Context, db *gorm.DB, postID int64) (int64, error) {
	return repo.CountComments(ctx, db, postID)
}

// cooldownRepoShim adapts repo.GetCooldown to the services.CooldownRepo
// interface expected by the CooldownGate.
type cooldownRepoShim struct{}

// GetCooldown proxies repo.GetCooldown.
func (cooldownRepoShim) GetCooldown(ctx context.Context, db *gorm.DB, author string) (*domain.Cooldown, error) {
	return repo.GetCooldown(ctx, db, author)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), CORS and security
// headers, health and metrics endpoints, the static media area, and then
// mounts the public API under the configured base path.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip compression
//  8. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, pub queue.Publisher, replies *queue.Replies, store *media.Store, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (8 MiB, uploads included)
	r.Use(limitBody(8 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Response compression (skip the media area, images are already compressed)
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/uploads"})))

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Retry-After"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Static media area (originals and generated thumbnails)
	r.Static("/uploads", store.Root())

	// Dependency injection: services ← repo/db/queue/media
	postSvc := services.NewPostService(db, postRepoShim{}, pub, store, cfg.CooldownWindow)
	socialSvc := services.NewSocialService(db, socialRepoShim{})
	enrichSvc := services.NewEnrichService(pub, replies, cfg.Queue.RPCTimeout)
	gate := services.NewCooldownGate(db, cooldownRepoShim{}, cfg.CooldownWindow)

	h := handlers.New(postSvc, socialSvc, enrichSvc, gate, store)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api"
	api := groupWithPrefix(r, apiBase)
	{
		// Posts
		api.POST("/posts", h.CreatePost)
		api.GET("/posts", h.ListPosts)
		api.DELETE("/posts", h.ResetPosts)
		api.GET("/posts/latest", h.LatestPost)
		api.GET("/posts/search", h.SearchPosts)
		api.GET("/posts/timer/:user", h.PostTimer)
		api.GET("/posts/:id", h.GetPost)

		// Social
		api.POST("/posts/:id/like", h.LikePost)
		api.DELETE("/posts/:id/like", h.UnlikePost)
		api.POST("/posts/:id/comments", h.CreateComment)
		api.GET("/posts/:id/comments", h.ListComments)

		// Media
		api.POST("/upload", h.UploadImage)

		// Enrichment
		api.POST("/translate", h.Translate)
		api.POST("/generate", h.Generate)

		// Health under the API prefix as well
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
