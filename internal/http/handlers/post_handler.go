// Post HTTP handlers.
//
// This file exposes REST endpoints for post resources:
//   - POST   /posts              (create; enforces the author cooldown)
//   - GET    /posts              (list, newest first)
//   - GET    /posts/latest       (most recent post)
//   - GET    /posts/:id          (single post)
//   - GET    /posts/search       (by text, author, or tag)
//   - GET    /posts/timer/:user  (cooldown status)
//   - DELETE /posts              (bulk reset, test/ops path)
//   - POST   /upload             (store an image for later posting)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses. Post JSON uses the
// wire name "user" for the author field.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/queue"
	"github.com/tbourn/go-social-backend/internal/services"
	"github.com/tbourn/go-social-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// PostService defines post lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type PostService interface {
	// Create stores a new post and fans out its enrichment jobs.
	Create(ctx context.Context, author, text, image string, tags []string) (*domain.Post, error)
	// Get returns one post by id.
	Get(ctx context.Context, id int64) (*domain.Post, error)
	// List returns all posts, newest first.
	List(ctx context.Context) ([]domain.Post, error)
	// Latest returns the most recent post.
	Latest(ctx context.Context) (*domain.Post, error)
	// SearchByUser returns posts by exact author match.
	SearchByUser(ctx context.Context, user string) ([]domain.Post, error)
	// SearchByText returns posts containing the query, case-insensitive.
	SearchByText(ctx context.Context, query string) ([]domain.Post, error)
	// SearchByTag returns posts carrying the tag.
	SearchByTag(ctx context.Context, tag string) ([]domain.Post, error)
	// Tags returns a post's tag names.
	Tags(ctx context.Context, postID int64) ([]string, error)
	// Reset wipes all posts.
	Reset(ctx context.Context) error
}

// SocialService defines like and comment operations consumed by HTTP
// handlers.
type SocialService interface {
	// Like records a like; the bool reports whether it was newly added.
	Like(ctx context.Context, postID int64, user string) (bool, error)
	// Unlike removes a like.
	Unlike(ctx context.Context, postID int64, user string) error
	// LikeInfo returns the like count and whether viewer liked the post.
	LikeInfo(ctx context.Context, postID int64, viewer string) (int64, bool, error)
	// Comment appends a comment.
	Comment(ctx context.Context, postID int64, user, text string) (*domain.Comment, error)
	// Comments returns a post's comments, oldest first.
	Comments(ctx context.Context, postID int64) ([]domain.Comment, error)
	// CountComments returns the number of comments on a post.
	CountComments(ctx context.Context, postID int64) (int64, error)
}

// EnrichService defines the synchronous enrichment RPCs.
type EnrichService interface {
	// Translate translates text into the target language.
	Translate(ctx context.Context, text, source, target string) (*queue.TranslateResponse, error)
	// Generate completes a prompt.
	Generate(ctx context.Context, prompt string, maxNewTokens int) (*queue.GenerateResponse, error)
}

// CooldownGate answers posting-cooldown status queries.
type CooldownGate interface {
	// Status reports whether author may post and the remaining wait.
	Status(ctx context.Context, author string) (bool, int, error)
}

// MediaStore persists uploaded images.
type MediaStore interface {
	// SaveUpload stores the upload and returns its public URL.
	SaveUpload(filename string, r io.Reader) (string, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for posts, social interactions, media
// upload, and enrichment RPCs. It depends on abstract service interfaces to
// keep transport concerns separate from business logic.
type Handlers struct {
	posts  PostService
	social SocialService
	enrich EnrichService
	gate   CooldownGate
	media  MediaStore
}

// New constructs a Handlers instance bound to the given services.
func New(posts PostService, social SocialService, enrich EnrichService, gate CooldownGate, media MediaStore) *Handlers {
	return &Handlers{posts: posts, social: social, enrich: enrich, gate: gate, media: media}
}

//
// DTOs
//

// CreatePostRequest is the JSON payload for creating a post.
type CreatePostRequest struct {
	// User is the author's identifier.
	User string `json:"user" example:"alice"`
	// Text is the post body; hashtags inside it become tags.
	Text string `json:"text" example:"sunset at the beach #summer"`
	// Image optionally references a previously uploaded file or external URL.
	Image string `json:"image,omitempty" example:"/uploads/full/3f2a91cc_beach.png"`
	// Tags optionally lists explicit tags, merged with inline hashtags.
	Tags []string `json:"tags,omitempty" example:"summer,beach"`
}

// PostResponse is the JSON shape of a post, including social counters.
type PostResponse struct {
	ID             int64     `json:"id"`
	User           string    `json:"user"`
	Text           string    `json:"text"`
	Image          string    `json:"image,omitempty"`
	Thumbnail      *string   `json:"thumbnail,omitempty"`
	SentimentLabel *string   `json:"sentiment_label,omitempty"`
	SentimentScore *float64  `json:"sentiment_score,omitempty"`
	Tags           []string  `json:"tags"`
	LikesCount     int64     `json:"likes_count"`
	LikedByUser    bool      `json:"liked_by_user"`
	CommentsCount  int64     `json:"comments_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// TimerResponse reports cooldown status for an author.
type TimerResponse struct {
	CanPost          bool `json:"can_post"`
	SecondsRemaining int  `json:"seconds_remaining"`
}

// UploadResponse returns the public URL of a stored image.
type UploadResponse struct {
	URL string `json:"url"`
}

//
// Helpers
//

// postID parses the :id path parameter.
func postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a positive integer")
		return 0, false
	}
	return id, true
}

// hydrate assembles the response shape for one post. Social counters are
// best effort: a failed count degrades to zero rather than failing the read.
func (h *Handlers) hydrate(c *gin.Context, p *domain.Post, viewer string) PostResponse {
	ctx := c.Request.Context()

	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.Name)
	}
	if len(tags) == 0 {
		if names, err := h.posts.Tags(ctx, p.ID); err == nil && len(names) > 0 {
			tags = names
		}
	}

	likes, liked, err := h.social.LikeInfo(ctx, p.ID, viewer)
	if err != nil {
		log.Warn().Err(err).Int64("post_id", p.ID).Msg("like info lookup failed")
	}
	comments, err := h.social.CountComments(ctx, p.ID)
	if err != nil {
		log.Warn().Err(err).Int64("post_id", p.ID).Msg("comment count lookup failed")
	}

	return PostResponse{
		ID:             p.ID,
		User:           p.Author,
		Text:           p.Text,
		Image:          p.Image,
		Thumbnail:      p.Thumbnail,
		SentimentLabel: p.SentimentLabel,
		SentimentScore: p.SentimentScore,
		Tags:           tags,
		LikesCount:     likes,
		LikedByUser:    liked,
		CommentsCount:  comments,
		CreatedAt:      p.CreatedAt,
	}
}

func (h *Handlers) hydrateAll(c *gin.Context, posts []domain.Post, viewer string) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, h.hydrate(c, &posts[i], viewer))
	}
	return out
}

//
// Handlers
//

// CreatePost godoc
// @ID          createPost
// @Summary     Create a new post
// @Description Stores a post, attaches its tags, and enqueues enrichment jobs. One post per author per cooldown window.
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CreatePostRequest  true  "Create post payload"
// @Success     201  {object}  handlers.PostResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     429  {object}  handlers.ErrorResponse  "Posting cooldown active"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /posts [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	p, err := h.posts.Create(c.Request.Context(), req.User, req.Text, strings.TrimSpace(req.Image), req.Tags)
	if err != nil {
		var rl *services.RateLimitedError
		switch {
		case errors.As(err, &rl):
			failRateLimited(c, rl.RetryAfterSeconds())
		case errors.Is(err, services.ErrEmptyAuthor), errors.Is(err, services.ErrEmptyText):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, h.hydrate(c, p, req.User))
}

// maxListLimit caps how many posts one list request may return.
const maxListLimit = 100

// clampLimit parses the optional ?limit= query parameter.
func clampLimit(c *gin.Context) int {
	limit := utils.AtoiDefault(c.Query("limit"), maxListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = maxListLimit
	}
	return limit
}

// ListPosts godoc
// @ID          listPosts
// @Summary     List all posts
// @Description Returns all posts, newest first. Pass ?user= to resolve liked_by_user and ?limit= to cap the page size.
// @Tags        Posts
// @Produce     json
// @Param       user   query  string  false  "Viewer for liked_by_user resolution"
// @Param       limit  query  int     false  "Maximum number of posts (default and cap 100)"
// @Success     200  {array}   handlers.PostResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /posts [get]
func (h *Handlers) ListPosts(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if limit := clampLimit(c); len(posts) > limit {
		posts = posts[:limit]
	}
	ok(c, http.StatusOK, h.hydrateAll(c, posts, c.Query("user")))
}

// LatestPost godoc
// @ID          latestPost
// @Summary     Get the most recent post
// @Tags        Posts
// @Produce     json
// @Success     200  {object}  handlers.PostResponse
// @Failure     404  {object}  handlers.ErrorResponse  "No posts yet"
// @Router      /posts/latest [get]
func (h *Handlers) LatestPost(c *gin.Context) {
	p, err := h.posts.Latest(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no posts yet")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, h.hydrate(c, p, c.Query("user")))
}

// GetPost godoc
// @ID          getPost
// @Summary     Get a post by id
// @Tags        Posts
// @Produce     json
// @Param       id  path  int  true  "Post ID"
// @Success     200  {object}  handlers.PostResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id} [get]
func (h *Handlers) GetPost(c *gin.Context) {
	id, okID := postID(c)
	if !okID {
		return
	}
	p, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, h.hydrate(c, p, c.Query("user")))
}

// SearchPosts godoc
// @ID          searchPosts
// @Summary     Search posts
// @Description Searches by tag (?tag=), author (?user=), or body text (?text=), in that precedence.
// @Tags        Posts
// @Produce     json
// @Param       tag     query  string  false  "Tag name (case-insensitive)"
// @Param       user    query  string  false  "Exact author match"
// @Param       text    query  string  false  "Substring of the post body (q is accepted as an alias)"
// @Param       viewer  query  string  false  "Viewer for liked_by_user resolution"
// @Success     200  {array}   handlers.PostResponse
// @Failure     400  {object}  handlers.ErrorResponse  "No search criterion"
// @Router      /posts/search [get]
func (h *Handlers) SearchPosts(c *gin.Context) {
	ctx := c.Request.Context()

	// "q" survives as an alias for "text" from an earlier client.
	text := c.Query("text")
	if strings.TrimSpace(text) == "" {
		text = c.Query("q")
	}

	var (
		posts []domain.Post
		err   error
	)
	switch {
	case strings.TrimSpace(c.Query("tag")) != "":
		posts, err = h.posts.SearchByTag(ctx, c.Query("tag"))
	case strings.TrimSpace(c.Query("user")) != "":
		posts, err = h.posts.SearchByUser(ctx, c.Query("user"))
	case strings.TrimSpace(text) != "":
		posts, err = h.posts.SearchByText(ctx, text)
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "one of tag, user, or text is required")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, h.hydrateAll(c, posts, c.Query("viewer")))
}

// PostTimer godoc
// @ID          postTimer
// @Summary     Posting cooldown status for an author
// @Tags        Posts
// @Produce     json
// @Param       user  path  string  true  "Author"
// @Success     200  {object}  handlers.TimerResponse
// @Router      /posts/timer/{user} [get]
func (h *Handlers) PostTimer(c *gin.Context) {
	user := strings.TrimSpace(c.Param("user"))
	if user == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user is required")
		return
	}
	can, secs, err := h.gate.Status(c.Request.Context(), user)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, TimerResponse{CanPost: can, SecondsRemaining: secs})
}

// ResetPosts godoc
// @ID          resetPosts
// @Summary     Delete all posts
// @Description Wipes every post (cascading to likes, comments, and tag links) and resets ids. Test/ops path.
// @Tags        Posts
// @Success     204  {string}  string  "No Content"
// @Router      /posts [delete]
func (h *Handlers) ResetPosts(c *gin.Context) {
	if err := h.posts.Reset(c.Request.Context()); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// UploadImage godoc
// @ID          uploadImage
// @Summary     Upload an image
// @Description Stores a multipart image upload under the media area and returns its public URL.
// @Tags        Media
// @Accept      multipart/form-data
// @Produce     json
// @Param       file  formData  file  true  "Image file (jpg, jpeg, png, gif, webp)"
// @Success     201  {object}  handlers.UploadResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing or unsupported file"
// @Router      /upload [post]
func (h *Handlers) UploadImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "multipart field 'file' is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, err.Error())
		return
	}
	defer f.Close()

	url, err := h.media.SaveUpload(fh.Filename, f)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeUploadFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, UploadResponse{URL: url})
}
