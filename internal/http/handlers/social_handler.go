// Social HTTP handlers.
//
// This file exposes REST endpoints for interactions on existing posts:
//   - POST   /posts/{id}/like      (idempotent like)
//   - DELETE /posts/{id}/like      (remove like; absent like is a no-op)
//   - POST   /posts/{id}/comments  (append a comment)
//   - GET    /posts/{id}/comments  (list comments, oldest first)
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/services"
)

//
// DTOs
//

// LikeRequest identifies the user performing a like or unlike.
type LikeRequest struct {
	User string `json:"user" binding:"required" example:"bob"`
}

// LikeResponse reports the resulting like state of a post.
type LikeResponse struct {
	PostID     int64 `json:"post_id"`
	LikesCount int64 `json:"likes_count"`
	Liked      bool  `json:"liked"`
}

// CreateCommentRequest is the JSON payload for adding a comment.
type CreateCommentRequest struct {
	User string `json:"user" binding:"required" example:"carol"`
	Text string `json:"text" binding:"required" example:"great shot!"`
}

// CommentResponse is the JSON shape of one comment.
type CommentResponse struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ListCommentsResponse wraps a post's comments and their count.
type ListCommentsResponse struct {
	Comments []CommentResponse `json:"comments"`
	Count    int               `json:"count"`
}

func commentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		User:      c.UserID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

// socialError maps service errors to HTTP responses shared by the social
// endpoints.
func socialError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPostNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
	case errors.Is(err, services.ErrEmptyAuthor), errors.Is(err, services.ErrEmptyComment):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// Handlers
//

// LikePost godoc
// @ID          likePost
// @Summary     Like a post
// @Description Records the user's like. Liking an already liked post is a no-op.
// @Tags        Social
// @Accept      json
// @Produce     json
// @Param       id    path  int                   true  "Post ID"
// @Param       body  body  handlers.LikeRequest  true  "Liking user"
// @Success     200  {object}  handlers.LikeResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id}/like [post]
func (h *Handlers) LikePost(c *gin.Context) {
	id, okID := postID(c)
	if !okID {
		return
	}
	var req LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user is required")
		return
	}

	if _, err := h.social.Like(c.Request.Context(), id, req.User); err != nil {
		socialError(c, err)
		return
	}
	count, liked, err := h.social.LikeInfo(c.Request.Context(), id, req.User)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, LikeResponse{PostID: id, LikesCount: count, Liked: liked})
}

// UnlikePost godoc
// @ID          unlikePost
// @Summary     Remove a like from a post
// @Description Removes the user's like. Removing an absent like is a no-op.
// @Tags        Social
// @Accept      json
// @Produce     json
// @Param       id    path  int                   true  "Post ID"
// @Param       body  body  handlers.LikeRequest  true  "Unliking user"
// @Success     200  {object}  handlers.LikeResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id}/like [delete]
func (h *Handlers) UnlikePost(c *gin.Context) {
	id, okID := postID(c)
	if !okID {
		return
	}
	var req LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user is required")
		return
	}

	if err := h.social.Unlike(c.Request.Context(), id, req.User); err != nil {
		socialError(c, err)
		return
	}
	count, liked, err := h.social.LikeInfo(c.Request.Context(), id, req.User)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, LikeResponse{PostID: id, LikesCount: count, Liked: liked})
}

// CreateComment godoc
// @ID          createComment
// @Summary     Comment on a post
// @Tags        Social
// @Accept      json
// @Produce     json
// @Param       id    path  int                            true  "Post ID"
// @Param       body  body  handlers.CreateCommentRequest  true  "Comment payload"
// @Success     201  {object}  handlers.CommentResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id}/comments [post]
func (h *Handlers) CreateComment(c *gin.Context) {
	id, okID := postID(c)
	if !okID {
		return
	}
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user and text are required")
		return
	}

	comment, err := h.social.Comment(c.Request.Context(), id, req.User, req.Text)
	if err != nil {
		socialError(c, err)
		return
	}
	ok(c, http.StatusCreated, commentResponse(comment))
}

// ListComments godoc
// @ID          listComments
// @Summary     List a post's comments
// @Description Returns all comments on the post, oldest first, with a count.
// @Tags        Social
// @Produce     json
// @Param       id  path  int  true  "Post ID"
// @Success     200  {object}  handlers.ListCommentsResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id}/comments [get]
func (h *Handlers) ListComments(c *gin.Context) {
	id, okID := postID(c)
	if !okID {
		return
	}
	comments, err := h.social.Comments(c.Request.Context(), id)
	if err != nil {
		socialError(c, err)
		return
	}

	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, commentResponse(&comments[i]))
	}
	ok(c, http.StatusOK, ListCommentsResponse{Comments: out, Count: len(out)})
}
