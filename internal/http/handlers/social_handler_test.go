package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/services"
)

func TestLikePost_OK(t *testing.T) {
	social := &fakeSocial{
		likeFn: func(_ context.Context, postID int64, user string) (bool, error) {
			if postID != 5 || user != "bob" {
				t.Fatalf("like args: %d %q", postID, user)
			}
			return true, nil
		},
		likeInfoFn: func(_ context.Context, postID int64, viewer string) (int64, bool, error) {
			return 4, true, nil
		},
	}
	r := newHandlerRouter(t, handlerDeps{social: social})

	w := doJSON(t, r, http.MethodPost, "/posts/5/like", `{"user":"bob"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp LikeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.PostID != 5 || resp.LikesCount != 4 || !resp.Liked {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestLikePost_PostNotFound(t *testing.T) {
	social := &fakeSocial{
		likeFn: func(context.Context, int64, string) (bool, error) {
			return false, services.ErrPostNotFound
		},
	}
	r := newHandlerRouter(t, handlerDeps{social: social})

	w := doJSON(t, r, http.MethodPost, "/posts/99/like", `{"user":"bob"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestLikePost_MissingUser(t *testing.T) {
	r := newHandlerRouter(t, handlerDeps{})
	w := doJSON(t, r, http.MethodPost, "/posts/5/like", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestUnlikePost_OK(t *testing.T) {
	var removed bool
	social := &fakeSocial{
		unlikeFn: func(_ context.Context, postID int64, user string) error {
			removed = true
			return nil
		},
		likeInfoFn: func(context.Context, int64, string) (int64, bool, error) {
			return 0, false, nil
		},
	}
	r := newHandlerRouter(t, handlerDeps{social: social})

	w := doJSON(t, r, http.MethodDelete, "/posts/5/like", `{"user":"bob"}`)
	if w.Code != http.StatusOK || !removed {
		t.Fatalf("status=%d removed=%v", w.Code, removed)
	}
	var resp LikeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Liked || resp.LikesCount != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreateComment_Created(t *testing.T) {
	now := time.Now().UTC()
	social := &fakeSocial{
		commentFn: func(_ context.Context, postID int64, user, text string) (*domain.Comment, error) {
			return &domain.Comment{ID: 11, PostID: postID, UserID: user, Text: text, CreatedAt: now}, nil
		},
	}
	r := newHandlerRouter(t, handlerDeps{social: social})

	w := doJSON(t, r, http.MethodPost, "/posts/5/comments", `{"user":"carol","text":"nice"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp CommentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.ID != 11 || resp.PostID != 5 || resp.User != "carol" || resp.Text != "nice" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreateComment_Validation(t *testing.T) {
	r := newHandlerRouter(t, handlerDeps{})

	// missing fields fail binding before the service is reached
	w := doJSON(t, r, http.MethodPost, "/posts/5/comments", `{"user":"carol"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing text: status=%d", w.Code)
	}

	// service-level rejection of blank text
	social := &fakeSocial{
		commentFn: func(context.Context, int64, string, string) (*domain.Comment, error) {
			return nil, services.ErrEmptyComment
		},
	}
	r = newHandlerRouter(t, handlerDeps{social: social})
	w = doJSON(t, r, http.MethodPost, "/posts/5/comments", `{"user":"carol","text":"  "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank text: status=%d", w.Code)
	}
}

func TestCreateComment_PostNotFound(t *testing.T) {
	social := &fakeSocial{
		commentFn: func(context.Context, int64, string, string) (*domain.Comment, error) {
			return nil, services.ErrPostNotFound
		},
	}
	r := newHandlerRouter(t, handlerDeps{social: social})

	w := doJSON(t, r, http.MethodPost, "/posts/99/comments", `{"user":"carol","text":"nice"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestListComments_OldestFirstWithCount(t *testing.T) {
	social := &fakeSocial{
		commentsFn: func(_ context.Context, postID int64) ([]domain.Comment, error) {
			return []domain.Comment{
				{ID: 1, PostID: postID, UserID: "a", Text: "first"},
				{ID: 2, PostID: postID, UserID: "b", Text: "second"},
			}, nil
		},
	}
	r := newHandlerRouter(t, handlerDeps{social: social})

	w := doJSON(t, r, http.MethodGet, "/posts/5/comments", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ListCommentsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Count != 2 || len(resp.Comments) != 2 || resp.Comments[0].Text != "first" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestListComments_PostNotFound(t *testing.T) {
	social := &fakeSocial{
		commentsFn: func(context.Context, int64) ([]domain.Comment, error) {
			return nil, services.ErrPostNotFound
		},
	}
	r := newHandlerRouter(t, handlerDeps{social: social})

	w := doJSON(t, r, http.MethodGet, "/posts/99/comments", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}
