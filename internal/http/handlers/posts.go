package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pribylovaa/techblog/internal/auth"
	apierrors "github.com/pribylovaa/techblog/internal/http/errors"
	"github.com/pribylovaa/techblog/internal/models"
)

type postResponse struct {
	Message string       `json:"message,omitempty"`
	Post    *models.Post `json:"post"`
}

// ListPosts - GET /api/posts?page=&limit=&category=&published=.
// Фильтр published учитывается только для админа.
func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := models.PostFilter{
		Category: q.Get("category"),
		Page:     atoiOr(q.Get("page"), 1),
		Limit:    atoiOr(q.Get("limit"), 0),
	}
	if v := q.Get("published"); v != "" {
		published := v == "true"
		filter.Published = &published
	}

	page, err := h.svc.ListPosts(r.Context(), filter, auth.IsAdmin(r.Context()))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// GetPost - GET /api/posts/{id}.
func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.GetPost(r.Context(), chi.URLParam(r, "id"), auth.IsAdmin(r.Context()))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, postResponse{Post: post})
}

// CreatePost - POST /api/posts (admin).
func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in models.Post
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	post, err := h.svc.CreatePost(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, postResponse{Message: "Post created successfully", Post: post})
}

// UpdatePost - PUT /api/posts/{id} (admin), частичное обновление.
func (h *Handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var in models.PostUpdate
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	post, err := h.svc.UpdatePost(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, postResponse{Message: "Post updated successfully", Post: post})
}

// DeletePost - DELETE /api/posts/{id} (admin).
func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Post deleted successfully"})
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
