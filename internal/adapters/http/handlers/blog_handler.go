package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
	"github.com/anvkup/avnmusicstudio/internal/core/ports"
)

type BlogHandler struct {
	resolver ports.ContentResolver
	siteURL  string
}

func NewBlogHandler(resolver ports.ContentResolver, siteURL string) *BlogHandler {
	return &BlogHandler{resolver: resolver, siteURL: strings.TrimRight(siteURL, "/")}
}

type postAuthor struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Image string `json:"image"`
}

type postResponse struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Date        *string    `json:"date"`
	DisplayDate string     `json:"displayDate"`
	Image       string     `json:"image,omitempty"`
	Author      postAuthor `json:"author"`
	ReadTime    int        `json:"readTime"`
	URL         string     `json:"url"`
	Content     string     `json:"content,omitempty"`
}

type postListResponse struct {
	Posts []postResponse `json:"posts"`
}

func (h *BlogHandler) toResponse(p domain.Post) postResponse {
	resp := postResponse{
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		DisplayDate: p.Date.Display(),
		Image:       p.Image,
		Author: postAuthor{
			Name:  p.Author,
			Title: p.AuthorTitle,
			Image: p.AuthorImage,
		},
		ReadTime: p.ReadTime,
		URL:      h.siteURL + "/blog/" + p.Slug,
		Content:  p.Content,
	}
	if p.Date.Valid {
		date := p.Date.Time.Format("2006-01-02")
		resp.Date = &date
	}
	return resp
}

// List serves post summaries, newest first. Optional query parameters are
// limit (positive integer) and exclude (a slug).
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := domain.ListQuery{ExcludeSlug: strings.TrimSpace(r.URL.Query().Get("exclude"))}

	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		q.Limit = limit
	}

	posts := h.resolver.ListPosts(r.Context(), q)
	resp := postListResponse{Posts: make([]postResponse, 0, len(posts))}
	for _, p := range posts {
		resp.Posts = append(resp.Posts, h.toResponse(p.Summary()))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post, err := h.resolver.GetPost(r.Context(), slug)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load post")
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(post))
}
