package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ashifa-1/cms-backend/internal/api/metrics"
	"github.com/ashifa-1/cms-backend/internal/core/ports"
)

// PostHandler serves the authenticated author surface. Authorization beyond
// the role check (ownership) lives in the service layer; errors surface
// through the central error handler.
type PostHandler struct {
	posts ports.PostService
}

func NewPostHandler(posts ports.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

type createPostRequest struct {
	Title string `json:"title" validate:"required,max=256"`
	Body  string `json:"body"`
	Slug  string `json:"slug,omitempty"`
}

type updatePostRequest struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
	Slug  *string `json:"slug,omitempty"`
}

type scheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

// Create makes a new draft post.
//
// @Summary      Create a draft post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        body  body      createPostRequest  true  "Post content"
// @Success      201   {object}  domain.Post
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.posts.Create(c.Request().Context(), actor, ports.CreatePostInput{
		Title: req.Title,
		Body:  req.Body,
		Slug:  req.Slug,
	})
	if err != nil {
		return err
	}

	metrics.PostMutationsTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, post)
}

// Update applies title, body, or slug changes to a post.
//
// @Summary      Update a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Post id"
// @Param        body  body      updatePostRequest  true  "Fields to update"
// @Success      200   {object}  domain.Post
// @Router       /posts/{id} [put]
func (h *PostHandler) Update(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	post, err := h.posts.Update(c.Request().Context(), actor, id, ports.UpdatePostInput{
		Title: req.Title,
		Body:  req.Body,
		Slug:  req.Slug,
	})
	if err != nil {
		return err
	}

	metrics.PostMutationsTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, post)
}

// Schedule sets a future publication time.
//
// @Summary      Schedule a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "Post id"
// @Param        body  body      scheduleRequest  true  "Publication time"
// @Success      200   {object}  domain.Post
// @Failure      422   {object}  map[string]string
// @Router       /posts/{id}/schedule [post]
func (h *PostHandler) Schedule(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.posts.Schedule(c.Request().Context(), actor, id, req.ScheduledAt)
	if err != nil {
		return err
	}

	metrics.PostMutationsTotal.WithLabelValues("schedule").Inc()
	return c.JSON(http.StatusOK, post)
}

// Publish transitions a post to published immediately.
//
// @Summary      Publish a post
// @Tags         posts
// @Produce      json
// @Param        id  path      string  true  "Post id"
// @Success      200 {object}  domain.Post
// @Router       /posts/{id}/publish [post]
func (h *PostHandler) Publish(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	post, err := h.posts.Publish(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}

	metrics.PostMutationsTotal.WithLabelValues("publish").Inc()
	return c.JSON(http.StatusOK, post)
}

// Unschedule returns a scheduled post to draft.
//
// @Summary      Unschedule a post
// @Tags         posts
// @Produce      json
// @Param        id  path      string  true  "Post id"
// @Success      200 {object}  domain.Post
// @Router       /posts/{id}/unschedule [post]
func (h *PostHandler) Unschedule(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	post, err := h.posts.Unschedule(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}

	metrics.PostMutationsTotal.WithLabelValues("unschedule").Inc()
	return c.JSON(http.StatusOK, post)
}

// Delete removes a post and its revisions.
//
// @Summary      Delete a post
// @Tags         posts
// @Produce      json
// @Param        id  path  string  true  "Post id"
// @Success      204
// @Router       /posts/{id} [delete]
func (h *PostHandler) Delete(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.posts.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}

	metrics.PostMutationsTotal.WithLabelValues("delete").Inc()
	return c.NoContent(http.StatusNoContent)
}

// Get returns one of the author's own posts, any status.
//
// @Summary      Get own post
// @Tags         posts
// @Produce      json
// @Param        id  path      string  true  "Post id"
// @Success      200 {object}  domain.Post
// @Router       /posts/{id} [get]
func (h *PostHandler) Get(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	post, err := h.posts.Get(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// ListMine pages through the author's own posts.
//
// @Summary      List own posts
// @Tags         posts
// @Produce      json
// @Param        skip   query     int  false  "Offset"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {array}   domain.Post
// @Router       /posts [get]
func (h *PostHandler) ListMine(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	posts, err := h.posts.ListMine(c.Request().Context(), actor, pageFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

// ListRevisions returns a post's revision history, newest first.
//
// @Summary      List post revisions
// @Tags         posts
// @Produce      json
// @Param        id  path      string  true  "Post id"
// @Success      200 {array}   domain.PostRevision
// @Router       /posts/{id}/revisions [get]
func (h *PostHandler) ListRevisions(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	revs, err := h.posts.ListRevisions(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, revs)
}

// Restore re-applies a revision's content to the post.
//
// @Summary      Restore a revision
// @Tags         posts
// @Produce      json
// @Param        id           path      string  true  "Post id"
// @Param        revision_id  path      string  true  "Revision id"
// @Success      200          {object}  domain.Post
// @Router       /posts/{id}/restore/{revision_id} [post]
func (h *PostHandler) Restore(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	revID, err := pathID(c, "revision_id")
	if err != nil {
		return err
	}

	post, err := h.posts.Restore(c.Request().Context(), actor, id, revID)
	if err != nil {
		return err
	}

	metrics.PostMutationsTotal.WithLabelValues("restore").Inc()
	return c.JSON(http.StatusOK, post)
}

// pageFromQuery reads skip/limit query parameters. Unparseable values fall
// back to zero and are clamped by the service.
func pageFromQuery(c echo.Context) ports.Page {
	skip, _ := strconv.Atoi(c.QueryParam("skip"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return ports.Page{Skip: skip, Limit: limit}
}
