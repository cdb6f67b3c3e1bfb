package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ashifa-1/cms-backend/internal/core/ports"
)

// PublicHandler serves the unauthenticated read surface. All reads go
// through the cache coordinator; only published posts are visible.
type PublicHandler struct {
	posts ports.PostService
}

func NewPublicHandler(posts ports.PostService) *PublicHandler {
	return &PublicHandler{posts: posts}
}

// Get returns a published post by id or slug.
//
// @Summary      Get a published post
// @Tags         public
// @Produce      json
// @Param        id_or_slug  path      string  true  "Post id or slug"
// @Success      200         {object}  domain.Post
// @Failure      404         {object}  map[string]string
// @Router       /public/posts/{id_or_slug} [get]
func (h *PublicHandler) Get(c echo.Context) error {
	post, err := h.posts.GetPublic(c.Request().Context(), c.Param("id_or_slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// List pages through published posts, newest first.
//
// @Summary      List published posts
// @Tags         public
// @Produce      json
// @Param        skip   query    int  false  "Offset"
// @Param        limit  query    int  false  "Page size"
// @Success      200    {array}  domain.Post
// @Router       /public/posts [get]
func (h *PublicHandler) List(c echo.Context) error {
	posts, err := h.posts.ListPublished(c.Request().Context(), pageFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

// Search runs a ranked full-text query over published posts.
//
// @Summary      Search published posts
// @Tags         public
// @Produce      json
// @Param        q      query    string  true   "Query string"
// @Param        skip   query    int     false  "Offset"
// @Param        limit  query    int     false  "Page size"
// @Success      200    {array}  domain.Post
// @Failure      400    {object} map[string]string
// @Router       /public/search [get]
func (h *PublicHandler) Search(c echo.Context) error {
	posts, err := h.posts.SearchPublished(c.Request().Context(), c.QueryParam("q"), pageFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}
