package handler

import (
	"github.com/gin-gonic/gin"
	contentapp "github.com/offeringbowl/backend/internal/application/content"
	"github.com/offeringbowl/backend/internal/domain/content"
	"github.com/offeringbowl/backend/internal/interfaces/http/dto"
)

// PostHandler handles the /posts routes
type PostHandler struct {
	BaseHandler
	posts *contentapp.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts *contentapp.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

func (h *PostHandler) list(c *gin.Context, list *contentapp.PostList, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("posts", list.Posts).WithCursor(list.Cursor))
}

// ListPublic godoc
// @Summary  List a monastic's public posts
// @Tags     posts
// @Param    monasticId path string true "Monastic ID"
// @Param    limit query int false "Page size"
// @Param    cursor query string false "Pagination cursor"
// @Router   /posts/public/monastic/{monasticId} [get]
func (h *PostHandler) ListPublic(c *gin.Context) {
	q := pageQuery(c)
	list, err := h.posts.ListPublicForMonastic(c.Request.Context(), c.Param("monasticId"), q.Limit, q.Cursor)
	h.list(c, list, err)
}

// GetPublic godoc
// @Summary  Get a public post
// @Tags     posts
// @Router   /posts/public/post/{postId} [get]
func (h *PostHandler) GetPublic(c *gin.Context) {
	post, err := h.posts.GetPublic(c.Request.Context(), c.Param("postId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("post", post))
}

// Get godoc
// @Summary   Get a post visible to the caller
// @Tags      posts
// @Security  BearerAuth
// @Router    /posts/post/{postId} [get]
func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.posts.GetForViewer(c.Request.Context(), caller(c), c.Param("postId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("post", post))
}

// ListForMonastic godoc
// @Summary   List a monastic's posts visible to the caller
// @Tags      posts
// @Security  BearerAuth
// @Router    /posts/monastic/{monasticId} [get]
func (h *PostHandler) ListForMonastic(c *gin.Context) {
	q := pageQuery(c)
	list, err := h.posts.ListForViewer(c.Request.Context(), caller(c), c.Param("monasticId"), q.Limit, q.Cursor)
	h.list(c, list, err)
}

// Feed godoc
// @Summary   Merged posts of every monastic the patron sponsors
// @Tags      posts
// @Security  BearerAuth
// @Router    /posts/feed/{patronId} [get]
func (h *PostHandler) Feed(c *gin.Context) {
	q := pageQuery(c)
	list, err := h.posts.Feed(c.Request.Context(), c.Param("patronId"), q.Limit, q.Cursor)
	h.list(c, list, err)
}

// Create godoc
// @Summary   Publish a post
// @Tags      posts
// @Security  BearerAuth
// @Router    /posts/post [post]
func (h *PostHandler) Create(c *gin.Context) {
	var post content.Post
	if !h.BindJSON(c, "post", &post) {
		return
	}

	created, err := h.posts.Create(c.Request.Context(), caller(c), post)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewSuccessResponse().With("post", created).WithMessage("Post created successfully."))
}

// Update godoc
// @Summary   Edit a post
// @Tags      posts
// @Security  BearerAuth
// @Router    /posts/post/{postId} [put]
func (h *PostHandler) Update(c *gin.Context) {
	patch, ok := h.BindPatch(c, "post")
	if !ok {
		return
	}

	post, err := h.posts.Update(c.Request.Context(), caller(c), c.Param("postId"), patch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("post", post).WithMessage("Post updated successfully."))
}

// Delete godoc
// @Summary   Delete a post
// @Tags      posts
// @Security  BearerAuth
// @Router    /posts/post/{postId} [delete]
func (h *PostHandler) Delete(c *gin.Context) {
	if err := h.posts.Delete(c.Request.Context(), caller(c), c.Param("postId")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().WithMessage("Post deleted successfully."))
}
