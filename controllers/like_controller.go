package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kirill-Khudyakov/shotline/middleware"
	"github.com/Kirill-Khudyakov/shotline/permissions"
	"github.com/Kirill-Khudyakov/shotline/serializers"
	"github.com/Kirill-Khudyakov/shotline/store"
	"github.com/Kirill-Khudyakov/shotline/utils"
)

// LikeController manages likes scoped to a parent post.
type LikeController struct {
	store *store.Store
}

// NewLikeController creates a new LikeController instance.
func NewLikeController(s *store.Store) *LikeController {
	return &LikeController{store: s}
}

// ListLikes returns one page of the parent post's likes. The route itself
// requires authentication; anonymous callers never reach this handler.
func (c *LikeController) ListLikes(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id", 40401)
	if !ok {
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	likes, total, err := c.store.ListLikes(ctx.Request.Context(), postID, page, pageSize)
	if err != nil {
		respondError(ctx, 40420, err)
		return
	}
	utils.Success(ctx, gin.H{
		"items":      serializers.Likes(likes),
		"pagination": utils.NewPagination(page, pageSize, total),
	})
}

// CreateLike records that the requesting user liked the post. The unique
// (post, user) constraint answers a duplicate with 409.
func (c *LikeController) CreateLike(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id", 40401)
	if !ok {
		return
	}
	subject := middleware.Subject(ctx)

	like, err := c.store.CreateLike(ctx.Request.Context(), postID, subject.UserID)
	if err != nil {
		respondError(ctx, 40901, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"like": serializers.Like(like)})
}

// GetLike returns a single like of the parent post.
func (c *LikeController) GetLike(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id", 40401)
	if !ok {
		return
	}
	likeID, ok := uintParam(ctx, "likeId", 40421)
	if !ok {
		return
	}
	like, err := c.store.GetLike(ctx.Request.Context(), postID, likeID)
	if err != nil {
		respondError(ctx, 40422, err)
		return
	}
	utils.Success(ctx, gin.H{"like": serializers.Like(like)})
}

// DeleteLike removes a like. Only its creator may do so; there is no
// superuser override for likes.
func (c *LikeController) DeleteLike(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id", 40401)
	if !ok {
		return
	}
	likeID, ok := uintParam(ctx, "likeId", 40421)
	if !ok {
		return
	}

	like, err := c.store.GetLike(ctx.Request.Context(), postID, likeID)
	if err != nil {
		respondError(ctx, 40423, err)
		return
	}
	if err := permissions.Authorize(middleware.Subject(ctx), permissions.ActionDelete, like); err != nil {
		respondError(ctx, 40320, err)
		return
	}

	if err := c.store.DeleteLike(ctx.Request.Context(), likeID); err != nil {
		respondError(ctx, 50050, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "like removed"})
}
