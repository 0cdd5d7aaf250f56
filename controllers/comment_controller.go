package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Kirill-Khudyakov/shotline/middleware"
	"github.com/Kirill-Khudyakov/shotline/permissions"
	"github.com/Kirill-Khudyakov/shotline/serializers"
	"github.com/Kirill-Khudyakov/shotline/store"
	"github.com/Kirill-Khudyakov/shotline/utils"
)

// CommentController manages comments scoped to a parent post.
type CommentController struct {
	store *store.Store
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(s *store.Store) *CommentController {
	return &CommentController{store: s}
}

// ListComments returns one page of the parent post's comments, newest first.
func (c *CommentController) ListComments(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id", 40401)
	if !ok {
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	comments, total, err := c.store.ListComments(ctx.Request.Context(), postID, page, pageSize)
	if err != nil {
		respondError(ctx, 40430, err)
		return
	}
	utils.Success(ctx, gin.H{
		"items":      serializers.Comments(comments),
		"pagination": utils.NewPagination(page, pageSize, total),
	})
}

// CreateComment attaches a comment to an existing post, bound to the
// requesting identity.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	postID, ok := uintParam(ctx, "id", 40401)
	if !ok {
		return
	}
	subject := middleware.Subject(ctx)

	text := utils.Sanitize(strings.TrimSpace(req.Text))
	comment, err := c.store.CreateComment(ctx.Request.Context(), postID, subject.UserID, text)
	if err != nil {
		respondError(ctx, 40431, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"comment": serializers.Comment(comment)})
}

// GetComment returns a single comment of the parent post.
func (c *CommentController) GetComment(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id", 40401)
	if !ok {
		return
	}
	commentID, ok := uintParam(ctx, "commentId", 40432)
	if !ok {
		return
	}
	comment, err := c.store.GetComment(ctx.Request.Context(), postID, commentID)
	if err != nil {
		respondError(ctx, 40433, err)
		return
	}
	utils.Success(ctx, gin.H{"comment": serializers.Comment(comment)})
}

// UpdateComment allows the author (or a superuser) to edit a comment.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid request payload")
		return
	}

	postID, ok := uintParam(ctx, "id", 40401)
	if !ok {
		return
	}
	commentID, ok := uintParam(ctx, "commentId", 40432)
	if !ok {
		return
	}

	comment, err := c.store.GetComment(ctx.Request.Context(), postID, commentID)
	if err != nil {
		respondError(ctx, 40434, err)
		return
	}
	if err := permissions.Authorize(middleware.Subject(ctx), permissions.ActionUpdate, comment); err != nil {
		respondError(ctx, 40330, err)
		return
	}

	comment.Text = utils.Sanitize(strings.TrimSpace(req.Text))
	if err := c.store.UpdateComment(ctx.Request.Context(), comment); err != nil {
		respondError(ctx, 50060, err)
		return
	}
	utils.Success(ctx, gin.H{"comment": serializers.Comment(comment)})
}

// DeleteComment allows the author (or a superuser) to delete a comment.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id", 40401)
	if !ok {
		return
	}
	commentID, ok := uintParam(ctx, "commentId", 40432)
	if !ok {
		return
	}

	comment, err := c.store.GetComment(ctx.Request.Context(), postID, commentID)
	if err != nil {
		respondError(ctx, 40435, err)
		return
	}
	if err := permissions.Authorize(middleware.Subject(ctx), permissions.ActionDelete, comment); err != nil {
		respondError(ctx, 40331, err)
		return
	}

	if err := c.store.DeleteComment(ctx.Request.Context(), commentID); err != nil {
		respondError(ctx, 50061, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}
