package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kirill-Khudyakov/shotline/middleware"
	"github.com/Kirill-Khudyakov/shotline/permissions"
	"github.com/Kirill-Khudyakov/shotline/serializers"
	"github.com/Kirill-Khudyakov/shotline/storage"
	"github.com/Kirill-Khudyakov/shotline/store"
	"github.com/Kirill-Khudyakov/shotline/utils"
)

// ImageController manages images scoped to a parent post.
type ImageController struct {
	store         *store.Store
	views         *serializers.Builder
	blobs         *storage.Local
	maxImageBytes int64
}

// NewImageController creates a new ImageController instance.
func NewImageController(s *store.Store, views *serializers.Builder, blobs *storage.Local, maxImageBytes int64) *ImageController {
	return &ImageController{store: s, views: views, blobs: blobs, maxImageBytes: maxImageBytes}
}

// ListImages returns one page of the parent post's images.
func (c *ImageController) ListImages(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id", 40401)
	if !ok {
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	images, total, err := c.store.ListImages(ctx.Request.Context(), postID, page, pageSize)
	if err != nil {
		respondError(ctx, 40410, err)
		return
	}
	utils.Success(ctx, gin.H{
		"items":      c.views.Images(images),
		"pagination": utils.NewPagination(page, pageSize, total),
	})
}

// CreateImage attaches a new image file to an existing post.
func (c *ImageController) CreateImage(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id", 40401)
	if !ok {
		return
	}

	fh, err := ctx.FormFile("image")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "no image uploaded")
		return
	}
	if fh.Size > c.maxImageBytes {
		utils.Error(ctx, http.StatusBadRequest, 40031, "image exceeds size limit")
		return
	}

	f, err := fh.Open()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40032, "unreadable image payload")
		return
	}
	defer f.Close()

	path, err := c.blobs.Save(f, fh.Filename)
	if err != nil {
		respondError(ctx, 50040, err)
		return
	}

	img, err := c.store.CreateImage(ctx.Request.Context(), postID, path)
	if err != nil {
		c.blobs.Remove(path)
		respondError(ctx, 40411, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"image": c.views.Image(img)})
}

// GetImage returns a single image of the parent post.
func (c *ImageController) GetImage(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id", 40401)
	if !ok {
		return
	}
	imageID, ok := uintParam(ctx, "imageId", 40412)
	if !ok {
		return
	}
	img, err := c.store.GetImage(ctx.Request.Context(), postID, imageID)
	if err != nil {
		respondError(ctx, 40413, err)
		return
	}
	utils.Success(ctx, gin.H{"image": c.views.Image(img)})
}

// DeleteImage removes a single image. The owner is the parent post's author;
// superusers may override.
func (c *ImageController) DeleteImage(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id", 40401)
	if !ok {
		return
	}
	imageID, ok := uintParam(ctx, "imageId", 40412)
	if !ok {
		return
	}

	post, err := c.store.GetPost(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, 40414, err)
		return
	}
	img, err := c.store.GetImage(ctx.Request.Context(), postID, imageID)
	if err != nil {
		respondError(ctx, 40415, err)
		return
	}
	img.SetOwnerID(post.AuthorID)

	if err := permissions.Authorize(middleware.Subject(ctx), permissions.ActionDelete, img); err != nil {
		respondError(ctx, 40310, err)
		return
	}

	path, err := c.store.DeleteImage(ctx.Request.Context(), imageID)
	if err != nil {
		respondError(ctx, 50041, err)
		return
	}
	c.blobs.Remove(path)

	utils.Success(ctx, gin.H{"message": "image deleted"})
}
