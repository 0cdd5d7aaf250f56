package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Kirill-Khudyakov/shotline/middleware"
	"github.com/Kirill-Khudyakov/shotline/permissions"
	"github.com/Kirill-Khudyakov/shotline/serializers"
	"github.com/Kirill-Khudyakov/shotline/storage"
	"github.com/Kirill-Khudyakov/shotline/store"
	"github.com/Kirill-Khudyakov/shotline/utils"
)

// PostController manages CRUD operations for posts.
type PostController struct {
	store         *store.Store
	views         *serializers.Builder
	blobs         *storage.Local
	maxImageBytes int64
}

// NewPostController creates a new PostController instance.
func NewPostController(s *store.Store, views *serializers.Builder, blobs *storage.Local, maxImageBytes int64) *PostController {
	return &PostController{store: s, views: views, blobs: blobs, maxImageBytes: maxImageBytes}
}

// ListPosts returns paginated posts with search and ordering.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	filter := store.PostFilter{
		Search:   strings.TrimSpace(ctx.Query("search")),
		Ordering: strings.TrimSpace(ctx.Query("ordering")),
		Page:     page,
		PageSize: pageSize,
	}

	posts, total, err := p.store.ListPosts(ctx.Request.Context(), filter)
	if err != nil {
		respondError(ctx, 50021, err)
		return
	}
	views, err := p.views.Posts(ctx.Request.Context(), posts)
	if err != nil {
		respondError(ctx, 50022, err)
		return
	}

	utils.Success(ctx, gin.H{
		"items":      views,
		"pagination": utils.NewPagination(page, pageSize, total),
	})
}

// CreatePost creates a post from a multipart form: text, optional
// location_name and one or more image files under "images". The author is
// bound to the requesting identity; a post without images is rejected.
func (p *PostController) CreatePost(ctx *gin.Context) {
	subject := middleware.Subject(ctx)

	form, err := ctx.MultipartForm()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid multipart form")
		return
	}

	text := utils.Sanitize(strings.TrimSpace(formValue(form.Value, "text")))
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "post text cannot be empty")
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40022, "a post must have at least one attached image")
		return
	}

	var locationName *string
	var lat, lon *float64
	if name := strings.TrimSpace(formValue(form.Value, "location_name")); name != "" {
		locationName = &name
		// Best-effort forward geocoding; a failed lookup never fails the write.
		if coords := p.views.ResolveCoordinates(ctx.Request.Context(), name); coords != nil {
			lat, lon = &coords.Latitude, &coords.Longitude
		}
	}

	paths := make([]string, 0, len(files))
	cleanup := func() { p.blobs.Remove(paths...) }
	for _, fh := range files {
		if fh.Size > p.maxImageBytes {
			cleanup()
			utils.Error(ctx, http.StatusBadRequest, 40023, "image exceeds size limit")
			return
		}
		f, err := fh.Open()
		if err != nil {
			cleanup()
			utils.Error(ctx, http.StatusBadRequest, 40024, "unreadable image payload")
			return
		}
		path, err := p.blobs.Save(f, fh.Filename)
		f.Close()
		if err != nil {
			cleanup()
			respondError(ctx, 50023, err)
			return
		}
		paths = append(paths, path)
	}

	post, err := p.store.CreatePost(ctx.Request.Context(), subject.UserID, text, locationName, lat, lon, paths)
	if err != nil {
		cleanup()
		respondError(ctx, 50024, err)
		return
	}

	loaded, err := p.store.GetPost(ctx.Request.Context(), post.ID)
	if err != nil {
		respondError(ctx, 50025, err)
		return
	}
	view, err := p.views.Post(ctx.Request.Context(), loaded)
	if err != nil {
		respondError(ctx, 50026, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"post": view})
}

// GetPost returns a single post with its derived values.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id", 40401)
	if !ok {
		return
	}
	post, err := p.store.GetPost(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, 40402, err)
		return
	}
	view, err := p.views.Post(ctx.Request.Context(), post)
	if err != nil {
		respondError(ctx, 50027, err)
		return
	}
	utils.Success(ctx, gin.H{"post": view})
}

// UpdatePost allows the author (or a superuser) to edit text and location.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Text         string  `json:"text" binding:"required"`
		LocationName *string `json:"location_name"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40025, "invalid request payload")
		return
	}

	postID, ok := uintParam(ctx, "id", 40401)
	if !ok {
		return
	}
	post, err := p.store.GetPost(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, 40403, err)
		return
	}

	if err := permissions.Authorize(middleware.Subject(ctx), permissions.ActionUpdate, post); err != nil {
		respondError(ctx, 40301, err)
		return
	}

	post.Text = utils.Sanitize(strings.TrimSpace(req.Text))
	if req.LocationName != nil {
		name := strings.TrimSpace(*req.LocationName)
		if name == "" {
			post.LocationName = nil
			post.Latitude = nil
			post.Longitude = nil
		} else {
			post.LocationName = &name
			post.Latitude = nil
			post.Longitude = nil
			if coords := p.views.ResolveCoordinates(ctx.Request.Context(), name); coords != nil {
				post.Latitude = &coords.Latitude
				post.Longitude = &coords.Longitude
			}
		}
	}

	if err := p.store.UpdatePost(ctx.Request.Context(), post); err != nil {
		respondError(ctx, 50028, err)
		return
	}
	view, err := p.views.Post(ctx.Request.Context(), post)
	if err != nil {
		respondError(ctx, 50029, err)
		return
	}
	utils.Success(ctx, gin.H{"post": view})
}

// DeletePost allows the author (or a superuser) to delete a post. The store
// removes the post and everything referencing it in one transaction; blob
// files are cleaned up afterwards.
func (p *PostController) DeletePost(ctx *gin.Context) {
	postID, ok := uintParam(ctx, "id", 40401)
	if !ok {
		return
	}
	post, err := p.store.GetPost(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, 40404, err)
		return
	}

	if err := permissions.Authorize(middleware.Subject(ctx), permissions.ActionDelete, post); err != nil {
		respondError(ctx, 40302, err)
		return
	}

	paths, err := p.store.DeletePost(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, 50030, err)
		return
	}
	p.blobs.Remove(paths...)

	utils.Success(ctx, gin.H{"message": "post deleted"})
}

func formValue(values map[string][]string, key string) string {
	if v, ok := values[key]; ok && len(v) > 0 {
		return v[0]
	}
	return ""
}
