// Package serializers builds the read-side projections returned by the API.
// Everything here is derived from stored entities on each call; like counts
// and location display are never persisted.
package serializers

import (
	"context"
	"time"

	"github.com/Kirill-Khudyakov/shotline/geocoder"
	"github.com/Kirill-Khudyakov/shotline/models"
	"github.com/Kirill-Khudyakov/shotline/store"
	"github.com/Kirill-Khudyakov/shotline/utils"
)

// UserView is the public shape of an account.
type UserView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// ImageView is the public shape of a post image.
type ImageView struct {
	ID        uint      `json:"id"`
	PostID    uint      `json:"post_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentView is the public shape of a comment.
type CommentView struct {
	ID        uint      `json:"id"`
	PostID    uint      `json:"post_id"`
	Author    UserView  `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeView is the public shape of a like.
type LikeView struct {
	ID        uint      `json:"id"`
	PostID    uint      `json:"post_id"`
	User      UserView  `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// LocationView carries the stored coordinates of a post.
type LocationView struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

// PostView is the public shape of a post with its derived values.
type PostView struct {
	ID              uint          `json:"id"`
	Author          UserView      `json:"author"`
	Text            string        `json:"text"`
	CreatedAt       time.Time     `json:"created_at"`
	LikesCount      int64         `json:"likes_count"`
	Images          []ImageView   `json:"images"`
	Comments        []CommentView `json:"comments"`
	Location        *LocationView `json:"location,omitempty"`
	LocationAddress string        `json:"location_address,omitempty"`
}

// Builder assembles views from the store and the geocoding collaborator.
type Builder struct {
	store    *store.Store
	geo      geocoder.Client
	mediaURL string
}

// NewBuilder creates a Builder. geo may be nil, disabling address lookups.
func NewBuilder(s *store.Store, geo geocoder.Client, mediaURL string) *Builder {
	return &Builder{store: s, geo: geo, mediaURL: mediaURL}
}

// Post builds the full projection of a post. The like count is recomputed
// from the store on every call. Address lookup failures degrade to the
// stored location name and never fail the read.
func (b *Builder) Post(ctx context.Context, post *models.Post) (*PostView, error) {
	count, err := b.store.LikeCount(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	view := &PostView{
		ID:         post.ID,
		Author:     User(&post.Author),
		Text:       post.Text,
		CreatedAt:  post.CreatedAt,
		LikesCount: count,
		Images:     make([]ImageView, 0, len(post.Images)),
		Comments:   make([]CommentView, 0, len(post.Comments)),
	}
	for i := range post.Images {
		view.Images = append(view.Images, b.Image(&post.Images[i]))
	}
	for i := range post.Comments {
		view.Comments = append(view.Comments, Comment(&post.Comments[i]))
	}

	if post.Latitude != nil && post.Longitude != nil {
		view.Location = &LocationView{
			Latitude:  *post.Latitude,
			Longitude: *post.Longitude,
		}
		if post.LocationName != nil {
			view.Location.Name = *post.LocationName
		}
	}
	view.LocationAddress = b.locationAddress(ctx, post)
	return view, nil
}

// Posts builds projections for a page of posts.
func (b *Builder) Posts(ctx context.Context, posts []models.Post) ([]PostView, error) {
	views := make([]PostView, 0, len(posts))
	for i := range posts {
		view, err := b.Post(ctx, &posts[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// Image builds the projection of a post image.
func (b *Builder) Image(img *models.PostImage) ImageView {
	return ImageView{
		ID:        img.ID,
		PostID:    img.PostID,
		URL:       b.mediaURL + "/" + img.FilePath,
		CreatedAt: img.CreatedAt,
	}
}

// Images builds projections for a page of images.
func (b *Builder) Images(images []models.PostImage) []ImageView {
	views := make([]ImageView, 0, len(images))
	for i := range images {
		views = append(views, b.Image(&images[i]))
	}
	return views
}

// User builds the public projection of an account.
func User(u *models.User) UserView {
	return UserView{ID: u.ID, Username: u.Username}
}

// Comment builds the projection of a comment.
func Comment(c *models.Comment) CommentView {
	return CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    User(&c.Author),
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

// Comments builds projections for a page of comments.
func Comments(comments []models.Comment) []CommentView {
	views := make([]CommentView, 0, len(comments))
	for i := range comments {
		views = append(views, Comment(&comments[i]))
	}
	return views
}

// Like builds the projection of a like.
func Like(l *models.Like) LikeView {
	return LikeView{
		ID:        l.ID,
		PostID:    l.PostID,
		User:      User(&l.User),
		CreatedAt: l.CreatedAt,
	}
}

// Likes builds projections for a page of likes.
func Likes(likes []models.Like) []LikeView {
	views := make([]LikeView, 0, len(likes))
	for i := range likes {
		views = append(views, Like(&likes[i]))
	}
	return views
}

// ResolveCoordinates forward-geocodes a location name for the write path.
// Failure leaves coordinates unset; the write itself proceeds regardless.
func (b *Builder) ResolveCoordinates(ctx context.Context, name string) *geocoder.Coordinates {
	if b.geo == nil || name == "" {
		return nil
	}
	coords, err := b.geo.Geocode(ctx, name)
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("forward geocoding failed for %q: %v", name, err)
		}
		return nil
	}
	return coords
}

// locationAddress resolves a display address from coordinates, falling back
// to the stored location name, then empty.
func (b *Builder) locationAddress(ctx context.Context, post *models.Post) string {
	if post.Latitude != nil && post.Longitude != nil && b.geo != nil {
		addr, err := b.geo.Reverse(ctx, *post.Latitude, *post.Longitude)
		if err == nil && addr != "" {
			return addr
		}
		if err != nil && utils.Sugar != nil {
			utils.Sugar.Warnf("reverse geocoding failed for post %d: %v", post.ID, err)
		}
	}
	if post.LocationName != nil {
		return *post.LocationName
	}
	return ""
}
