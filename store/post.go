package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Kirill-Khudyakov/shotline/models"
)

// Orderings accepted by ListPosts. A leading '-' reverses the direction.
const (
	OrderCreatedAt  = "created_at"
	OrderLikesCount = "likes_count"
)

// PostFilter narrows and orders a post listing.
type PostFilter struct {
	// Search matches a substring of the post text, the author's username or
	// the stored location name.
	Search string
	// Ordering is one of created_at, -created_at, likes_count, -likes_count.
	// Empty defaults to -created_at.
	Ordering string
	Page     int
	PageSize int
}

// CreatePost persists a post together with its attached images in one
// transaction. A post without at least one image is rejected.
func (s *Store) CreatePost(ctx context.Context, authorID uint, text string, locationName *string, lat, lon *float64, imagePaths []string) (*models.Post, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: post text cannot be empty", ErrValidation)
	}
	if len(imagePaths) == 0 {
		return nil, fmt.Errorf("%w: a post must have at least one attached image", ErrValidation)
	}

	post := &models.Post{
		AuthorID:     authorID,
		Text:         text,
		LocationName: locationName,
		Latitude:     lat,
		Longitude:    lon,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		for _, path := range imagePaths {
			img := models.PostImage{PostID: post.ID, FilePath: path}
			if err := tx.Create(&img).Error; err != nil {
				return err
			}
			post.Images = append(post.Images, img)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return post, nil
}

// GetPost loads a post with its author, images and comments.
func (s *Store) GetPost(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Images").
		Preload("Comments").
		Preload("Comments.Author").
		First(&post, postID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// UpdatePost persists edited text and location fields.
func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	if strings.TrimSpace(post.Text) == "" {
		return fmt.Errorf("%w: post text cannot be empty", ErrValidation)
	}
	err := s.db.WithContext(ctx).Model(post).
		Select("Text", "LocationName", "Latitude", "Longitude").
		Updates(post).Error
	return translate(err)
}

// DeletePost removes a post and everything referencing it in a fixed order
// inside one transaction, so concurrent readers never observe a partial
// cascade. It returns the blob paths of the removed images; cleaning those
// files up is the caller's concern and happens after commit.
func (s *Store) DeletePost(ctx context.Context, postID uint) ([]string, error) {
	var paths []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.PostImage{}).
			Where("post_id = ?", postID).
			Pluck("file_path", &paths).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, postID).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return paths, nil
}

// ListPosts returns one page of posts plus the total match count.
func (s *Store) ListPosts(ctx context.Context, f PostFilter) ([]models.Post, int64, error) {
	page, pageSize := normalizePage(f.Page, f.PageSize)

	query := s.db.WithContext(ctx).Model(&models.Post{})
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + search + "%"
		query = query.
			Joins("JOIN users ON users.id = posts.author_id").
			Where("posts.text LIKE ? OR users.username LIKE ? OR posts.location_name LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	order, err := postOrdering(f.Ordering)
	if err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err = query.
		Preload("Author").
		Preload("Images").
		Preload("Comments").
		Preload("Comments.Author").
		Order(order).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return posts, total, nil
}

// postOrdering maps an API ordering value to a SQL order clause. The like
// count is derived with a correlated subquery so it can never go stale.
func postOrdering(ordering string) (string, error) {
	desc := strings.HasPrefix(ordering, "-")
	field := strings.TrimPrefix(ordering, "-")

	var expr string
	switch field {
	case "", OrderCreatedAt:
		expr = "posts.created_at"
		if ordering == "" {
			desc = true
		}
	case OrderLikesCount:
		expr = "(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id)"
	default:
		return "", fmt.Errorf("%w: unknown ordering %q", ErrValidation, ordering)
	}
	if desc {
		return expr + " DESC", nil
	}
	return expr + " ASC", nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
