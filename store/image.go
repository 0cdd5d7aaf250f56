package store

import (
	"context"

	"github.com/Kirill-Khudyakov/shotline/models"
)

// CreateImage attaches an already stored image blob to an existing post.
func (s *Store) CreateImage(ctx context.Context, postID uint, filePath string) (*models.PostImage, error) {
	if err := s.postExists(ctx, postID); err != nil {
		return nil, err
	}
	img := &models.PostImage{PostID: postID, FilePath: filePath}
	if err := s.db.WithContext(ctx).Create(img).Error; err != nil {
		return nil, translate(err)
	}
	return img, nil
}

// GetImage loads an image scoped to its post.
func (s *Store) GetImage(ctx context.Context, postID, imageID uint) (*models.PostImage, error) {
	var img models.PostImage
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		First(&img, imageID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &img, nil
}

// DeleteImage removes a single image row and returns its blob path so the
// caller can clean the file up.
func (s *Store) DeleteImage(ctx context.Context, imageID uint) (string, error) {
	var img models.PostImage
	if err := s.db.WithContext(ctx).First(&img, imageID).Error; err != nil {
		return "", translate(err)
	}
	if err := s.db.WithContext(ctx).Delete(&models.PostImage{}, imageID).Error; err != nil {
		return "", translate(err)
	}
	return img.FilePath, nil
}

// ListImages returns one page of a post's images, newest first.
func (s *Store) ListImages(ctx context.Context, postID uint, page, pageSize int) ([]models.PostImage, int64, error) {
	if err := s.postExists(ctx, postID); err != nil {
		return nil, 0, err
	}
	page, pageSize = normalizePage(page, pageSize)

	query := s.db.WithContext(ctx).Model(&models.PostImage{}).Where("post_id = ?", postID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var images []models.PostImage
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&images).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return images, total, nil
}
