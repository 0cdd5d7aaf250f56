package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Kirill-Khudyakov/shotline/models"
)

// CreateLike records that user liked post. Duplicate likes are rejected by
// the composite unique index, not a prior read, so two concurrent requests
// for the same pair cannot both succeed.
func (s *Store) CreateLike(ctx context.Context, postID, userID uint) (*models.Like, error) {
	if err := s.postExists(ctx, postID); err != nil {
		return nil, err
	}

	like := &models.Like{PostID: postID, UserID: userID}
	if err := s.db.WithContext(ctx).Create(like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: already liked", ErrConflict)
		}
		return nil, translate(err)
	}
	if err := s.db.WithContext(ctx).Preload("User").First(like, like.ID).Error; err != nil {
		return nil, translate(err)
	}
	return like, nil
}

// GetLike loads a like scoped to its post.
func (s *Store) GetLike(ctx context.Context, postID, likeID uint) (*models.Like, error) {
	var like models.Like
	err := s.db.WithContext(ctx).Preload("User").
		Where("post_id = ?", postID).
		First(&like, likeID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &like, nil
}

// DeleteLike removes a single like row.
func (s *Store) DeleteLike(ctx context.Context, likeID uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Like{}, likeID)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLikes returns one page of a post's likes, newest first.
func (s *Store) ListLikes(ctx context.Context, postID uint, page, pageSize int) ([]models.Like, int64, error) {
	if err := s.postExists(ctx, postID); err != nil {
		return nil, 0, err
	}
	page, pageSize = normalizePage(page, pageSize)

	query := s.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var likes []models.Like
	err := query.Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&likes).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return likes, total, nil
}

// LikeCount counts the like rows for a post. The count is derived on every
// call and never cached on the post.
func (s *Store) LikeCount(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	if err != nil {
		return 0, translate(err)
	}
	return count, nil
}

// postExists reports ErrNotFound when the parent post is absent.
func (s *Store) postExists(ctx context.Context, postID uint) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		Count(&count).Error
	if err != nil {
		return translate(err)
	}
	if count == 0 {
		return fmt.Errorf("%w: post %d", ErrNotFound, postID)
	}
	return nil
}
