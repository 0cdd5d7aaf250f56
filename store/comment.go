package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kirill-Khudyakov/shotline/models"
)

// CreateComment attaches a comment to an existing post.
func (s *Store) CreateComment(ctx context.Context, postID, authorID uint, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text cannot be empty", ErrValidation)
	}
	if err := s.postExists(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, AuthorID: authorID, Text: text}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, translate(err)
	}
	if err := s.db.WithContext(ctx).Preload("Author").First(comment, comment.ID).Error; err != nil {
		return nil, translate(err)
	}
	return comment, nil
}

// GetComment loads a comment scoped to its post.
func (s *Store) GetComment(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).Preload("Author").
		Where("post_id = ?", postID).
		First(&comment, commentID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

// UpdateComment persists an edited comment text.
func (s *Store) UpdateComment(ctx context.Context, comment *models.Comment) error {
	if strings.TrimSpace(comment.Text) == "" {
		return fmt.Errorf("%w: comment text cannot be empty", ErrValidation)
	}
	err := s.db.WithContext(ctx).Model(comment).
		Select("Text").
		Updates(comment).Error
	return translate(err)
}

// DeleteComment removes a single comment row.
func (s *Store) DeleteComment(ctx context.Context, commentID uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Comment{}, commentID)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListComments returns one page of a post's comments, newest first.
func (s *Store) ListComments(ctx context.Context, postID uint, page, pageSize int) ([]models.Comment, int64, error) {
	if err := s.postExists(ctx, postID); err != nil {
		return nil, 0, err
	}
	page, pageSize = normalizePage(page, pageSize)

	query := s.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var comments []models.Comment
	err := query.Preload("Author").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&comments).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return comments, total, nil
}
