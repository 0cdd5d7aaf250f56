package models

import (
	"time"

	"github.com/Kirill-Khudyakov/shotline/permissions"
)

// Like marks that a user liked a post. The composite unique index enforces
// at most one like per (post, user) pair at the storage layer, so concurrent
// duplicate requests cannot both succeed.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_post_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"user"`
}

// OwnerID implements permissions.Owned.
func (l *Like) OwnerID() uint { return l.UserID }

// Kind implements permissions.Owned.
func (l *Like) Kind() permissions.Kind { return permissions.KindLike }
