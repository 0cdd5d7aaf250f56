package models

import (
	"time"

	"github.com/Kirill-Khudyakov/shotline/permissions"
)

// Comment is a reply to a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`

	Author User `gorm:"constraint:OnDelete:CASCADE" json:"author"`
}

// OwnerID implements permissions.Owned.
func (c *Comment) OwnerID() uint { return c.AuthorID }

// Kind implements permissions.Owned.
func (c *Comment) Kind() permissions.Kind { return permissions.KindComment }
