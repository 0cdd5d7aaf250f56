package models

import (
	"time"

	"github.com/Kirill-Khudyakov/shotline/permissions"
)

// PostImage is an image attached to a post. The binary payload lives on disk
// under the media root; FilePath is the generated path relative to it.
type PostImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	FilePath  string    `gorm:"size:1024;not null" json:"file_path"`
	CreatedAt time.Time `json:"created_at"`

	// ownerID is resolved from the parent post when the image is loaded for an
	// authorization check; images carry no author column of their own.
	ownerID uint `gorm:"-"`
}

// SetOwnerID records the parent post's author for authorization purposes.
func (i *PostImage) SetOwnerID(id uint) { i.ownerID = id }

// OwnerID implements permissions.Owned.
func (i *PostImage) OwnerID() uint { return i.ownerID }

// Kind implements permissions.Owned.
func (i *PostImage) Kind() permissions.Kind { return permissions.KindImage }
