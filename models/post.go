package models

import (
	"time"

	"github.com/Kirill-Khudyakov/shotline/permissions"
)

// Post is a text post with attached images and an optional geolocation.
// Latitude/longitude use 6 decimal places, matching what the geocoder returns.
type Post struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AuthorID     uint      `gorm:"index;not null" json:"author_id"`
	Text         string    `gorm:"type:text;not null" json:"text"`
	LocationName *string   `gorm:"size:255" json:"location_name,omitempty"`
	Latitude     *float64  `gorm:"type:decimal(9,6)" json:"latitude,omitempty"`
	Longitude    *float64  `gorm:"type:decimal(9,6)" json:"longitude,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	Author   User        `gorm:"constraint:OnDelete:CASCADE" json:"author"`
	Images   []PostImage `gorm:"constraint:OnDelete:CASCADE" json:"images"`
	Likes    []Like      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Comments []Comment   `gorm:"constraint:OnDelete:CASCADE" json:"comments"`
}

// OwnerID implements permissions.Owned.
func (p *Post) OwnerID() uint { return p.AuthorID }

// Kind implements permissions.Owned.
func (p *Post) Kind() permissions.Kind { return permissions.KindPost }
