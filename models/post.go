package models

import "time"

// Post represents a blog post with a thumbnail image.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Category    string    `gorm:"size:32;not null;index;default:'Uncategorized'" json:"category"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Thumbnail   string    `gorm:"size:255;not null" json:"thumbnail"`
	CreatorID   uint      `gorm:"index;not null" json:"creator"`
	Creator     *User     `gorm:"foreignKey:CreatorID" json:"author,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"index" json:"updatedAt"`
}

// OwnerID reports the creator as owner of the post.
func (p Post) OwnerID() uint { return p.CreatorID }
