package model

import "time"

type Article struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Title       string    `gorm:"size:200;not null;uniqueIndex:idx_article_title_owner" json:"title"`
	Content     string    `gorm:"type:text" json:"content"`
	VideoURL    string    `gorm:"size:500" json:"video_url,omitempty"`
	IsPublished bool      `gorm:"default:false;index" json:"is_published"`
	OwnerID     uint      `gorm:"not null;uniqueIndex:idx_article_title_owner" json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Owner User `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Article) TableName() string {
	return "articles"
}

const MaxCommentLength = 360

type Comment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	ArticleID uint      `gorm:"not null;index" json:"article_id"`
	Text      string    `gorm:"size:360;not null" json:"text"`
	IsPublic  bool      `gorm:"default:false;index" json:"is_public"`
	CreatedAt time.Time `json:"created_at"`

	Author  User    `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Article Article `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Comment) TableName() string {
	return "comments"
}
