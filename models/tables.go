package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"

	StatusDraft     = "draft"
	StatusPublished = "published"

	DefaultCategoryColor = "#3b82f6"
)

type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"` // json:"-" keeps the hash out of every response
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName     string    `gorm:"type:varchar(255);not null" json:"fullName"`
	Role         string    `gorm:"type:varchar(20);not null;default:employee" json:"role"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
}

type Category struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	Color       string    `gorm:"type:varchar(20);not null;default:'#3b82f6'" json:"color"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Tag struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Article struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Excerpt     *string    `gorm:"type:text" json:"excerpt"`
	CoverImage  *string    `gorm:"type:text" json:"coverImage"`
	Status      string     `gorm:"type:varchar(20);not null;default:draft;index" json:"status"`
	CategoryID  *string    `gorm:"type:varchar(36);index" json:"categoryId"`
	AuthorID    string     `gorm:"type:varchar(36);not null;index" json:"authorId"`
	Views       int64      `gorm:"not null;default:0" json:"views"`
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	PublishedAt *time.Time `json:"publishedAt"`

	// Only declared so AutoMigrate emits the foreign keys; never loaded.
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"-"`
	Author   *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT" json:"-"`
}

// ArticleTag is the join row between an article and one of its tags.
type ArticleTag struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ArticleID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_article_tag" json:"articleId"`
	TagID     string `gorm:"type:varchar(36);not null;uniqueIndex:idx_article_tag;index" json:"tagId"`

	Article *Article `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"-"`
	Tag     *Tag     `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ArticleTag) TableName() string {
	return "article_tags"
}

func newID() string {
	return uuid.NewString()
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = newID()
	}
	return nil
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	return nil
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = newID()
	}
	return nil
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = newID()
	}
	return nil
}

func (l *ArticleTag) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = newID()
	}
	return nil
}

// IsValidStatus reports whether s is a known article status.
func IsValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished
}

// IsValidRole reports whether r is a known user role.
func IsValidRole(r string) bool {
	return r == RoleAdmin || r == RoleEmployee
}
