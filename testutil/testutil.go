// Package testutil opens throwaway SQLite databases and creates fixture rows
// for package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kbdesk/common"
	"kbdesk/database"
	"kbdesk/models"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// SetupTestDB opens a migrated SQLite database in a temp dir with foreign
// keys enabled. It is closed when the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(common.SQLiteDSN(path)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(database.Tables()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

func unique() string {
	return uuid.NewString()[:8]
}

type UserOption func(*models.User)

func WithUsername(username string) UserOption {
	return func(u *models.User) { u.Username = username }
}

func WithEmail(email string) UserOption {
	return func(u *models.User) { u.Email = email }
}

func WithRole(role string) UserOption {
	return func(u *models.User) { u.Role = role }
}

// CreateTestUser inserts a user whose password is TestPassword.
func CreateTestUser(t *testing.T, db *gorm.DB, opts ...UserOption) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	id := unique()
	user := &models.User{
		Username:     "user_" + id,
		Email:        fmt.Sprintf("user_%s@example.com", id),
		FullName:     "Test User " + id,
		PasswordHash: string(hash),
		Role:         models.RoleEmployee,
	}
	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func CreateTestCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()

	if name == "" {
		name = "category_" + unique()
	}
	category := &models.Category{Name: name, Color: models.DefaultCategoryColor}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("Failed to create test category: %v", err)
	}
	return category
}

func CreateTestTag(t *testing.T, db *gorm.DB, name string) *models.Tag {
	t.Helper()

	if name == "" {
		name = "tag_" + unique()
	}
	tag := &models.Tag{Name: name}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("Failed to create test tag: %v", err)
	}
	return tag
}

type ArticleOption func(*models.Article)

func WithStatus(status string) ArticleOption {
	return func(a *models.Article) { a.Status = status }
}

func WithCategory(categoryID string) ArticleOption {
	return func(a *models.Article) { a.CategoryID = &categoryID }
}

func WithTitle(title string) ArticleOption {
	return func(a *models.Article) { a.Title = title }
}

func WithCreatedAt(at time.Time) ArticleOption {
	return func(a *models.Article) { a.CreatedAt = at }
}

func WithViews(views int64) ArticleOption {
	return func(a *models.Article) { a.Views = views }
}

// CreateTestArticle inserts a bare article row without tag links.
func CreateTestArticle(t *testing.T, db *gorm.DB, authorID string, opts ...ArticleOption) *models.Article {
	t.Helper()

	article := &models.Article{
		Title:    "Article " + unique(),
		Content:  "# Heading\n\nSome **content**.",
		Status:   models.StatusDraft,
		AuthorID: authorID,
	}
	for _, opt := range opts {
		opt(article)
	}

	if err := db.Omit("Category", "Author").Create(article).Error; err != nil {
		t.Fatalf("Failed to create test article: %v", err)
	}
	return article
}
