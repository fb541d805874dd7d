package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kbdesk/apperr"
	"kbdesk/models"
	"kbdesk/testutil"
)

func setupStore(t *testing.T) (*Store, *gorm.DB) {
	db := testutil.SetupTestDB(t)
	return New(db), db
}

func TestCreateUser_Conflicts(t *testing.T) {
	s, db := setupStore(t)
	ctx := context.Background()
	existing := testutil.CreateTestUser(t, db)

	err := s.CreateUser(ctx, &models.User{
		Username: existing.Username, Email: "other@example.com", FullName: "Other", PasswordHash: "x",
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	err = s.CreateUser(ctx, &models.User{
		Username: "other", Email: existing.Email, FullName: "Other", PasswordHash: "x",
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCreateUser_DefaultsRole(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	user := &models.User{Username: "ana", Email: "ana@example.com", FullName: "Ana", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, user))

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.RoleEmployee, user.Role)
}

func TestGetUser_Absent(t *testing.T) {
	s, _ := setupStore(t)

	user, err := s.GetUser(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestListUsers_NewestFirst(t *testing.T) {
	s, db := setupStore(t)
	older := testutil.CreateTestUser(t, db)
	db.Model(older).UpdateColumn("created_at", time.Now().Add(-time.Hour))
	newer := testutil.CreateTestUser(t, db)

	users, err := s.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, newer.ID, users[0].ID)
	assert.Equal(t, older.ID, users[1].ID)
}

func TestUpdateUser(t *testing.T) {
	s, db := setupStore(t)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	name := "Renamed"
	role := models.RoleAdmin
	updated, err := s.UpdateUser(ctx, user.ID, UserPatch{FullName: &name, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FullName)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	_, err = s.UpdateUser(ctx, user.ID, UserPatch{Email: &other.Email})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = s.UpdateUser(ctx, "missing", UserPatch{FullName: &name})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteUser_RestrictedByArticles(t *testing.T) {
	s, db := setupStore(t)
	ctx := context.Background()
	author := testutil.CreateTestUser(t, db)
	testutil.CreateTestArticle(t, db, author.ID)

	err := s.DeleteUser(ctx, author.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	still, err := s.GetUser(ctx, author.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestDeleteUser(t *testing.T) {
	s, db := setupStore(t)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db)

	require.NoError(t, s.DeleteUser(ctx, user.ID))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(s.DeleteUser(ctx, user.ID)))
}

func TestCategories_AlphabeticalAndUnique(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	for _, name := range []string{"Sales", "Engineering", "HR"} {
		require.NoError(t, s.CreateCategory(ctx, &models.Category{Name: name}))
	}

	err := s.CreateCategory(ctx, &models.Category{Name: "HR"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "Engineering", categories[0].Name)
	assert.Equal(t, "HR", categories[1].Name)
	assert.Equal(t, "Sales", categories[2].Name)
	assert.Equal(t, models.DefaultCategoryColor, categories[0].Color)
}

func TestDeleteCategory_DetachesArticles(t *testing.T) {
	s, db := setupStore(t)
	ctx := context.Background()
	author := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, "")
	article := testutil.CreateTestArticle(t, db, author.ID, testutil.WithCategory(category.ID))

	require.NoError(t, s.DeleteCategory(ctx, category.ID))

	reloaded, err := s.GetArticle(ctx, article.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Nil(t, reloaded.CategoryID)

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(s.DeleteCategory(ctx, category.ID)))
}

func TestTags_CreateAndList(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTag(ctx, &models.Tag{Name: "onboarding"}))
	require.NoError(t, s.CreateTag(ctx, &models.Tag{Name: "billing"}))
	err := s.CreateTag(ctx, &models.Tag{Name: "billing"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "billing", tags[0].Name)
	assert.Equal(t, "onboarding", tags[1].Name)
}

func TestDeleteTag_CascadesLinksOnly(t *testing.T) {
	s, db := setupStore(t)
	ctx := context.Background()
	author := testutil.CreateTestUser(t, db)
	article := testutil.CreateTestArticle(t, db, author.ID)
	doomed := testutil.CreateTestTag(t, db, "doomed")
	kept := testutil.CreateTestTag(t, db, "kept")
	require.NoError(t, s.AddArticleTags(ctx, article.ID, []string{doomed.ID, kept.ID}))

	require.NoError(t, s.DeleteTag(ctx, doomed.ID))

	tags, err := s.TagsForArticles(ctx, []string{article.ID})
	require.NoError(t, err)
	require.Len(t, tags[article.ID], 1)
	assert.Equal(t, "kept", tags[article.ID][0].Name)

	reloaded, err := s.GetArticle(ctx, article.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded)
}

func TestMissingTagIDs(t *testing.T) {
	s, db := setupStore(t)
	tag := testutil.CreateTestTag(t, db, "")

	missing, err := s.MissingTagIDs(context.Background(), []string{"nope", tag.ID, "gone"})
	require.NoError(t, err)
	assert.Equal(t, []string{"nope", "gone"}, missing)
}

func TestDeleteArticle_RemovesLinks(t *testing.T) {
	s, db := setupStore(t)
	ctx := context.Background()
	author := testutil.CreateTestUser(t, db)
	article := testutil.CreateTestArticle(t, db, author.ID)
	tag := testutil.CreateTestTag(t, db, "")
	require.NoError(t, s.AddArticleTags(ctx, article.ID, []string{tag.ID}))

	require.NoError(t, s.DeleteArticle(ctx, article.ID))

	var links int64
	db.Model(&models.ArticleTag{}).Where("article_id = ?", article.ID).Count(&links)
	assert.Equal(t, int64(0), links)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(s.DeleteArticle(ctx, article.ID)))
}

func TestListArticles_Filters(t *testing.T) {
	s, db := setupStore(t)
	ctx := context.Background()
	alice := testutil.CreateTestUser(t, db)
	bob := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, "")
	tag := testutil.CreateTestTag(t, db, "")
	now := time.Now()

	first := testutil.CreateTestArticle(t, db, alice.ID,
		testutil.WithTitle("Reset your password"),
		testutil.WithStatus(models.StatusPublished),
		testutil.WithCreatedAt(now.Add(-2*time.Hour)))
	second := testutil.CreateTestArticle(t, db, bob.ID,
		testutil.WithTitle("Expense policy"),
		testutil.WithCategory(category.ID),
		testutil.WithCreatedAt(now.Add(-time.Hour)))
	third := testutil.CreateTestArticle(t, db, alice.ID,
		testutil.WithTitle("VPN password rotation"),
		testutil.WithCreatedAt(now))
	require.NoError(t, s.AddArticleTags(ctx, second.ID, []string{tag.ID}))

	ids := func(filter ArticleFilter) []string {
		rows, err := s.ListArticles(ctx, filter)
		require.NoError(t, err)
		out := []string{}
		for _, a := range rows {
			out = append(out, a.ID)
		}
		return out
	}

	assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(ArticleFilter{}))
	assert.Equal(t, []string{first.ID}, ids(ArticleFilter{Status: models.StatusPublished}))
	assert.Equal(t, []string{second.ID}, ids(ArticleFilter{CategoryID: category.ID}))
	assert.Equal(t, []string{second.ID}, ids(ArticleFilter{TagID: tag.ID}))
	assert.Equal(t, []string{third.ID, first.ID}, ids(ArticleFilter{AuthorID: alice.ID}))
	assert.Equal(t, []string{third.ID, first.ID}, ids(ArticleFilter{Query: "password"}))
	assert.Equal(t, []string{third.ID}, ids(ArticleFilter{Limit: 1}))
}

func TestCountArticles(t *testing.T) {
	s, db := setupStore(t)
	ctx := context.Background()
	author := testutil.CreateTestUser(t, db)
	testutil.CreateTestArticle(t, db, author.ID, testutil.WithStatus(models.StatusPublished), testutil.WithViews(10))
	testutil.CreateTestArticle(t, db, author.ID, testutil.WithStatus(models.StatusPublished), testutil.WithViews(5))
	testutil.CreateTestArticle(t, db, author.ID, testutil.WithViews(1))

	counts, err := s.CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, ArticleCounts{Total: 3, Published: 2, Draft: 1, Views: 16}, counts)

	top, err := s.TopArticles(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(10), top[0].Views)
	assert.Equal(t, int64(5), top[1].Views)
}

func TestCountArticles_Empty(t *testing.T) {
	s, _ := setupStore(t)

	counts, err := s.CountArticles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ArticleCounts{}, counts)
}

func TestTransaction_RollsBack(t *testing.T) {
	s, db := setupStore(t)
	ctx := context.Background()
	boom := apperr.Validation("boom")

	err := s.Transaction(ctx, func(tx *Store) error {
		if err := tx.CreateTag(ctx, &models.Tag{Name: "temporary"}); err != nil {
			return err
		}
		return boom
	})
	assert.Same(t, boom, err)

	var n int64
	db.Model(&models.Tag{}).Count(&n)
	assert.Equal(t, int64(0), n)
}

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return New(db), mock
}

func TestIncrementArticleViews_StoreError(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "articles" SET "views"=views + $1`)).
		WithArgs(1, "a-1").
		WillReturnError(errors.New("connection reset by peer"))

	err := s.IncrementArticleViews(context.Background(), "a-1")
	assert.Equal(t, apperr.KindStore, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementArticleViews_NotFound(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "articles" SET "views"=views + $1`)).
		WithArgs(1, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.IncrementArticleViews(context.Background(), "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetArticle_StoreError(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "articles"`)).
		WillReturnError(errors.New("too many connections"))

	article, err := s.GetArticle(context.Background(), "a-1")
	assert.Nil(t, article)
	assert.Equal(t, apperr.KindStore, apperr.KindOf(err))
}
