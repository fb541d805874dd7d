package tags

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"kbdesk/auth"
	"kbdesk/models"
	"kbdesk/store"
	"kbdesk/testutil"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB, []*http.Cookie) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	gate := auth.NewGate(s, time.Hour)

	router, api := testutil.NewTestRouter()
	auth.NewAuthModule(s, gate).RegisterRoutes(api)
	NewTagsModule(s, gate).RegisterRoutes(api)

	user := testutil.CreateTestUser(t, db)
	return router, db, testutil.Login(t, router, user.Username)
}

func TestCreateTag(t *testing.T) {
	router, _, cookies := setupRouter(t)

	w := testutil.PerformRequest(router, http.MethodPost, "/api/tags", map[string]string{"name": " vpn "}, cookies...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var tag models.Tag
	testutil.DecodeJSON(t, w, &tag)
	assert.Equal(t, "vpn", tag.Name)

	w = testutil.PerformRequest(router, http.MethodPost, "/api/tags", map[string]string{"name": "vpn"}, cookies...)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = testutil.PerformRequest(router, http.MethodPost, "/api/tags", map[string]string{}, cookies...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "field 'name' is required")
}

func TestListTags(t *testing.T) {
	router, db, cookies := setupRouter(t)
	testutil.CreateTestTag(t, db, "payroll")
	testutil.CreateTestTag(t, db, "hardware")

	w := testutil.PerformRequest(router, http.MethodGet, "/api/tags", nil, cookies...)
	require.Equal(t, http.StatusOK, w.Code)

	var tags []models.Tag
	testutil.DecodeJSON(t, w, &tags)
	require.Len(t, tags, 2)
	assert.Equal(t, "hardware", tags[0].Name)
	assert.Equal(t, "payroll", tags[1].Name)
}

func TestDeleteTag_UnlinksArticles(t *testing.T) {
	router, db, cookies := setupRouter(t)
	author := testutil.CreateTestUser(t, db)
	article := testutil.CreateTestArticle(t, db, author.ID)
	tag := testutil.CreateTestTag(t, db, "")
	require.NoError(t, store.New(db).AddArticleTags(context.Background(), article.ID, []string{tag.ID}))

	w := testutil.PerformRequest(router, http.MethodDelete, "/api/tags/"+tag.ID, nil, cookies...)
	require.Equal(t, http.StatusOK, w.Code)

	var links, articles int64
	db.Model(&models.ArticleTag{}).Where("tag_id = ?", tag.ID).Count(&links)
	db.Model(&models.Article{}).Where("id = ?", article.ID).Count(&articles)
	assert.Equal(t, int64(0), links)
	assert.Equal(t, int64(1), articles)
}
