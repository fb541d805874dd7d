package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kbdesk/apperr"
	"kbdesk/models"
)

// ArticleFilter narrows ListArticles. Zero values mean "no constraint".
// Matching is exact except Query, which is a substring match on the title.
type ArticleFilter struct {
	Status     string
	CategoryID string
	TagID      string
	AuthorID   string
	Query      string
	Limit      int
}

func (s *Store) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	var article models.Article
	found, err := first(s.conn(ctx).Where("id = ?", id), &article)
	if err != nil {
		return nil, apperr.Store("loading article", err)
	}
	if !found {
		return nil, nil
	}
	return &article, nil
}

func (s *Store) InsertArticle(ctx context.Context, article *models.Article) error {
	if err := s.conn(ctx).Omit(clause.Associations).Create(article).Error; err != nil {
		return apperr.Store("creating article", err)
	}
	return nil
}

// UpdateArticleColumns writes exactly the given columns; no timestamps are
// added behind the caller's back.
func (s *Store) UpdateArticleColumns(ctx context.Context, id string, columns map[string]interface{}) error {
	if len(columns) == 0 {
		return nil
	}
	result := s.conn(ctx).Model(&models.Article{}).Where("id = ?", id).UpdateColumns(columns)
	if result.Error != nil {
		return apperr.Store("updating article", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("article not found")
	}
	return nil
}

// DeleteArticle removes the article and its tag links. The links also carry
// ON DELETE CASCADE; deleting them here keeps drivers without foreign key
// enforcement consistent.
func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&models.ArticleTag{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Article{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("article not found")
		}
		return nil
	})
	return apperr.Store("deleting article", err)
}

// IncrementArticleViews adds one to the counter in a single UPDATE so that
// concurrent callers never lose an increment.
func (s *Store) IncrementArticleViews(ctx context.Context, id string) error {
	result := s.conn(ctx).Model(&models.Article{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return apperr.Store("incrementing views", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("article not found")
	}
	return nil
}

// AddArticleTags links articleID to every id in tagIDs.
func (s *Store) AddArticleTags(ctx context.Context, articleID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}

	links := make([]models.ArticleTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		links = append(links, models.ArticleTag{ArticleID: articleID, TagID: tagID})
	}

	if err := s.conn(ctx).Omit(clause.Associations).Create(&links).Error; err != nil {
		return apperr.Store("linking tags", err)
	}
	return nil
}

// ReplaceArticleTags drops every link of articleID and inserts tagIDs.
func (s *Store) ReplaceArticleTags(ctx context.Context, articleID string, tagIDs []string) error {
	if err := s.conn(ctx).Where("article_id = ?", articleID).Delete(&models.ArticleTag{}).Error; err != nil {
		return apperr.Store("unlinking tags", err)
	}
	return s.AddArticleTags(ctx, articleID, tagIDs)
}

// ListArticles returns articles newest first.
func (s *Store) ListArticles(ctx context.Context, filter ArticleFilter) ([]models.Article, error) {
	q := s.conn(ctx).Model(&models.Article{})

	if filter.Status != "" {
		q = q.Where("articles.status = ?", filter.Status)
	}
	if filter.CategoryID != "" {
		q = q.Where("articles.category_id = ?", filter.CategoryID)
	}
	if filter.AuthorID != "" {
		q = q.Where("articles.author_id = ?", filter.AuthorID)
	}
	if filter.Query != "" {
		q = q.Where("articles.title LIKE ?", "%"+filter.Query+"%")
	}
	if filter.TagID != "" {
		q = q.Joins("INNER JOIN article_tags ON article_tags.article_id = articles.id").
			Where("article_tags.tag_id = ?", filter.TagID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	articles := []models.Article{}
	if err := q.Order("articles.created_at DESC").Find(&articles).Error; err != nil {
		return nil, apperr.Store("listing articles", err)
	}
	return articles, nil
}

// TagsForArticles resolves the tag set of each article id through the join
// table. Tags within an article are ordered by name.
func (s *Store) TagsForArticles(ctx context.Context, articleIDs []string) (map[string][]models.Tag, error) {
	result := make(map[string][]models.Tag, len(articleIDs))
	if len(articleIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ArticleID string
		models.Tag
	}
	err := s.conn(ctx).Table("article_tags").
		Select("article_tags.article_id, tags.id, tags.name, tags.created_at").
		Joins("INNER JOIN tags ON tags.id = article_tags.tag_id").
		Where("article_tags.article_id IN ?", articleIDs).
		Order("tags.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Store("loading article tags", err)
	}

	for _, row := range rows {
		result[row.ArticleID] = append(result[row.ArticleID], row.Tag)
	}
	return result, nil
}

func (s *Store) UsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	result := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []models.User
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, apperr.Store("loading authors", err)
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (s *Store) CategoriesByIDs(ctx context.Context, ids []string) (map[string]models.Category, error) {
	result := make(map[string]models.Category, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var categories []models.Category
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, apperr.Store("loading categories", err)
	}
	for _, c := range categories {
		result[c.ID] = c
	}
	return result, nil
}
