package articles

import (
	"context"
	"strings"
	"time"

	"kbdesk/apperr"
	"kbdesk/models"
	"kbdesk/store"
)

const DefaultRecentLimit = 5

// ArticleInput carries the fields of a new article.
type ArticleInput struct {
	Title      string
	Content    string
	Excerpt    *string
	CoverImage *string
	Status     string
	CategoryID *string
	AuthorID   string
}

// ArticlePatch lists exactly the fields an update may touch. A nil field is
// left alone. An empty CategoryID detaches the category.
type ArticlePatch struct {
	Title      *string
	Content    *string
	Excerpt    *string
	CoverImage *string
	Status     *string
	CategoryID *string
}

// ListFilter narrows List. Matching is exact, except Query which matches a
// substring of the title.
type ListFilter struct {
	Status     string
	CategoryID string
	TagID      string
	AuthorID   string
	Query      string
}

// Manager owns the composite article writes: the row, its tag links and the
// timestamps derived from status changes.
type Manager struct {
	store *store.Store
	now   func() time.Time
}

func NewManager(s *store.Store) *Manager {
	return &Manager{store: s, now: time.Now}
}

// Create inserts the article and one link per distinct tag id. publishedAt
// is stamped when the article is born published.
func (m *Manager) Create(ctx context.Context, in ArticleInput, tagIDs []string) (*models.Article, error) {
	status := in.Status
	if status == "" {
		status = models.StatusDraft
	}
	if !models.IsValidStatus(status) {
		return nil, apperr.Validation("status must be one of: draft published")
	}
	if in.AuthorID == "" {
		return nil, apperr.Validation("author is required")
	}

	now := m.now()
	article := &models.Article{
		Title:      in.Title,
		Content:    in.Content,
		Excerpt:    in.Excerpt,
		CoverImage: in.CoverImage,
		Status:     status,
		CategoryID: normalizeCategoryID(in.CategoryID),
		AuthorID:   in.AuthorID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if status == models.StatusPublished {
		article.PublishedAt = &now
	}

	tagIDs = dedupe(tagIDs)

	err := m.store.Transaction(ctx, func(tx *store.Store) error {
		if err := m.checkReferences(ctx, tx, article.CategoryID, tagIDs); err != nil {
			return err
		}
		if err := tx.InsertArticle(ctx, article); err != nil {
			return err
		}
		return tx.AddArticleTags(ctx, article.ID, tagIDs)
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

// Update applies patch and always refreshes updatedAt. Every update that
// carries status=published re-stamps publishedAt, including republishing an
// already published article. A nil tagIDs keeps the current links; a non-nil
// one, empty included, replaces them wholesale.
func (m *Manager) Update(ctx context.Context, id string, patch ArticlePatch, tagIDs *[]string) (*models.Article, error) {
	if patch.Status != nil && !models.IsValidStatus(*patch.Status) {
		return nil, apperr.Validation("status must be one of: draft published")
	}

	now := m.now()
	columns := map[string]interface{}{"updated_at": now}

	if patch.Title != nil {
		columns["title"] = *patch.Title
	}
	if patch.Content != nil {
		columns["content"] = *patch.Content
	}
	if patch.Excerpt != nil {
		columns["excerpt"] = *patch.Excerpt
	}
	if patch.CoverImage != nil {
		columns["cover_image"] = *patch.CoverImage
	}
	if patch.Status != nil {
		columns["status"] = *patch.Status
		if *patch.Status == models.StatusPublished {
			columns["published_at"] = now
		}
	}

	var categoryID *string
	if patch.CategoryID != nil {
		categoryID = normalizeCategoryID(patch.CategoryID)
		if categoryID == nil {
			columns["category_id"] = nil
		} else {
			columns["category_id"] = *categoryID
		}
	}

	var newTags []string
	if tagIDs != nil {
		newTags = dedupe(*tagIDs)
	}

	var updated *models.Article
	err := m.store.Transaction(ctx, func(tx *store.Store) error {
		existing, err := tx.GetArticle(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperr.NotFound("article not found")
		}

		if err := m.checkReferences(ctx, tx, categoryID, newTags); err != nil {
			return err
		}
		if err := tx.UpdateArticleColumns(ctx, id, columns); err != nil {
			return err
		}
		if tagIDs != nil {
			if err := tx.ReplaceArticleTags(ctx, id, newTags); err != nil {
				return err
			}
		}

		updated, err = tx.GetArticle(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the article; its tag links go with it.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.DeleteArticle(ctx, id)
}

// IncrementViews adds exactly one view. There is no deduplication: every
// call counts.
func (m *Manager) IncrementViews(ctx context.Context, id string) error {
	return m.store.IncrementArticleViews(ctx, id)
}

// Get resolves one article with its author, category and tags.
func (m *Manager) Get(ctx context.Context, id string) (*ArticleView, error) {
	article, err := m.store.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, apperr.NotFound("article not found")
	}

	views, err := m.resolve(ctx, []models.Article{*article})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List resolves every article matching filter, newest first.
func (m *Manager) List(ctx context.Context, filter ListFilter) ([]ArticleView, error) {
	rows, err := m.store.ListArticles(ctx, store.ArticleFilter{
		Status:     filter.Status,
		CategoryID: filter.CategoryID,
		TagID:      filter.TagID,
		AuthorID:   filter.AuthorID,
		Query:      filter.Query,
	})
	if err != nil {
		return nil, err
	}
	return m.resolve(ctx, rows)
}

// Recent resolves the newest limit articles; limit <= 0 means DefaultRecentLimit.
func (m *Manager) Recent(ctx context.Context, limit int) ([]ArticleView, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := m.store.ListArticles(ctx, store.ArticleFilter{Limit: limit})
	if err != nil {
		return nil, err
	}
	return m.resolve(ctx, rows)
}

// checkReferences rejects unknown category or tag ids before anything is
// written, so no dangling link can be created.
func (m *Manager) checkReferences(ctx context.Context, tx *store.Store, categoryID *string, tagIDs []string) error {
	if categoryID != nil {
		category, err := tx.GetCategory(ctx, *categoryID)
		if err != nil {
			return err
		}
		if category == nil {
			return apperr.Validation("category %q does not exist", *categoryID)
		}
	}

	missing, err := tx.MissingTagIDs(ctx, tagIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return apperr.Validation("unknown tag id(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

func normalizeCategoryID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// dedupe drops empty and repeated ids, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
