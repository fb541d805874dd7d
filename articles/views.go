package articles

import (
	"context"

	"kbdesk/models"
)

// ArticleView is an article with its author, category and tags inlined.
type ArticleView struct {
	models.Article
	Author   *models.User     `json:"author"`
	Category *models.Category `json:"category"`
	Tags     []models.Tag     `json:"tags"`
}

// resolve batches the author, category and tag lookups for rows: three
// queries regardless of how many articles there are.
func (m *Manager) resolve(ctx context.Context, rows []models.Article) ([]ArticleView, error) {
	views := make([]ArticleView, 0, len(rows))
	if len(rows) == 0 {
		return views, nil
	}

	articleIDs := make([]string, 0, len(rows))
	authorIDs := make([]string, 0, len(rows))
	var categoryIDs []string
	for _, a := range rows {
		articleIDs = append(articleIDs, a.ID)
		authorIDs = append(authorIDs, a.AuthorID)
		if a.CategoryID != nil {
			categoryIDs = append(categoryIDs, *a.CategoryID)
		}
	}

	authors, err := m.store.UsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	categories, err := m.store.CategoriesByIDs(ctx, categoryIDs)
	if err != nil {
		return nil, err
	}
	tags, err := m.store.TagsForArticles(ctx, articleIDs)
	if err != nil {
		return nil, err
	}

	for _, a := range rows {
		view := ArticleView{Article: a, Tags: tags[a.ID]}
		if view.Tags == nil {
			view.Tags = []models.Tag{}
		}
		if author, ok := authors[a.AuthorID]; ok {
			author := author
			view.Author = &author
		}
		if a.CategoryID != nil {
			if category, ok := categories[*a.CategoryID]; ok {
				category := category
				view.Category = &category
			}
		}
		views = append(views, view)
	}
	return views, nil
}

