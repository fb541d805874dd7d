package store

import (
	"context"

	"kbdesk/apperr"
	"kbdesk/models"
)

type ArticleCounts struct {
	Total     int64
	Published int64
	Draft     int64
	Views     int64
}

// CountArticles aggregates article totals by status plus the sum of views
// in a single query.
func (s *Store) CountArticles(ctx context.Context) (ArticleCounts, error) {
	var row struct {
		Total     int64
		Published int64
		Draft     int64
		Views     int64
	}

	err := s.conn(ctx).Model(&models.Article{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS published, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS draft, "+
				"COALESCE(SUM(views), 0) AS views",
			models.StatusPublished, models.StatusDraft,
		).
		Scan(&row).Error
	if err != nil {
		return ArticleCounts{}, apperr.Store("counting articles", err)
	}

	return ArticleCounts{
		Total:     row.Total,
		Published: row.Published,
		Draft:     row.Draft,
		Views:     row.Views,
	}, nil
}

// TopArticles returns the most viewed articles, highest first.
func (s *Store) TopArticles(ctx context.Context, limit int) ([]models.Article, error) {
	articles := []models.Article{}
	err := s.conn(ctx).
		Order("views DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, apperr.Store("loading top articles", err)
	}
	return articles, nil
}
