package store

import (
	"context"

	"gorm.io/gorm"

	"kbdesk/apperr"
	"kbdesk/models"
)

func (s *Store) GetTag(ctx context.Context, id string) (*models.Tag, error) {
	var tag models.Tag
	found, err := first(s.conn(ctx).Where("id = ?", id), &tag)
	if err != nil {
		return nil, apperr.Store("loading tag", err)
	}
	if !found {
		return nil, nil
	}
	return &tag, nil
}

func (s *Store) GetTagByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	found, err := first(s.conn(ctx).Where("name = ?", name), &tag)
	if err != nil {
		return nil, apperr.Store("loading tag", err)
	}
	if !found {
		return nil, nil
	}
	return &tag, nil
}

// ListTags returns all tags alphabetically.
func (s *Store) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	if err := s.conn(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, apperr.Store("listing tags", err)
	}
	return tags, nil
}

// MissingTagIDs returns the ids in ids that have no tag row, in input order.
func (s *Store) MissingTagIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var existing []string
	if err := s.conn(ctx).Model(&models.Tag{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		return nil, apperr.Store("checking tags", err)
	}

	known := make(map[string]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}

	var missing []string
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (s *Store) CreateTag(ctx context.Context, tag *models.Tag) error {
	existing, err := s.GetTagByName(ctx, tag.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Conflict("tag %q already exists", tag.Name)
	}

	if err := s.conn(ctx).Create(tag).Error; err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("tag %q already exists", tag.Name)
		}
		return apperr.Store("creating tag", err)
	}
	return nil
}

// DeleteTag removes a tag together with every article link pointing at it.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&models.ArticleTag{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Tag{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("tag not found")
		}
		return nil
	})
	return apperr.Store("deleting tag", err)
}
