package services

import (
	"context"
	"errors"

	"decentra_research_backend/internal/models"

	"gorm.io/gorm"
)

var mutableColumns = []string{"title", "abstract", "authors", "keywords", "pdf_url", "ipfs_hash", "updated_at"}

// DefaultResearchStore implements ResearchStore on gorm
type DefaultResearchStore struct {
	db *gorm.DB
}

// NewResearchStoreDB creates a gorm-backed ResearchStore
func NewResearchStoreDB(db *gorm.DB) ResearchStore {
	return &DefaultResearchStore{db: db}
}

func (s *DefaultResearchStore) Create(ctx context.Context, research *models.Research) error {
	return s.db.WithContext(ctx).Create(research).Error
}

func (s *DefaultResearchStore) GetByID(ctx context.Context, id string) (*models.Research, error) {
	var research models.Research
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&research).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &research, nil
}

// List returns every record, newest first
func (s *DefaultResearchStore) List(ctx context.Context) ([]models.Research, error) {
	research := []models.Research{}
	result := s.db.WithContext(ctx).Order("created_at desc").Order("id desc").Find(&research)
	if result.Error != nil {
		return nil, result.Error
	}
	return research, nil
}

func (s *DefaultResearchStore) Update(ctx context.Context, research *models.Research) error {
	result := s.db.WithContext(ctx).Model(&models.Research{}).
		Where("id = ?", research.ID).
		Select(mutableColumns).
		Updates(research)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DefaultResearchStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Research{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementCitations bumps the counter with a single UPDATE expression so
// concurrent cites never lose an increment.
func (s *DefaultResearchStore) IncrementCitations(ctx context.Context, id string, citation *models.Citation) (*models.Research, error) {
	var research models.Research
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Research{}).
			Where("id = ?", id).
			UpdateColumn("citations", gorm.Expr("citations + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		if citation != nil {
			var count int64
			if err := tx.Model(&models.Research{}).Where("id = ?", citation.CitingPaper).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrCitingPaperNotFound
			}
			citation.CitedPaper = id
			if err := tx.Create(citation).Error; err != nil {
				return err
			}
		}

		return tx.Where("id = ?", id).First(&research).Error
	})
	if err != nil {
		return nil, err
	}
	return &research, nil
}

func (s *DefaultResearchStore) ListCitations(ctx context.Context, citedID string) ([]models.Citation, error) {
	citations := []models.Citation{}
	result := s.db.WithContext(ctx).Where("cited_paper = ?", citedID).Order("created_at asc").Order("id asc").Find(&citations)
	if result.Error != nil {
		return nil, result.Error
	}
	return citations, nil
}
