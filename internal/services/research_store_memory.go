package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"decentra_research_backend/internal/models"

	"github.com/google/uuid"
)

// MemoryResearchStore keeps records in process memory. Used for tests and
// for running the API without a database.
type MemoryResearchStore struct {
	mu        sync.RWMutex
	research  map[string]*models.Research
	citations []models.Citation
	nextID    uint
}

func NewMemoryResearchStore() *MemoryResearchStore {
	return &MemoryResearchStore{research: make(map[string]*models.Research)}
}

func cloneResearch(r *models.Research) *models.Research {
	c := *r
	c.Authors = append([]string(nil), r.Authors...)
	c.Keywords = append([]string(nil), r.Keywords...)
	return &c
}

func (s *MemoryResearchStore) Create(ctx context.Context, research *models.Research) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if research.ID == "" {
		research.ID = uuid.NewString()
	}
	now := time.Now()
	if research.CreatedAt.IsZero() {
		research.CreatedAt = now
	}
	if research.UpdatedAt.IsZero() {
		research.UpdatedAt = now
	}
	s.research[research.ID] = cloneResearch(research)
	return nil
}

func (s *MemoryResearchStore) GetByID(ctx context.Context, id string) (*models.Research, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.research[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneResearch(r), nil
}

func (s *MemoryResearchStore) List(ctx context.Context) ([]models.Research, error) {
	s.mu.RLock()
	out := make([]models.Research, 0, len(s.research))
	for _, r := range s.research {
		out = append(out, *cloneResearch(r))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryResearchStore) Update(ctx context.Context, research *models.Research) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.research[research.ID]
	if !ok {
		return ErrNotFound
	}
	updated := cloneResearch(research)
	stored.Title = updated.Title
	stored.Abstract = updated.Abstract
	stored.Authors = updated.Authors
	stored.Keywords = updated.Keywords
	stored.PDFURL = updated.PDFURL
	stored.IPFSHash = updated.IPFSHash
	stored.UpdatedAt = updated.UpdatedAt
	return nil
}

func (s *MemoryResearchStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.research[id]; !ok {
		return ErrNotFound
	}
	delete(s.research, id)
	return nil
}

func (s *MemoryResearchStore) IncrementCitations(ctx context.Context, id string, citation *models.Citation) (*models.Research, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.research[id]
	if !ok {
		return nil, ErrNotFound
	}
	if citation != nil {
		if _, ok := s.research[citation.CitingPaper]; !ok {
			return nil, ErrCitingPaperNotFound
		}
		s.nextID++
		citation.ID = s.nextID
		citation.CitedPaper = id
		if citation.CreatedAt.IsZero() {
			citation.CreatedAt = time.Now()
		}
		s.citations = append(s.citations, *citation)
	}
	stored.Citations++
	return cloneResearch(stored), nil
}

func (s *MemoryResearchStore) ListCitations(ctx context.Context, citedID string) ([]models.Citation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Citation{}
	for _, c := range s.citations {
		if c.CitedPaper == citedID {
			out = append(out, c)
		}
	}
	return out, nil
}
