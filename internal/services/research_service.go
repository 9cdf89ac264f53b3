package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"decentra_research_backend/internal/auth"
	"decentra_research_backend/internal/models"
	"decentra_research_backend/internal/utils/broker"

	"github.com/rs/zerolog"
)

const (
	ResearchTopic = "research"

	EventResearchCreated = "research.created"
	EventResearchUpdated = "research.updated"
	EventResearchDeleted = "research.deleted"
	EventResearchCited   = "research.cited"
)

// CreatedResearch is a freshly stored record plus the owner token issued for it.
type CreatedResearch struct {
	Research   *models.Research
	OwnerToken string
}

// ResearchService holds the rules around the research store: validation,
// ownership checks, atomic citing and change events.
type ResearchService struct {
	store     ResearchStore
	guard     auth.Guard
	tokens    *auth.TokenIssuer
	contracts ContractClient
	events    broker.Publisher
	now       func() time.Time
}

// NewResearchService wires the service. tokens is nil when owner tokens are
// disabled; contracts and events may be nil.
func NewResearchService(store ResearchStore, guard auth.Guard, tokens *auth.TokenIssuer, contracts ContractClient, events broker.Publisher) *ResearchService {
	return &ResearchService{
		store:     store,
		guard:     guard,
		tokens:    tokens,
		contracts: contracts,
		events:    events,
		now:       time.Now,
	}
}

func (s *ResearchService) List(ctx context.Context) ([]models.Research, error) {
	return s.store.List(ctx)
}

func (s *ResearchService) Get(ctx context.Context, id string) (*models.Research, error) {
	return s.store.GetByID(ctx, id)
}

// Create stores a new record. Server-owned fields from the input are discarded.
func (s *ResearchService) Create(ctx context.Context, input models.Research) (*CreatedResearch, error) {
	research := &models.Research{
		Title:    input.Title,
		Abstract: input.Abstract,
		Authors:  append([]string(nil), input.Authors...),
		Keywords: append([]string(nil), input.Keywords...),
		PDFURL:   input.PDFURL,
		IPFSHash: input.IPFSHash,
		Owner:    input.Owner,
	}
	research.Normalize()
	if err := research.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	research.CreatedAt = now
	research.UpdatedAt = now

	if err := s.store.Create(ctx, research); err != nil {
		return nil, fmt.Errorf("failed to create research: %w", err)
	}

	created := &CreatedResearch{Research: research}
	if s.tokens != nil {
		token, err := s.tokens.Issue(research.Owner)
		if err != nil {
			return nil, fmt.Errorf("failed to issue owner token: %w", err)
		}
		created.OwnerToken = token
	}

	zerolog.Ctx(ctx).Info().Str("research_id", research.ID).Str("owner", research.Owner).Msg("research created")
	s.publish(ctx, EventResearchCreated, research.ID, research)
	return created, nil
}

// Update applies patch to the stored record after the guard passes. The
// merged record must still validate.
func (s *ResearchService) Update(ctx context.Context, id string, cred auth.Credentials, patch models.ResearchPatch) (*models.Research, error) {
	research, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(research, cred); err != nil {
		zerolog.Ctx(ctx).Warn().Str("research_id", id).Err(err).Msg("update rejected by ownership guard")
		return nil, err
	}

	patch.Apply(research)
	research.Normalize()
	if err := research.Validate(); err != nil {
		return nil, err
	}
	return s.save(ctx, research)
}

// Delete removes the record after the guard passes.
func (s *ResearchService) Delete(ctx context.Context, id string, cred auth.Credentials) error {
	research, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guard.Authorize(research, cred); err != nil {
		zerolog.Ctx(ctx).Warn().Str("research_id", id).Err(err).Msg("delete rejected by ownership guard")
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().Str("research_id", id).Msg("research deleted")
	s.publish(ctx, EventResearchDeleted, id, nil)
	return nil
}

// Cite adds one citation. When citingID is set the citation is recorded on
// the rewards contract and in the citation ledger.
func (s *ResearchService) Cite(ctx context.Context, id, citingID string) (*models.Research, error) {
	var citation *models.Citation
	if citingID != "" {
		if citingID == id {
			return nil, &models.ValidationError{Problems: []string{"A paper cannot cite itself"}}
		}
		citation = &models.Citation{CitingPaper: citingID, CreatedAt: s.now().UTC()}
		if s.contracts != nil {
			txHash, err := s.contracts.AddCitation(ctx, citingID, id)
			if err != nil {
				return nil, fmt.Errorf("failed to record citation on chain: %w", err)
			}
			citation.TransactionHash = txHash
		}
	}

	research, err := s.store.IncrementCitations(ctx, id, citation)
	if errors.Is(err, ErrCitingPaperNotFound) {
		return nil, &models.ValidationError{Problems: []string{"Citing research not found"}}
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventResearchCited, id, research)
	return research, nil
}

// Citations lists the ledger rows of a cited paper.
func (s *ResearchService) Citations(ctx context.Context, id string) ([]models.Citation, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListCitations(ctx, id)
}

// AttachContent points the record at stored content after the guard passes.
func (s *ResearchService) AttachContent(ctx context.Context, id string, cred auth.Credentials, obj *StoredObject) (*models.Research, error) {
	research, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(research, cred); err != nil {
		return nil, err
	}
	research.PDFURL = obj.URL
	research.IPFSHash = obj.Locator
	return s.save(ctx, research)
}

// Authorize runs the ownership guard against the stored record.
func (s *ResearchService) Authorize(ctx context.Context, id string, cred auth.Credentials) (*models.Research, error) {
	research, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(research, cred); err != nil {
		return nil, err
	}
	return research, nil
}

func (s *ResearchService) save(ctx context.Context, research *models.Research) (*models.Research, error) {
	research.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, research); err != nil {
		return nil, err
	}
	updated, err := s.store.GetByID(ctx, research.ID)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("research_id", research.ID).Msg("research updated")
	s.publish(ctx, EventResearchUpdated, research.ID, updated)
	return updated, nil
}

func (s *ResearchService) publish(ctx context.Context, eventType, id string, data interface{}) {
	if s.events == nil {
		return
	}
	ev, err := broker.NewEvent(eventType, id, data)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("event", eventType).Msg("failed to encode event")
		return
	}
	s.events.Publish(ResearchTopic, ev)
}
