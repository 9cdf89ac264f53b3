package services

import (
	"context"
	"errors"

	"decentra_research_backend/internal/models"
)

var (
	ErrNotFound            = errors.New("research not found")
	ErrCitingPaperNotFound = errors.New("citing research not found")
	ErrContentNotFound     = errors.New("content not found")
)

// ResearchStore persists research records and their citation ledger.
type ResearchStore interface {
	Create(ctx context.Context, research *models.Research) error
	GetByID(ctx context.Context, id string) (*models.Research, error)
	List(ctx context.Context) ([]models.Research, error)
	// Update writes the mutable fields and updatedAt. It never touches citations.
	Update(ctx context.Context, research *models.Research) error
	Delete(ctx context.Context, id string) error
	// IncrementCitations atomically adds one citation. A non-nil citation is
	// written to the ledger in the same unit of work.
	IncrementCitations(ctx context.Context, id string, citation *models.Citation) (*models.Research, error)
	ListCitations(ctx context.Context, citedID string) ([]models.Citation, error)
}

// StoredObject describes content written to a ContentStore.
type StoredObject struct {
	Locator string `json:"locator"`
	URL     string `json:"url"`
	Size    int64  `json:"size"`
}

// ContentStore is a content-addressed blob store standing in for IPFS.
type ContentStore interface {
	Put(ctx context.Context, content []byte) (*StoredObject, error)
	Get(ctx context.Context, locator string) ([]byte, error)
}

// ContractClient is the smart-contract RPC surface the backend calls.
type ContractClient interface {
	AddCitation(ctx context.Context, citingID, citedID string) (txHash string, err error)
}

// TextAnalyzer is the text-analysis collaborator behind the AI endpoints.
type TextAnalyzer interface {
	CheckPlagiarism(ctx context.Context, text string) (*PlagiarismReport, error)
	ValidateCitations(ctx context.Context, text, style string) (*CitationReport, error)
}
