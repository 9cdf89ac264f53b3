package services

import (
	"testing"
	"time"

	"decentra_research_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestToBibTeX(t *testing.T) {
	r := &models.Research{
		ID:        "5f0c9a7e-1111-2222-3333-444455556666",
		Title:     "Blockchain for Academic Integrity",
		Abstract:  "We timestamp papers.",
		Authors:   []string{"Jane Smith", "John Doe"},
		Keywords:  []string{"blockchain", "integrity"},
		IPFSHash:  "QmExample",
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	out := ToBibTeX(r)
	assert.Contains(t, out, "@misc{smith20245f0c9a7e,")
	assert.Contains(t, out, "Blockchain for Academic Integrity")
	assert.Contains(t, out, "Jane Smith and John Doe")
	assert.Contains(t, out, "blockchain, integrity")
	assert.Contains(t, out, "IPFS: QmExample")
	assert.NotContains(t, out, "url")
}

func TestCiteKeyWithoutAuthors(t *testing.T) {
	r := &models.Research{ID: "abc", CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "anon2023abc", citeKey(r))
}
