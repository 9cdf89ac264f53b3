package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"decentra_research_backend/internal/auth"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockContentGenerator struct {
	mock.Mock
}

func (m *MockContentGenerator) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, parts)
	resp, _ := args.Get(0).(*genai.GenerateContentResponse)
	return resp, args.Error(1)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(text)}},
		}},
	}
}

func TestNormalizeStyle(t *testing.T) {
	tests := []struct {
		in, want string
		wantErr  bool
	}{
		{"", "APA", false},
		{"apa", "APA", false},
		{" chicago ", "Chicago", false},
		{"IEEE", "IEEE", false},
		{"Harvard", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeStyle(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedStyle)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestMockAnalyzer(t *testing.T) {
	ctx := context.Background()
	report, err := MockAnalyzer{}.CheckPlagiarism(ctx, "anything")
	require.NoError(t, err)
	assert.False(t, report.HighSimilarity)
	assert.NotNil(t, report.Matches)

	citations, err := MockAnalyzer{}.ValidateCitations(ctx, "As shown (Smith, 2020).", "mla")
	require.NoError(t, err)
	assert.Equal(t, "MLA", citations.Style)
	assert.True(t, citations.Valid)
	assert.Empty(t, citations.Issues)

	citations, err = MockAnalyzer{}.ValidateCitations(ctx, "No references here", "")
	require.NoError(t, err)
	assert.False(t, citations.Valid)
	assert.Len(t, citations.Issues, 1)
}

func TestGenAIAnalyzer_CheckPlagiarism(t *testing.T) {
	gen := new(MockContentGenerator)
	gen.On("GenerateContent", mock.Anything, mock.Anything).
		Return(textResponse("```json\n{\"similarityScore\": 42.5, \"matches\": [{\"source\": \"Doe 2019\", \"excerpt\": \"x\", \"similarity\": 80}]}\n```"), nil)

	report, err := NewGenAIAnalyzerWithGenerator(gen).CheckPlagiarism(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, 42.5, report.SimilarityScore)
	assert.True(t, report.HighSimilarity)
	require.Len(t, report.Matches, 1)
	assert.Equal(t, "Doe 2019", report.Matches[0].Source)
	gen.AssertExpectations(t)
}

func TestGenAIAnalyzer_ValidateCitations(t *testing.T) {
	gen := new(MockContentGenerator)
	gen.On("GenerateContent", mock.Anything, mock.Anything).
		Return(textResponse(`{"issues": ["Missing year in (Smith)"]}`), nil)

	report, err := NewGenAIAnalyzerWithGenerator(gen).ValidateCitations(context.Background(), "text", "ieee")
	require.NoError(t, err)
	assert.Equal(t, "IEEE", report.Style)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"Missing year in (Smith)"}, report.Issues)

	_, err = NewGenAIAnalyzerWithGenerator(gen).ValidateCitations(context.Background(), "text", "Vancouver")
	assert.ErrorIs(t, err, ErrUnsupportedStyle)
	gen.AssertNumberOfCalls(t, "GenerateContent", 1)
}

func TestGenAIAnalyzer_BadReplies(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		err  error
	}{
		{"request error", nil, errors.New("quota exceeded")},
		{"no candidates", &genai.GenerateContentResponse{}, nil},
		{"not json", textResponse("I cannot help with that"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockContentGenerator)
			gen.On("GenerateContent", mock.Anything, mock.Anything).Return(tt.resp, tt.err)
			_, err := NewGenAIAnalyzerWithGenerator(gen).CheckPlagiarism(context.Background(), "text")
			assert.Error(t, err)
		})
	}
}

func TestAnalysisService_AnalyzeResearchUsesAttachedPDF(t *testing.T) {
	tokens, err := auth.NewTokenIssuer("test-secret-0123456789", time.Hour)
	require.NoError(t, err)
	research := NewResearchService(NewMemoryResearchStore(), auth.NewTokenGuard(tokens), tokens, nil, nil)
	content := NewMemoryContentStore("")
	pdfs := NewPDFService(0)
	ctx := context.Background()

	created, err := research.Create(ctx, validInput())
	require.NoError(t, err)

	body, err := createTestPDF("Body text (Smith, 2020)")
	require.NoError(t, err)
	obj, err := content.Put(ctx, body)
	require.NoError(t, err)
	_, err = research.AttachContent(ctx, created.Research.ID, auth.Credentials{Token: created.OwnerToken}, obj)
	require.NoError(t, err)

	svc := NewAnalysisService(research, MockAnalyzer{}, content, pdfs)
	analysis, err := svc.AnalyzeResearch(ctx, created.Research.ID, "")
	require.NoError(t, err)
	assert.Equal(t, created.Research.ID, analysis.ResearchID)
	assert.Equal(t, 1, analysis.Pages)
	assert.Equal(t, "APA", analysis.Citations.Style)

	_, err = svc.AnalyzeResearch(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}
