package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"decentra_research_backend/internal/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
)

// HighSimilarityThreshold is the similarity percentage above which a text is flagged.
const HighSimilarityThreshold = 30.0

var CitationStyles = []string{"APA", "MLA", "Chicago", "IEEE"}

var ErrUnsupportedStyle = errors.New("unsupported citation style")

type PlagiarismMatch struct {
	Source     string  `json:"source"`
	Excerpt    string  `json:"excerpt"`
	Similarity float64 `json:"similarity"`
}

type PlagiarismReport struct {
	SimilarityScore float64           `json:"similarityScore"`
	HighSimilarity  bool              `json:"highSimilarity"`
	Matches         []PlagiarismMatch `json:"matches"`
}

type CitationReport struct {
	Style  string   `json:"style"`
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// ResearchAnalysis is the combined report for a stored record.
type ResearchAnalysis struct {
	ResearchID string            `json:"researchId"`
	Pages      int               `json:"pages,omitempty"`
	Plagiarism *PlagiarismReport `json:"plagiarism"`
	Citations  *CitationReport   `json:"citations"`
}

// NormalizeStyle maps a style name to its canonical spelling. Empty means APA.
func NormalizeStyle(style string) (string, error) {
	style = strings.TrimSpace(style)
	if style == "" {
		return "APA", nil
	}
	for _, s := range CitationStyles {
		if strings.EqualFold(s, style) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnsupportedStyle, style)
}

func finishPlagiarism(r *PlagiarismReport) *PlagiarismReport {
	if r.SimilarityScore < 0 {
		r.SimilarityScore = 0
	}
	if r.SimilarityScore > 100 {
		r.SimilarityScore = 100
	}
	r.HighSimilarity = r.SimilarityScore > HighSimilarityThreshold
	if r.Matches == nil {
		r.Matches = []PlagiarismMatch{}
	}
	return r
}

func finishCitations(r *CitationReport, style string) *CitationReport {
	r.Style = style
	if r.Issues == nil {
		r.Issues = []string{}
	}
	r.Valid = len(r.Issues) == 0
	return r
}

// MockAnalyzer returns canned reports. It never inspects meaning, only shape.
type MockAnalyzer struct{}

func (MockAnalyzer) CheckPlagiarism(ctx context.Context, text string) (*PlagiarismReport, error) {
	return finishPlagiarism(&PlagiarismReport{SimilarityScore: 12}), nil
}

func (MockAnalyzer) ValidateCitations(ctx context.Context, text, style string) (*CitationReport, error) {
	style, err := NormalizeStyle(style)
	if err != nil {
		return nil, err
	}
	var issues []string
	if !strings.Contains(text, "(") && !strings.Contains(text, "[") {
		issues = append(issues, "No in-text citations found")
	}
	return finishCitations(&CitationReport{Issues: issues}, style), nil
}

// ContentGenerator is the part of genai.GenerativeModel the analyzer uses.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GenAIAnalyzer asks a Gemini model for JSON reports.
type GenAIAnalyzer struct {
	model ContentGenerator
}

// NewGenAIAnalyzer configures model for JSON output.
func NewGenAIAnalyzer(client *genai.Client, modelName string) *GenAIAnalyzer {
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0)
	return &GenAIAnalyzer{model: model}
}

func NewGenAIAnalyzerWithGenerator(gen ContentGenerator) *GenAIAnalyzer {
	return &GenAIAnalyzer{model: gen}
}

const plagiarismPrompt = `You review academic text for plagiarism. Reply with JSON only:
{"similarityScore": <0-100 percent of the text that closely matches published work>,
 "matches": [{"source": "<work>", "excerpt": "<matched text>", "similarity": <0-100>}]}

Text:
%s`

const citationPrompt = `You check in-text citations and references against the %s citation style.
Reply with JSON only: {"issues": ["<one problem per entry>"]}. Use an empty list when the
citations follow the style.

Text:
%s`

func (a *GenAIAnalyzer) CheckPlagiarism(ctx context.Context, text string) (*PlagiarismReport, error) {
	var report PlagiarismReport
	if err := a.generateJSON(ctx, fmt.Sprintf(plagiarismPrompt, text), &report); err != nil {
		return nil, err
	}
	return finishPlagiarism(&report), nil
}

func (a *GenAIAnalyzer) ValidateCitations(ctx context.Context, text, style string) (*CitationReport, error) {
	style, err := NormalizeStyle(style)
	if err != nil {
		return nil, err
	}
	var report CitationReport
	if err := a.generateJSON(ctx, fmt.Sprintf(citationPrompt, style, text), &report); err != nil {
		return nil, err
	}
	return finishCitations(&report, style), nil
}

func (a *GenAIAnalyzer) generateJSON(ctx context.Context, prompt string, out interface{}) error {
	response, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("model request failed: %w", err)
	}
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return errors.New("model returned no candidates")
	}

	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	raw := strings.TrimSpace(sb.String())
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "```"), "```")

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		zerolog.Ctx(ctx).Debug().Str("reply", raw).Msg("unparseable model reply")
		return fmt.Errorf("failed to parse model reply: %w", err)
	}
	return nil
}

// AnalysisService runs the analyzer over a stored record and its PDF.
type AnalysisService struct {
	research *ResearchService
	analyzer TextAnalyzer
	content  ContentStore
	pdfs     *PDFService
}

func NewAnalysisService(research *ResearchService, analyzer TextAnalyzer, content ContentStore, pdfs *PDFService) *AnalysisService {
	return &AnalysisService{research: research, analyzer: analyzer, content: content, pdfs: pdfs}
}

func (s *AnalysisService) CheckPlagiarism(ctx context.Context, text string) (*PlagiarismReport, error) {
	return s.analyzer.CheckPlagiarism(ctx, text)
}

func (s *AnalysisService) ValidateCitations(ctx context.Context, text, style string) (*CitationReport, error) {
	return s.analyzer.ValidateCitations(ctx, text, style)
}

// AnalyzeResearch analyses the abstract plus the attached PDF text when the
// content store still holds it.
func (s *AnalysisService) AnalyzeResearch(ctx context.Context, id, style string) (*ResearchAnalysis, error) {
	research, err := s.research.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	analysis := &ResearchAnalysis{ResearchID: research.ID}
	text := analysisText(research)
	if research.IPFSHash != "" && s.content != nil && s.pdfs != nil {
		body, err := s.content.Get(ctx, research.IPFSHash)
		switch {
		case err == nil:
			if info, err := s.pdfs.Inspect(body); err == nil {
				analysis.Pages = info.Pages
			}
			if pdfText, err := s.pdfs.ExtractText(body); err == nil {
				text += "\n\n" + pdfText
			}
		case errors.Is(err, ErrContentNotFound):
			zerolog.Ctx(ctx).Debug().Str("research_id", id).Msg("attached content not in store, analysing abstract only")
		default:
			return nil, fmt.Errorf("failed to load attached content: %w", err)
		}
	}

	if analysis.Plagiarism, err = s.analyzer.CheckPlagiarism(ctx, text); err != nil {
		return nil, err
	}
	if analysis.Citations, err = s.analyzer.ValidateCitations(ctx, text, style); err != nil {
		return nil, err
	}
	return analysis, nil
}

func analysisText(r *models.Research) string {
	return r.Title + "\n\n" + r.Abstract
}
