package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	api.DisableConfigDir()
}

// PDFInfo summarises an uploaded document.
type PDFInfo struct {
	Pages int `json:"pages"`
}

// PDFService validates uploads and pulls their text out for analysis.
type PDFService struct {
	maxBytes int64
}

func NewPDFService(maxBytes int64) *PDFService {
	return &PDFService{maxBytes: maxBytes}
}

func (s *PDFService) config() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Inspect rejects anything that is not a well-formed PDF within the size limit.
func (s *PDFService) Inspect(content []byte) (*PDFInfo, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	if s.maxBytes > 0 && int64(len(content)) > s.maxBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", s.maxBytes)
	}
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		return nil, fmt.Errorf("file is not a PDF")
	}
	if err := api.Validate(bytes.NewReader(content), s.config()); err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}
	pages, err := api.PageCount(bytes.NewReader(content), s.config())
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	return &PDFInfo{Pages: pages}, nil
}

// ExtractText returns the plain text of every page that has any.
func (s *PDFService) ExtractText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %v", err)
	}

	var text strings.Builder
	totalPage := r.NumPage()
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n\n")
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("no text content extracted from PDF")
	}
	return text.String(), nil
}
