package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxTitleLength    = 100
	MaxAbstractLength = 5000
)

// Research is a submitted research paper.
type Research struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Title     string    `json:"title" gorm:"size:100;not null"`
	Abstract  string    `json:"abstract" gorm:"type:text;not null"`
	Authors   []string  `json:"authors" gorm:"serializer:json;not null"`
	Keywords  []string  `json:"keywords" gorm:"serializer:json"`
	PDFURL    string    `json:"pdfUrl,omitempty" gorm:"column:pdf_url"`
	IPFSHash  string    `json:"ipfsHash,omitempty" gorm:"column:ipfs_hash"`
	Owner     string    `json:"owner" gorm:"index;not null"`
	Citations int64     `json:"citations" gorm:"not null;default:0"`
	Verified  bool      `json:"verified" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Research) TableName() string {
	return "research"
}

func (r *Research) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ResearchPatch carries the mutable fields of an update. Nil fields keep the stored value.
type ResearchPatch struct {
	Title    *string   `json:"title"`
	Abstract *string   `json:"abstract"`
	Authors  *[]string `json:"authors"`
	Keywords *[]string `json:"keywords"`
	PDFURL   *string   `json:"pdfUrl"`
	IPFSHash *string   `json:"ipfsHash"`
}

// Apply overwrites the fields present in the patch.
func (p ResearchPatch) Apply(r *Research) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Abstract != nil {
		r.Abstract = *p.Abstract
	}
	if p.Authors != nil {
		r.Authors = append([]string(nil), (*p.Authors)...)
	}
	if p.Keywords != nil {
		r.Keywords = append([]string(nil), (*p.Keywords)...)
	}
	if p.PDFURL != nil {
		r.PDFURL = *p.PDFURL
	}
	if p.IPFSHash != nil {
		r.IPFSHash = *p.IPFSHash
	}
}

// Normalize trims the title and keywords and drops blank keywords.
func (r *Research) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	keywords := make([]string, 0, len(r.Keywords))
	for _, k := range r.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	r.Keywords = keywords
	if r.Authors == nil {
		r.Authors = []string{}
	}
}

// Validate checks required fields and length limits.
func (r *Research) Validate() error {
	verr := &ValidationError{}
	if r.Title == "" {
		verr.add("Please add a title")
	} else if utf8.RuneCountInString(r.Title) > MaxTitleLength {
		verr.add("Title cannot be more than 100 characters")
	}
	if strings.TrimSpace(r.Abstract) == "" {
		verr.add("Please add an abstract")
	} else if utf8.RuneCountInString(r.Abstract) > MaxAbstractLength {
		verr.add("Abstract cannot be more than 5000 characters")
	}
	if len(r.Authors) == 0 {
		verr.add("Please add at least one author")
	}
	for _, a := range r.Authors {
		if strings.TrimSpace(a) == "" {
			verr.add("Author names cannot be empty")
			break
		}
	}
	if strings.TrimSpace(r.Owner) == "" {
		verr.add("Please add an owner")
	}
	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

// ValidationError lists every rule a record violates.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) add(msg string) {
	e.Problems = append(e.Problems, msg)
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}
