package services

import (
	"fmt"
	"strings"
	"unicode"

	"decentra_research_backend/internal/models"

	"github.com/nickng/bibtex"
)

// ToBibTeX renders a record as a single @misc entry.
func ToBibTeX(r *models.Research) string {
	bib := bibtex.NewBibTex()
	entry := bibtex.NewBibEntry("misc", citeKey(r))
	entry.AddField("title", bibtex.NewBibConst(r.Title))
	entry.AddField("author", bibtex.NewBibConst(strings.Join(r.Authors, " and ")))
	entry.AddField("abstract", bibtex.NewBibConst(r.Abstract))
	if !r.CreatedAt.IsZero() {
		entry.AddField("year", bibtex.NewBibConst(fmt.Sprintf("%d", r.CreatedAt.Year())))
	}
	if len(r.Keywords) > 0 {
		entry.AddField("keywords", bibtex.NewBibConst(strings.Join(r.Keywords, ", ")))
	}
	if r.PDFURL != "" {
		entry.AddField("url", bibtex.NewBibConst(r.PDFURL))
	}
	if r.IPFSHash != "" {
		entry.AddField("note", bibtex.NewBibConst("IPFS: "+r.IPFSHash))
	}
	bib.AddEntry(entry)
	return bib.PrettyString()
}

// citeKey is the first author's last name, the year and the record id prefix.
func citeKey(r *models.Research) string {
	name := "anon"
	if len(r.Authors) > 0 {
		fields := strings.Fields(r.Authors[0])
		if len(fields) > 0 {
			name = strings.ToLower(strings.Map(func(c rune) rune {
				if unicode.IsLetter(c) || unicode.IsDigit(c) {
					return c
				}
				return -1
			}, fields[len(fields)-1]))
		}
	}
	if name == "" {
		name = "anon"
	}
	id := r.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s%d%s", name, r.CreatedAt.Year(), id)
}
