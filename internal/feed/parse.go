// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/atom"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-feed/pkg/types"
)

const (
	atomNS      = "http://www.w3.org/2005/Atom"
	pdfMIMEType = "application/pdf"
)

// errIncomplete marks an entry missing one of the required fields. Such
// entries are dropped quietly; any other extraction error is logged as a warning.
var errIncomplete = errors.New("entry is missing required fields")

// Parser turns arXiv Atom documents into Paper records.
type Parser struct {
	// PDFBaseURL prefixes the synthesized link for entries without a PDF link.
	PDFBaseURL string
	Logger     *zap.Logger
}

// Parse decodes data and returns every complete entry in feed order. A
// document that is not well-formed XML, or whose root is not an Atom feed,
// yields an empty result; a bad entry is skipped without affecting the others.
func (p *Parser) Parse(data []byte) []types.Paper {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := checkDocument(data); err != nil {
		logger.Error("malformed document", zap.Error(err))
		return nil
	}
	feed, err := (&atom.Parser{}).Parse(bytes.NewReader(data))
	if err != nil {
		logger.Error("malformed document", zap.Error(err))
		return nil
	}
	if total := totalResults(feed); total != "" {
		logger.Debug("feed decoded",
			zap.String("total_results", total),
			zap.Int("entries", len(feed.Entries)))
	}

	papers := make([]types.Paper, 0, len(feed.Entries))
	for i, entry := range feed.Entries {
		if entry == nil {
			continue
		}
		paper, err := p.extract(entry)
		if errors.Is(err, errIncomplete) {
			logger.Debug("skipping incomplete entry", zap.Int("entry", i), zap.String("id", paper.ID))
			continue
		}
		if err != nil {
			logger.Warn("failed to parse entry", zap.Int("entry", i), zap.Error(err))
			continue
		}
		papers = append(papers, paper)
	}

	logger.Info("parsed feed", zap.Int("papers", len(papers)))
	return papers
}

// checkDocument walks every token of data and fails unless it is a single
// well-formed element named feed in the Atom namespace. Comments, processing
// instructions and whitespace may surround the root; nothing else may.
func checkDocument(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	depth, roots := 0, 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if roots > 0 {
					return fmt.Errorf("unexpected element <%s> after the root element", t.Name.Local)
				}
				if t.Name.Space != atomNS || t.Name.Local != "feed" {
					return fmt.Errorf("root element is {%s}%s, not an Atom feed", t.Name.Space, t.Name.Local)
				}
				roots++
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return errors.New("text outside the root element")
			}
		}
	}
	if roots == 0 {
		return errors.New("document has no root element")
	}
	return nil
}

// totalResults reads opensearch:totalResults, which the Atom parser keeps as
// a feed extension.
func totalResults(feed *atom.Feed) string {
	for _, e := range feed.Extensions["opensearch"]["totalResults"] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}

// extract builds one Paper. On errIncomplete the returned Paper carries
// whatever id was found so the caller can log it.
func (p *Parser) extract(e *atom.Entry) (types.Paper, error) {
	var paper types.Paper

	paper.ID = extractArxivID(e.ID)
	if strings.Contains(e.ID, "/api/errors") {
		return paper, fmt.Errorf("arXiv API error entry: %s", strings.TrimSpace(e.Summary))
	}

	paper.Title = normalizeSpace(e.Title)
	paper.Published = strings.TrimSpace(e.Published)
	paper.Abstract = strings.TrimSpace(e.Summary)

	for _, a := range e.Authors {
		if a == nil {
			continue
		}
		if name := strings.TrimSpace(a.Name); name != "" {
			paper.Authors = append(paper.Authors, name)
		}
	}

	paper.Categories = []string{}
	for _, c := range e.Categories {
		if c != nil && c.Term != "" {
			paper.Categories = append(paper.Categories, c.Term)
		}
	}

	for _, l := range e.Links {
		if l != nil && l.Type == pdfMIMEType && l.Href != "" {
			paper.PDFURL = l.Href
			break
		}
	}

	if paper.Title == "" || paper.Published == "" || paper.ID == "" ||
		len(paper.Authors) == 0 || paper.Abstract == "" {
		return paper, errIncomplete
	}
	if _, err := time.Parse(time.RFC3339, paper.Published); err != nil {
		return paper, fmt.Errorf("entry %s: invalid published timestamp %q", paper.ID, paper.Published)
	}

	if paper.PDFURL == "" {
		paper.PDFURL = defaultPDFURL(p.PDFBaseURL, paper.ID)
	}
	return paper, nil
}

// extractArxivID returns the path suffix after the last "/abs/" in the entry
// id (e.g. "http://arxiv.org/abs/2301.07041v1" -> "2301.07041v1"). Ids without
// that segment are used verbatim.
func extractArxivID(idURL string) string {
	idURL = strings.TrimSpace(idURL)
	const marker = "/abs/"
	if idx := strings.LastIndex(idURL, marker); idx >= 0 {
		return idURL[idx+len(marker):]
	}
	return idURL
}

func defaultPDFURL(base, id string) string {
	if base == "" {
		base = "https://arxiv.org/pdf/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + id + ".pdf"
}

// normalizeSpace trims s and collapses inner runs of whitespace, which arXiv
// titles carry from line wrapping.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
