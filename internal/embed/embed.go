// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed inlines a persisted snapshot into the static display page so
// the page works without fetching data/papers.json at runtime.
//
// Two page shapes are supported. The preferred one carries an explicit
// placeholder element, <script id="paper-data" type="application/json">,
// whose content is replaced with the snapshot. Older pages define an async
// loadPapers() that fetches the snapshot; that function is replaced with one
// assigning the same variables from an inlined literal, or from the
// placeholder when the page has both.
package embed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	htmlatom "golang.org/x/net/html/atom"

	"github.com/pdiddy/paper-feed/pkg/types"
)

var (
	// ErrPlaceholderNotFound is returned when the page has neither a data
	// placeholder element nor a loadPapers() function.
	ErrPlaceholderNotFound = errors.New("page has no data placeholder or loadPapers() function")

	// ErrLoaderUnterminated is returned when loadPapers() is present but its
	// closing brace cannot be located.
	ErrLoaderUnterminated = errors.New("loadPapers() found but its end could not be located")

	// ErrInvalidSnapshot is returned for JSON that is not a consistent snapshot.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Method reports which page shape Embed rewrote.
type Method string

const (
	MethodPlaceholder Method = "placeholder"
	MethodLoader      Method = "loader"
)

const defaultPlaceholderID = "paper-data"

// Embedder rewrites display pages.
type Embedder struct {
	// PlaceholderID is the id of the <script> element receiving the data.
	PlaceholderID string
}

// Embed returns page with snapshotJSON inlined. The snapshot is validated,
// minified, and escaped so it cannot close the surrounding <script> element.
// When the page has a placeholder, any loadPapers() is rewritten to read it,
// so no variant of the page fetches the snapshot at runtime.
func (e *Embedder) Embed(snapshotJSON, page []byte) ([]byte, Method, error) {
	literal, err := compactSnapshot(snapshotJSON)
	if err != nil {
		return nil, "", err
	}

	id := e.PlaceholderID
	if id == "" {
		id = defaultPlaceholderID
	}

	out, found, err := fillPlaceholder(page, id, literal)
	if err != nil {
		return nil, "", err
	}
	if found {
		out, _, err = replaceLoader(out, placeholderSource(id))
		if err != nil {
			return nil, "", err
		}
		return out, MethodPlaceholder, nil
	}

	out, found, err = replaceLoader(page, literal)
	if err != nil {
		return nil, "", err
	}
	if found {
		return out, MethodLoader, nil
	}
	return nil, "", ErrPlaceholderNotFound
}

// compactSnapshot checks that data is a snapshot whose count matches its
// papers and returns it minified.
func compactSnapshot(data []byte) (string, error) {
	var snap struct {
		TotalPapers *int           `json:"total_papers"`
		Papers      *[]types.Paper `json:"papers"`
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return "", fmt.Errorf("parsing snapshot: %w", err)
	}
	if snap.Papers == nil {
		return "", fmt.Errorf("%w: papers is missing", ErrInvalidSnapshot)
	}
	if snap.TotalPapers == nil || *snap.TotalPapers != len(*snap.Papers) {
		return "", fmt.Errorf("%w: total_papers does not match %d papers", ErrInvalidSnapshot, len(*snap.Papers))
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return "", fmt.Errorf("compacting snapshot: %w", err)
	}
	var escaped bytes.Buffer
	json.HTMLEscape(&escaped, compact.Bytes())
	return escaped.String(), nil
}

// fillPlaceholder replaces the content of the script element with the given
// id. Only that byte range changes (plus the type attribute when it is not
// already application/json); the rest of the page is kept verbatim.
func fillPlaceholder(page []byte, id, literal string) ([]byte, bool, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, false, fmt.Errorf("parsing page: %w", err)
	}
	if doc.Find(fmt.Sprintf("script[id=%q]", id)).Length() == 0 {
		return nil, false, nil
	}

	span, ok := locateScript(page, id)
	if !ok {
		return nil, false, fmt.Errorf("placeholder #%s is not a plain <script> element", id)
	}

	tag := string(page[span.tagStart:span.tagEnd])
	if attr(span.tag, "type") != jsonMIMEType {
		setAttr(&span.tag, "type", jsonMIMEType)
		tag = span.tag.String()
	}

	var b bytes.Buffer
	b.Write(page[:span.tagStart])
	b.WriteString(tag)
	b.WriteString(literal)
	b.Write(page[span.textEnd:])
	return b.Bytes(), true, nil
}

const jsonMIMEType = "application/json"

// scriptSpan locates a script element in the original page bytes.
type scriptSpan struct {
	tagStart, tagEnd int // raw start tag
	textEnd          int // end of the element's text, where </script> begins
	tag              html.Token
}

// locateScript tokenizes page, tracking byte offsets, until it reaches the
// start tag of the script element with the given id.
func locateScript(page []byte, id string) (scriptSpan, bool) {
	z := html.NewTokenizer(bytes.NewReader(page))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return scriptSpan{}, false
		}
		n := len(z.Raw())
		if tt == html.StartTagToken {
			tok := z.Token()
			if tok.DataAtom == htmlatom.Script && attr(tok, "id") == id {
				span := scriptSpan{tagStart: offset, tagEnd: offset + n, tag: tok}
				span.textEnd = span.tagEnd
				if z.Next() == html.TextToken {
					span.textEnd += len(z.Raw())
				}
				return span, true
			}
		}
		offset += n
	}
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(tok *html.Token, key, val string) {
	for i, a := range tok.Attr {
		if a.Key == key {
			tok.Attr[i].Val = val
			return
		}
	}
	tok.Attr = append(tok.Attr, html.Attribute{Key: key, Val: val})
}

// placeholderSource is the JS expression reading the placeholder's data.
func placeholderSource(id string) string {
	quoted, _ := json.Marshal(id)
	return "JSON.parse(document.getElementById(" + string(quoted) + ").textContent)"
}

var loaderStart = regexp.MustCompile(`(?m)^([ \t]*)async function loadPapers\(\)\s*\{`)

// replaceLoader swaps the body of loadPapers() for one that takes its data
// from source. The function end is found by brace matching, skipping strings,
// regex literals and comments, so the old body may be the fetch-based loader
// or a previous embedding. A page without the function is returned unchanged.
func replaceLoader(page []byte, source string) ([]byte, bool, error) {
	loc := loaderStart.FindSubmatchIndex(page)
	if loc == nil {
		return page, false, nil
	}
	indent := string(page[loc[2]:loc[3]])
	open := loc[1] - 1

	end := matchBrace(page, open)
	if end < 0 {
		return nil, false, ErrLoaderUnterminated
	}

	var b bytes.Buffer
	b.Write(page[:loc[0]])
	b.WriteString(embeddedLoader(indent, source))
	b.Write(page[end+1:])
	return b.Bytes(), true, nil
}

func embeddedLoader(indent, source string) string {
	lines := []string{
		"async function loadPapers() {",
		"    // Data is embedded directly in this HTML file",
		"    const data = " + source + ";",
		"",
		"    allPapers = data.papers || [];",
		"    lastUpdatedEl.textContent = data.last_updated || 'Never';",
		"    totalPapersEl.textContent = data.total_papers || 0;",
		"",
		"    console.log(`Loaded ${allPapers.length} papers`);",
		"    displayPapers();",
		"}",
	}
	for i, l := range lines {
		if l != "" {
			lines[i] = indent + l
		}
	}
	return strings.Join(lines, "\n")
}

// matchBrace returns the index of the brace closing the one at open, or -1.
func matchBrace(src []byte, open int) int {
	depth := 0
	var prev byte
	for i := open; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(src, i, c)
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			j := bytes.Index(src[i+2:], []byte("*/"))
			if j < 0 {
				return -1
			}
			i += j + 3
			continue
		case c == '/' && regexAllowed(prev):
			i = skipRegex(src, i)
		}
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			prev = c
		}
	}
	return -1
}

// skipQuoted returns the index of the quote closing the one at start.
func skipQuoted(src []byte, start int, quote byte) int {
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return len(src)
}

// regexAllowed reports whether a slash after prev starts a regex literal
// rather than a division.
func regexAllowed(prev byte) bool {
	return prev == 0 || strings.IndexByte("(,=:[!&|?{};+-*%<>~^", prev) >= 0
}

// skipRegex returns the index of the slash closing the regex literal at
// start. A literal running to the end of the line is treated as a division.
func skipRegex(src []byte, start int) int {
	inClass := false
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				return i
			}
		case '\n':
			return start
		}
	}
	return start
}

// EmbedFile reads the snapshot and page named in cfg and writes the
// rewritten page to cfg.OutputPath, or over the page when that is empty.
func EmbedFile(cfg types.EmbedConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(cfg.SnapshotPath)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	page, err := os.ReadFile(cfg.PagePath)
	if err != nil {
		return fmt.Errorf("reading page: %w", err)
	}

	e := &Embedder{PlaceholderID: cfg.PlaceholderID}
	out, method, err := e.Embed(data, page)
	if err != nil {
		return fmt.Errorf("embedding into %s: %w", cfg.PagePath, err)
	}

	dest := cfg.OutputPath
	if dest == "" {
		dest = cfg.PagePath
	}
	if err := os.WriteFile(dest, out, 0o644); err != nil {
		return fmt.Errorf("writing page: %w", err)
	}

	logger.Info("embedded snapshot",
		zap.String("page", dest),
		zap.String("method", string(method)),
		zap.Int("snapshot_bytes", len(data)),
		zap.Int("page_bytes", len(out)))
	return nil
}
