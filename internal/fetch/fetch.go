// Package fetch downloads candidate pages and reduces them to readable text.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 2 << 20

var (
	ErrBadStatus          = errors.New("unexpected status fetching page")
	ErrUnsupportedContent = errors.New("unsupported content type")
)

var blankRunPattern = regexp.MustCompile(`[ \t\r\f\v]+`)

// Fetcher returns the readable text of the page at url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher implements Fetcher over plain HTTP GETs.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxRunes  int
}

// NewHTTPFetcher creates a fetcher whose requests are bounded by timeout and whose
// output is truncated to maxRunes characters.
func NewHTTPFetcher(timeout time.Duration, userAgent string, maxRunes int) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxRunes:  maxRunes,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	var text string
	switch mediaType(contentType) {
	case "", "text/html", "application/xhtml+xml":
		text, err = ExtractText(decode(body, contentType))
		if err != nil {
			return "", fmt.Errorf("parsing html: %w", err)
		}
	case "text/plain":
		text = collapse(decode(body, contentType))
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContent, contentType)
	}

	return truncateRunes(text, f.maxRunes), nil
}

// ExtractText returns the visible text of an HTML document. Scripts, styles and page
// chrome (navigation, header, footer) are dropped; each remaining line is trimmed and
// blank lines are removed.
func ExtractText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	walk(doc, &sb, 0)
	return collapse(sb.String()), nil
}

func walk(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 256 {
		return
	}

	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg", "nav", "footer", "header", "template":
			return
		case "br":
			sb.WriteByte('\n')
			return
		}
	}

	block := n.Type == html.ElementNode && isBlock(n.Data)
	if block {
		sb.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, sb, depth+1)
	}
	if block {
		sb.WriteByte('\n')
	}
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "main", "aside", "li", "ul", "ol", "tr", "table",
		"h1", "h2", "h3", "h4", "h5", "h6", "pre", "blockquote", "title", "dd", "dt", "figcaption":
		return true
	}
	return false
}

// collapse trims every line, squeezes runs of blanks and drops empty lines.
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(blankRunPattern.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func truncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	i := 0
	for pos := range s {
		if i == maxRunes {
			return s[:pos]
		}
		i++
	}
	return s
}

// decode converts body to UTF-8 using the charset from contentType, a BOM or an
// HTML meta tag. Undecodable bodies are returned as-is.
func decode(body []byte, contentType string) string {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mt
}

var _ Fetcher = (*HTTPFetcher)(nil)
