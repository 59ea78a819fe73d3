package views

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

const (
	// MinTranscriptLength is the shortest transcript, in characters, sent for import.
	MinTranscriptLength = 100
	defaultSourceName   = "Manual import"
	dateLayout          = "2006-01-02"
)

var ErrTranscriptTooShort = errors.New("transcript too short")

var htmlTagPattern = regexp.MustCompile(`(?i)<(html|body|p|br|div|span|li|ul|ol|h[1-6]|table|tr|td)[\s/>]`)

// NormalizeTranscript returns pasted text with HTML markup reduced to plain
// lines. Plain text is only trimmed.
func NormalizeTranscript(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !htmlTagPattern.MatchString(raw) {
		return raw, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse transcript HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, tr, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n"), nil
}

// TranscriptForm is the importer's raw user input.
type TranscriptForm struct {
	SourceName string
	Date       string
	URL        string
	Quality    string
	Text       string
}

// Build validates the form and produces the import record. The text must hold
// at least MinTranscriptLength characters after normalization. Quality
// defaults to MEDIUM and the date to today.
func (f TranscriptForm) Build(now time.Time) (models.TranscriptImport, error) {
	text, err := NormalizeTranscript(f.Text)
	if err != nil {
		return models.TranscriptImport{}, err
	}
	if n := utf8.RuneCountInString(text); n < MinTranscriptLength {
		return models.TranscriptImport{}, fmt.Errorf("%w: %d characters, need at least %d", ErrTranscriptTooShort, n, MinTranscriptLength)
	}

	quality, err := models.ParseQuality(f.Quality)
	if err != nil {
		return models.TranscriptImport{}, err
	}

	date := strings.TrimSpace(f.Date)
	if date == "" {
		date = now.Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return models.TranscriptImport{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
	}

	link := strings.TrimSpace(f.URL)
	if link != "" {
		u, err := url.ParseRequestURI(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return models.TranscriptImport{}, fmt.Errorf("invalid url %q", link)
		}
	}

	source := strings.TrimSpace(f.SourceName)
	if source == "" {
		source = defaultSourceName
	}

	return models.TranscriptImport{
		SourceName: source,
		Date:       date,
		URL:        link,
		Quality:    quality,
		RawText:    text,
	}, nil
}

// TranscriptImporter forwards validated transcripts for ticker detection.
type TranscriptImporter struct {
	client api.Client

	mu         sync.Mutex
	submitting bool
	last       *models.ImportResult
	err        error
}

func NewTranscriptImporter(client api.Client) *TranscriptImporter {
	return &TranscriptImporter{client: client}
}

func (t *TranscriptImporter) Title() string { return "Import" }

// Load is a no-op; the importer has nothing to fetch.
func (t *TranscriptImporter) Load(context.Context) error { return nil }

// Submit validates form and imports it. Invalid input never reaches the backend.
func (t *TranscriptImporter) Submit(ctx context.Context, form TranscriptForm) (*models.ImportResult, error) {
	rec, err := form.Build(clock())
	if err != nil {
		t.finish(nil, err)
		return nil, err
	}

	t.mu.Lock()
	t.submitting = true
	t.mu.Unlock()

	res, err := t.client.ImportTranscript(ctx, rec)
	t.finish(res, err)
	return res, err
}

func (t *TranscriptImporter) finish(res *models.ImportResult, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.submitting = false
	t.err = err
	if err == nil {
		t.last = res
	}
}

// Result returns the latest successful import and the latest error.
func (t *TranscriptImporter) Result() (*models.ImportResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.err
}

func (t *TranscriptImporter) Render(width int) string {
	t.mu.Lock()
	submitting, last, err := t.submitting, t.last, t.err
	t.mu.Unlock()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Transcript Import") + "\n")
	switch {
	case submitting:
		b.WriteString(mutedStyle.Render("Importing..."))
	case err != nil:
		b.WriteString(errorStyle.Render(err.Error()))
	case last != nil:
		b.WriteString(ToneGreen.Style().Render(fmt.Sprintf("Imported %s: %d stocks created", last.ID, last.StocksCreated)))
		if len(last.DetectedTickers) > 0 {
			b.WriteString("\n" + mutedStyle.Render("detected: "+strings.Join(last.DetectedTickers, ", ")))
		}
	default:
		b.WriteString(mutedStyle.Render(fmt.Sprintf("Paste at least %d characters of transcript text or HTML.", MinTranscriptLength)))
	}
	return b.String()
}
