// Package importer fetches and parses external iCalendar feeds into
// normalized candidate events.
//
// Timezone convention: dates and display times are taken in whatever
// location the ICS parser assigns to DTSTART (UTC for Z-suffixed values,
// the TZID's zone where the library resolves it). No normalization to a
// board-local zone is performed.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"cityevents/internal/apperrors"
	"cityevents/internal/logger"
	"cityevents/internal/models"
)

// kidsKeywords mark an imported event as kid-friendly when any of them
// appears in the title.
var kidsKeywords = []string{"kid", "child", "family", "toddler", "story"}

const untitled = "Untitled"

type Importer struct {
	Client *http.Client
	Logger *logger.Logger
}

func New(fetchTimeout time.Duration, log *logger.Logger) *Importer {
	return &Importer{
		Client: &http.Client{Timeout: fetchTimeout},
		Logger: log,
	}
}

// Import fetches one source and returns its candidate events. A fetch or
// parse failure is scoped to this source; callers tally it and move on.
func (imp *Importer) Import(ctx context.Context, source models.Source) ([]models.Candidate, error) {
	body, err := imp.fetch(ctx, source.URL)
	if err != nil {
		return nil, err
	}
	return imp.Parse(source, body)
}

func (imp *Importer) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExternalFetch, err)
	}

	resp, err := imp.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExternalFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", apperrors.ErrExternalFetch, url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExternalFetch, err)
	}
	return body, nil
}

// Parse normalizes an ICS payload. Components that are not events, and
// events without a start timestamp, are silently discarded.
func (imp *Importer) Parse(source models.Source, body []byte) ([]models.Candidate, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", apperrors.ErrExternalFetch, source.URL, err)
	}

	candidates := make([]models.Candidate, 0)
	for i, ve := range cal.Events() {
		start, err := ve.GetStartAt()
		if err != nil || start.IsZero() {
			continue
		}

		whenText := start.Format("15:04")
		if end, err := ve.GetEndAt(); err == nil && !end.IsZero() {
			whenText = whenText + " – " + end.Format("15:04")
		}

		title := untitled
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
			if trimmed := strings.TrimSpace(p.Value); trimmed != "" {
				title = trimmed
			}
		}

		url := source.URL
		if p := ve.GetProperty(ical.ComponentPropertyUrl); p != nil && p.Value != "" {
			url = p.Value
		}

		// UID is the dedup key; malformed feeds without one get a
		// synthesized key so the pair stays non-null and unique.
		sourceID := fmt.Sprintf("%s#%d", source.URL, i)
		if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil && p.Value != "" {
			sourceID = p.Value
		}

		candidates = append(candidates, models.Candidate{
			Title:    title,
			Date:     start.Format("2006-01-02"),
			WhenText: whenText,
			City:     "", // ICS carries no structured city field
			Kids:     inferKids(title),
			URL:      url,
			Source:   models.SourceTypeICS,
			SourceID: sourceID,
		})
	}

	imp.Logger.LogImport(source.URL, fmt.Sprintf("parsed %d candidate events", len(candidates)))
	return candidates, nil
}

func inferKids(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range kidsKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
