package importer_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cityevents/internal/apperrors"
	"cityevents/internal/importer"
	"cityevents/internal/logger"
	"cityevents/internal/models"
)

func icsFixture(body ...string) []byte {
	lines := []string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//cityevents//test//EN"}
	lines = append(lines, body...)
	lines = append(lines, "END:VCALENDAR")
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func testSource(url string) models.Source {
	return models.Source{
		ID:     1,
		Type:   models.SourceTypeICS,
		URL:    url,
		Active: true,
	}
}

func TestParseNormalizesEvent(t *testing.T) {
	imp := importer.New(time.Second, logger.NewLogger())

	body := icsFixture(
		"BEGIN:VEVENT",
		"UID:abc",
		"DTSTART:20250704T100000Z",
		"DTEND:20250704T113000Z",
		"SUMMARY:Family Story Hour",
		"URL:https://library.example.org/story-hour",
		"END:VEVENT",
	)

	candidates, err := imp.Parse(testSource("https://feeds.example.org/library.ics"), body)
	assert.NoError(t, err)
	assert.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "Family Story Hour", c.Title)
	assert.Equal(t, "2025-07-04", c.Date)
	assert.Equal(t, "10:00 – 11:30", c.WhenText)
	assert.Equal(t, "", c.City)
	assert.True(t, c.Kids)
	assert.Equal(t, "https://library.example.org/story-hour", c.URL)
	assert.Equal(t, models.SourceTypeICS, c.Source)
	assert.Equal(t, "abc", c.SourceID)
}

func TestParseFallbacks(t *testing.T) {
	imp := importer.New(time.Second, logger.NewLogger())
	feedURL := "https://feeds.example.org/bare.ics"

	// No UID, no SUMMARY, no DTEND, no URL.
	body := icsFixture(
		"BEGIN:VEVENT",
		"DTSTART:20250705T180000Z",
		"END:VEVENT",
	)

	candidates, err := imp.Parse(testSource(feedURL), body)
	assert.NoError(t, err)
	assert.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "Untitled", c.Title)
	assert.Equal(t, "18:00", c.WhenText)
	assert.False(t, c.Kids)
	assert.Equal(t, feedURL, c.URL)
	assert.Equal(t, feedURL+"#0", c.SourceID)
}

func TestParseSkipsEventsWithoutStart(t *testing.T) {
	imp := importer.New(time.Second, logger.NewLogger())

	body := icsFixture(
		"BEGIN:VEVENT",
		"UID:no-start",
		"SUMMARY:Missing Start",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:ok",
		"DTSTART:20250706T090000Z",
		"SUMMARY:Has Start",
		"END:VEVENT",
	)

	candidates, err := imp.Parse(testSource("https://feeds.example.org/mixed.ics"), body)
	assert.NoError(t, err)
	assert.Len(t, candidates, 1)
	assert.Equal(t, "ok", candidates[0].SourceID)
}

func TestParseKidsInference(t *testing.T) {
	imp := importer.New(time.Second, logger.NewLogger())

	cases := []struct {
		summary string
		kids    bool
	}{
		{"Toddler Music Morning", true},
		{"KIDS craft fair", true},
		{"Child safety workshop", true},
		{"Family game night", true},
		{"Story slam", true},
		{"Beer festival", false},
	}

	for _, tc := range cases {
		body := icsFixture(
			"BEGIN:VEVENT",
			"UID:x",
			"DTSTART:20250706T090000Z",
			"SUMMARY:"+tc.summary,
			"END:VEVENT",
		)
		candidates, err := imp.Parse(testSource("https://feeds.example.org/kids.ics"), body)
		assert.NoError(t, err)
		assert.Len(t, candidates, 1)
		assert.Equal(t, tc.kids, candidates[0].Kids, "summary %q", tc.summary)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	imp := importer.New(time.Second, logger.NewLogger())

	_, err := imp.Parse(testSource("https://feeds.example.org/bad.ics"), []byte("<html>not a calendar</html>"))
	assert.ErrorIs(t, err, apperrors.ErrExternalFetch)
}

func TestImportFetchesFeed(t *testing.T) {
	body := icsFixture(
		"BEGIN:VEVENT",
		"UID:remote",
		"DTSTART:20250710T170000Z",
		"SUMMARY:Night Market",
		"END:VEVENT",
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer server.Close()

	imp := importer.New(time.Second, logger.NewLogger())

	candidates, err := imp.Import(context.Background(), testSource(server.URL))
	assert.NoError(t, err)
	assert.Len(t, candidates, 1)
	assert.Equal(t, "Night Market", candidates[0].Title)
}

func TestImportReportsFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	imp := importer.New(time.Second, logger.NewLogger())

	_, err := imp.Import(context.Background(), testSource(server.URL))
	assert.ErrorIs(t, err, apperrors.ErrExternalFetch)

	_, err = imp.Import(context.Background(), testSource("http://127.0.0.1:1/unreachable.ics"))
	assert.ErrorIs(t, err, apperrors.ErrExternalFetch)
}
