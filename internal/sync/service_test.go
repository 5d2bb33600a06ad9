package sync_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"cityevents/internal/apperrors"
	"cityevents/internal/database/migrations"
	event_db "cityevents/internal/events/db"
	"cityevents/internal/importer"
	"cityevents/internal/logger"
	"cityevents/internal/models"
	source_db "cityevents/internal/sources/db"
	syncsvc "cityevents/internal/sync"
)

const testAdminCode = "letmein"

func icsFixture(body ...string) string {
	lines := []string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//cityevents//test//EN"}
	lines = append(lines, body...)
	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n"
}

func setupSync(t *testing.T) (*syncsvc.Service, *source_db.DB, *event_db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	if err := migrations.NewRunner(bunDB).RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	log := logger.NewLogger()
	eventDB := &event_db.DB{Bun: bunDB}
	sourceDB := &source_db.DB{Bun: bunDB}
	imp := importer.New(time.Second, log)
	svc := syncsvc.NewService(sourceDB, imp, syncsvc.NewUpserter(eventDB), log, testAdminCode)
	return svc, sourceDB, eventDB, bunDB
}

func addSource(t *testing.T, sourceDB *source_db.DB, url string) {
	t.Helper()
	source := &models.Source{
		Type:      models.SourceTypeICS,
		URL:       url,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := sourceDB.InsertSource(context.Background(), source); err != nil {
		t.Fatalf("Failed to register source: %v", err)
	}
}

func TestRunRequiresAdminCode(t *testing.T) {
	svc, _, _, bunDB := setupSync(t)
	defer bunDB.Close()

	_, err := svc.Run(context.Background(), "wrong-code")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRunImportsAndDeduplicates(t *testing.T) {
	svc, sourceDB, eventDB, bunDB := setupSync(t)
	defer bunDB.Close()
	ctx := context.Background()

	feed := icsFixture(
		"BEGIN:VEVENT",
		"UID:market",
		"DTSTART:20250614T160000Z",
		"SUMMARY:Farmers Market",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:storytime",
		"DTSTART:20250614T170000Z",
		"SUMMARY:Toddler Storytime",
		"END:VEVENT",
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	}))
	defer server.Close()

	addSource(t, sourceDB, server.URL)

	report, err := svc.Run(ctx, testAdminCode)
	assert.NoError(t, err)
	assert.Equal(t, 2, report.Added)
	assert.Equal(t, 0, report.Errors)
	assert.Equal(t, 1, report.Sources)

	// Imported events skip moderation and land in the public feed.
	feedEvents, err := eventDB.ListApproved(ctx, models.EventFilter{})
	assert.NoError(t, err)
	assert.Len(t, feedEvents, 2)
	for _, event := range feedEvents {
		assert.Equal(t, models.StatusApproved, event.Status)
		assert.True(t, event.Imported())
		assert.Equal(t, models.SourceTypeICS, event.Source)
	}

	// Keyword inference only touches the import path.
	kids, err := eventDB.ListApproved(ctx, models.EventFilter{KidsOnly: true})
	assert.NoError(t, err)
	assert.Len(t, kids, 1)
	assert.Equal(t, "Toddler Storytime", kids[0].Title)

	// A second run over the same feed adds nothing and errors nothing.
	report, err = svc.Run(ctx, testAdminCode)
	assert.NoError(t, err)
	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 0, report.Errors)

	feedEvents, err = eventDB.ListApproved(ctx, models.EventFilter{})
	assert.NoError(t, err)
	assert.Len(t, feedEvents, 2)
}

func TestRunTalliesFailingSourceAndContinues(t *testing.T) {
	svc, sourceDB, eventDB, bunDB := setupSync(t)
	defer bunDB.Close()
	ctx := context.Background()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "feed offline", http.StatusInternalServerError)
	}))
	defer broken.Close()

	feed := icsFixture(
		"BEGIN:VEVENT",
		"UID:gallery",
		"DTSTART:20250620T180000Z",
		"SUMMARY:Gallery Night",
		"END:VEVENT",
	)
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	}))
	defer healthy.Close()

	addSource(t, sourceDB, broken.URL)
	addSource(t, sourceDB, healthy.URL)

	report, err := svc.Run(ctx, testAdminCode)
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 2, report.Sources)

	feedEvents, err := eventDB.ListApproved(ctx, models.EventFilter{})
	assert.NoError(t, err)
	assert.Len(t, feedEvents, 1)
	assert.Equal(t, "Gallery Night", feedEvents[0].Title)
}

func TestRunSkipsInactiveSources(t *testing.T) {
	svc, sourceDB, _, bunDB := setupSync(t)
	defer bunDB.Close()
	ctx := context.Background()

	inactive := &models.Source{
		Type:      models.SourceTypeICS,
		URL:       "https://feeds.example.org/paused.ics",
		Active:    false,
		CreatedAt: time.Now().UTC(),
	}
	assert.NoError(t, sourceDB.InsertSource(ctx, inactive))

	report, err := svc.Run(ctx, testAdminCode)
	assert.NoError(t, err)
	assert.Equal(t, 0, report.Sources)
	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 0, report.Errors)
}

func TestUpsertManualCandidateStaysPending(t *testing.T) {
	_, _, eventDB, bunDB := setupSync(t)
	defer bunDB.Close()
	ctx := context.Background()

	upserter := syncsvc.NewUpserter(eventDB)

	result, err := upserter.Upsert(ctx, models.Candidate{
		Title:    "Neighborhood Potluck",
		Date:     "2025-08-01",
		WhenText: "6pm",
		City:     "Spokane",
	})
	assert.NoError(t, err)
	assert.Equal(t, syncsvc.Inserted, result)

	pending, err := eventDB.ListByStatus(ctx, models.StatusPending)
	assert.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, "Neighborhood Potluck", pending[0].Title)
}

func TestUpsertRejectsSourcedCandidateWithoutID(t *testing.T) {
	_, _, eventDB, bunDB := setupSync(t)
	defer bunDB.Close()

	upserter := syncsvc.NewUpserter(eventDB)

	_, err := upserter.Upsert(context.Background(), models.Candidate{
		Title:    "No Key",
		Date:     "2025-08-01",
		WhenText: "6pm",
		Source:   models.SourceTypeICS,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
