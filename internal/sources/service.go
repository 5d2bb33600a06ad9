package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cityevents/internal/apperrors"
	"cityevents/internal/logger"
	"cityevents/internal/models"
)

type SourceDBLayer interface {
	InsertSource(ctx context.Context, source *models.Source) error
	DeleteSource(ctx context.Context, id int64) (int64, error)
	ActiveByType(ctx context.Context, sourceType string) ([]models.Source, error)
	ListSources(ctx context.Context) ([]models.Source, error)
}

type Service struct {
	DB     SourceDBLayer
	Logger *logger.Logger

	adminCode string
}

func NewService(db SourceDBLayer, log *logger.Logger, adminCode string) *Service {
	return &Service{DB: db, Logger: log, adminCode: adminCode}
}

func (s *Service) authorize(code string) error {
	if s.adminCode == "" || code != s.adminCode {
		return fmt.Errorf("%w: admin code mismatch", apperrors.ErrUnauthorized)
	}
	return nil
}

// AddSource registers one external feed. Unknown types are accepted but
// ignored by the sync routine.
func (s *Service) AddSource(ctx context.Context, sourceType, url, name, authCode string) (*models.Source, error) {
	if err := s.authorize(authCode); err != nil {
		return nil, err
	}

	sourceType = strings.TrimSpace(sourceType)
	url = strings.TrimSpace(url)
	if sourceType == "" || url == "" {
		return nil, fmt.Errorf("%w: type and url are required", apperrors.ErrValidation)
	}

	source := &models.Source{
		Type:      sourceType,
		URL:       url,
		Name:      strings.TrimSpace(name),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.DB.InsertSource(ctx, source); err != nil {
		return nil, fmt.Errorf("%w: insert source: %v", apperrors.ErrStorage, err)
	}

	s.Logger.Info("SOURCES", fmt.Sprintf("registered %s source %d (%s)", source.Type, source.ID, source.URL))
	return source, nil
}

func (s *Service) RemoveSource(ctx context.Context, id int64, authCode string) error {
	if err := s.authorize(authCode); err != nil {
		return err
	}

	rows, err := s.DB.DeleteSource(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: delete source: %v", apperrors.ErrStorage, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: source %d", apperrors.ErrNotFound, id)
	}

	s.Logger.Info("SOURCES", fmt.Sprintf("removed source %d", id))
	return nil
}

// BulkAddSources registers one source per line of "type,url,name" (name
// optional). Malformed lines are skipped silently and not counted.
func (s *Service) BulkAddSources(ctx context.Context, lines string, authCode string) (int, error) {
	if err := s.authorize(authCode); err != nil {
		return 0, err
	}

	added := 0
	for _, line := range strings.Split(lines, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, ",", 3)
		sourceType := strings.TrimSpace(parts[0])
		url := ""
		if len(parts) > 1 {
			url = strings.TrimSpace(parts[1])
		}
		name := ""
		if len(parts) > 2 {
			name = strings.TrimSpace(parts[2])
		}
		if sourceType == "" || url == "" {
			continue
		}

		source := &models.Source{
			Type:      sourceType,
			URL:       url,
			Name:      name,
			Active:    true,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.DB.InsertSource(ctx, source); err != nil {
			return added, fmt.Errorf("%w: insert source: %v", apperrors.ErrStorage, err)
		}
		added++
	}

	s.Logger.Info("SOURCES", fmt.Sprintf("bulk add registered %d sources", added))
	return added, nil
}

// ListSources returns every registered source for the admin screen.
func (s *Service) ListSources(ctx context.Context, authCode string) ([]models.Source, error) {
	if err := s.authorize(authCode); err != nil {
		return nil, err
	}
	list, err := s.DB.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list sources: %v", apperrors.ErrStorage, err)
	}
	return list, nil
}
