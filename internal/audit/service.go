package audit

import (
	"context"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mrlokans/csvexport/internal/database/audit"
	"github.com/mrlokans/csvexport/internal/entities"
	"github.com/mrlokans/csvexport/internal/exporters"
)

// Service records export outcomes as history events.
type Service struct {
	repo *audit.Repository
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records an export event.
func (s *Service) Log(event *entities.ExportEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an export event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.ExportEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log export event: %v", err)
		}
	}()
}

// Wait blocks until every pending LogAsync call has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Notify implements exporters.Notifier.
func (s *Service) Notify(_ context.Context, outcome exporters.Outcome) {
	s.LogAsync(EventFromOutcome(outcome))
}

// EventFromOutcome maps an orchestrator outcome to a history row.
func EventFromOutcome(outcome exporters.Outcome) *entities.ExportEvent {
	event := &entities.ExportEvent{
		Origin:     entities.ExportOrigin(outcome.Origin),
		Filename:   truncate(outcome.Filename, 255),
		Platform:   outcome.Platform,
		Status:     entities.ExportStatus(outcome.Status),
		Message:    outcome.Message,
		Rows:       outcome.Rows,
		Bytes:      outcome.Bytes,
		DurationMs: outcome.Duration.Milliseconds(),
	}
	if outcome.Err != nil {
		event.ErrorMsg = truncate(outcome.Err.Error(), 500)
	}
	return event
}

// GetEvents retrieves paginated export events.
func (s *Service) GetEvents(filter audit.Filter, limit, offset int) ([]entities.ExportEvent, int64, error) {
	return s.repo.GetEvents(filter, limit, offset)
}

// Summary returns event counts per status.
func (s *Service) Summary() (map[entities.ExportStatus]int64, error) {
	return s.repo.CountByStatus()
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens a string to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

var _ exporters.Notifier = (*Service)(nil)
