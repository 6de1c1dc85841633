package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/csvexport/internal/entities"
)

const defaultPageSize = 50

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an export event to the database.
func (r *Repository) LogEvent(event *entities.ExportEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.Create(event).Error
}

// Filter narrows GetEvents. Zero fields match everything.
type Filter struct {
	Status entities.ExportStatus
	Origin entities.ExportOrigin
}

// GetEvents retrieves paginated export events, most recent first.
func (r *Repository) GetEvents(filter Filter, limit, offset int) ([]entities.ExportEvent, int64, error) {
	var events []entities.ExportEvent
	var total int64

	query := r.db.Model(&entities.ExportEvent{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Origin != "" {
		query = query.Where("origin = ?", filter.Origin)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// CountByStatus returns how many events ended in each status.
func (r *Repository) CountByStatus() (map[entities.ExportStatus]int64, error) {
	var rows []struct {
		Status entities.ExportStatus
		Count  int64
	}
	err := r.db.Model(&entities.ExportEvent{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entities.ExportStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// DeleteOldEvents removes export events older than the specified time.
// Returns the number of deleted events.
func (r *Repository) DeleteOldEvents(olderThan time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", olderThan).Delete(&entities.ExportEvent{})
	return result.RowsAffected, result.Error
}

// GetEventByID retrieves a single export event by ID.
func (r *Repository) GetEventByID(id uint) (*entities.ExportEvent, error) {
	var event entities.ExportEvent
	err := r.db.First(&event, id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}
