// Package history archives ended sessions in a SQLite database so past
// budgets can be compared with how the time was actually spent.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fakeyudi/allot/internal/session"
)

// FileName is the database file inside the data directory.
const FileName = "history.db"

// ErrNotFound is returned by Get when no record has the requested session id.
var ErrNotFound = errors.New("history: session not found")

// Record is one archived session.
type Record struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	CreatedAt time.Time `json:"-"`

	SessionID    string    `gorm:"uniqueIndex;not null" json:"session_id"`
	StartedAt    time.Time `gorm:"not null" json:"started_at"`
	EndedAt      time.Time `gorm:"index;not null" json:"ended_at"`
	TotalMinutes int       `json:"total_minutes"`
	UsedMinutes  float64   `json:"used_minutes"`

	Categories []CategoryUsage `gorm:"constraint:OnDelete:CASCADE;" json:"categories"`
}

// CategoryUsage is the budget and actual use of one category in a Record.
type CategoryUsage struct {
	ID       uint `gorm:"primarykey" json:"-"`
	RecordID uint `gorm:"index;not null" json:"-"`
	Position int  `json:"-"`

	CategoryID       string  `gorm:"not null" json:"category_id"`
	AllocatedMinutes int     `json:"allocated_minutes"`
	UsedMinutes      float64 `json:"used_minutes"`
	AdjustedMinutes  float64 `json:"adjusted_minutes"`
}

// Archive is a handle on the history database.
type Archive struct {
	db *gorm.DB
}

// Open opens (creating if needed) the history database in dir and migrates
// its schema.
func Open(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, FileName)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.AutoMigrate(&Record{}, &CategoryUsage{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close releases the database connection.
func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Add archives final, the snapshot returned when a session ends. A session
// that is already archived is left as it is and its existing record returned.
func (a *Archive) Add(final *session.Session, endedAt time.Time) (*Record, error) {
	if final == nil {
		return nil, errors.New("history: nothing to archive")
	}
	existing, err := a.Get(final.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	rec := Record{
		SessionID:    final.ID,
		StartedAt:    final.StartedAt,
		EndedAt:      endedAt,
		TotalMinutes: final.TotalDuration,
		UsedMinutes:  final.TotalUsed(),
		Categories:   make([]CategoryUsage, len(final.Allocations)),
	}
	for i, c := range final.Allocations {
		rec.Categories[i] = CategoryUsage{
			Position:         i,
			CategoryID:       c.CategoryID,
			AllocatedMinutes: c.AllocatedMinutes,
			UsedMinutes:      c.UsedMinutes,
			AdjustedMinutes:  c.AdjustedMinutes,
		}
	}
	if err := a.db.Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("failed to archive session %s: %w", final.ID, err)
	}
	return &rec, nil
}

// List returns up to limit records, most recently ended first. A limit of 0
// or less returns everything.
func (a *Archive) List(limit int) ([]Record, error) {
	var recs []Record
	q := a.db.Preload("Categories", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Order("ended_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return recs, nil
}

// Get returns the record for sessionID.
func (a *Archive) Get(sessionID string) (*Record, error) {
	var rec Record
	err := a.db.Preload("Categories", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("session_id = ?", sessionID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return &rec, nil
}

// Totals sums actual use per category across every archived session, in
// first-seen order.
func (a *Archive) Totals() ([]CategoryUsage, error) {
	var rows []CategoryUsage
	err := a.db.Model(&CategoryUsage{}).
		Select("category_id, SUM(allocated_minutes) AS allocated_minutes, SUM(used_minutes) AS used_minutes, SUM(adjusted_minutes) AS adjusted_minutes, MIN(id) AS id").
		Group("category_id").
		Order("id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to total history: %w", err)
	}
	return rows, nil
}
