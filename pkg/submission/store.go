package submission

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/mechanicalh600-lang/CheckList/models"
)

// Postgres error codes the pipeline reacts to.
const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
)

// GormStore is the Postgres-backed header store and item sink.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) MaxTrackingCode(ctx context.Context, prefix string) (string, error) {
	var codes []string
	err := s.db.WithContext(ctx).
		Model(&models.Inspection{}).
		Where("tracking_code LIKE ?", prefix+"%").
		Order("tracking_code DESC").
		Limit(1).
		Pluck("tracking_code", &codes).Error
	if err != nil {
		return "", err
	}
	if len(codes) == 0 {
		return "", nil
	}
	return codes[0], nil
}

func (s *GormStore) InsertHeader(ctx context.Context, header *models.Inspection) error {
	err := s.db.WithContext(ctx).Create(header).Error
	if isPGError(err, pgUniqueViolation) {
		return fmt.Errorf("%w: %s", ErrDuplicateTrackingCode, header.TrackingCode)
	}
	return err
}

func (s *GormStore) InsertChecklistResults(ctx context.Context, rows []models.ChecklistResult, includeMedia bool) error {
	tx := s.db.WithContext(ctx)
	if !includeMedia {
		tx = tx.Omit("PhotoURL", "VideoURL")
	}
	err := tx.Create(&rows).Error
	if isPGError(err, pgUndefinedTable) {
		return fmt.Errorf("%w: checklist_results", ErrUndefinedTable)
	}
	return err
}

func (s *GormStore) InsertLegacyItems(ctx context.Context, rows []models.InspectionItem) error {
	err := s.db.WithContext(ctx).Create(&rows).Error
	if isPGError(err, pgUndefinedTable) {
		return fmt.Errorf("%w: inspection_items", ErrUndefinedTable)
	}
	return err
}

func (s *GormStore) UpdateStatus(ctx context.Context, id string, status string) error {
	return s.db.WithContext(ctx).
		Model(&models.Inspection{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func isPGError(err error, code string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
