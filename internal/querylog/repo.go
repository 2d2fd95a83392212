package querylog

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Insert stores e, ignoring an entry whose ID is already present.
func (r *Repo) Insert(ctx context.Context, e *Entry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(e).Error
}

func (r *Repo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Entry{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// ListBySession returns a session's entries newest first.
func (r *Repo) ListBySession(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []Entry
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
