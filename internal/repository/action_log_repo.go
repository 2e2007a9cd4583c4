package repository

import (
	"context"
	"time"

	"github.com/vgl-spec/soil-sub000/internal/model"

	"gorm.io/gorm"
)

// ActionLogRow is an audit entry joined with the acting user's name.
// Username is empty when the entry has no user.
type ActionLogRow struct {
	ID          int64
	UserID      *int64
	Username    string
	ActionType  string
	Description string
	Timestamp   time.Time
}

type ActionLogRepository interface {
	Create(ctx context.Context, l *model.ActionLog) error
	// List returns entries newest first, optionally for one user.
	List(ctx context.Context, userID *int64) ([]ActionLogRow, error)
	Count(ctx context.Context) (int64, error)

	// Used inside transactions; callers must pass the tx instance
	CreateTx(tx *gorm.DB, l *model.ActionLog) error
	CountTx(tx *gorm.DB) (int64, error)
	DeleteAllTx(tx *gorm.DB) (int64, error)
	DeleteByUserTx(tx *gorm.DB, userID int64) (int64, error)

	DB() *gorm.DB
}

type actionLogRepo struct{ db *gorm.DB }

func NewActionLogRepository(db *gorm.DB) ActionLogRepository { return &actionLogRepo{db: db} }

func (r *actionLogRepo) Create(ctx context.Context, l *model.ActionLog) error {
	return r.CreateTx(r.db.WithContext(ctx), l)
}

func (r *actionLogRepo) List(ctx context.Context, userID *int64) ([]ActionLogRow, error) {
	q := r.db.WithContext(ctx).
		Table("action_logs AS l").
		Select("l.id, l.user_id, COALESCE(u.username, '') AS username, l.action_type, l.description, l.timestamp").
		Joins("LEFT JOIN users u ON u.id = l.user_id")
	if userID != nil {
		q = q.Where("l.user_id = ?", *userID)
	}
	var rows []ActionLogRow
	err := q.Order("l.timestamp DESC, l.id DESC").Scan(&rows).Error
	return rows, err
}

func (r *actionLogRepo) Count(ctx context.Context) (int64, error) {
	return r.CountTx(r.db.WithContext(ctx))
}

func (r *actionLogRepo) CreateTx(tx *gorm.DB, l *model.ActionLog) error {
	return tx.Create(l).Error
}

func (r *actionLogRepo) CountTx(tx *gorm.DB) (int64, error) {
	var n int64
	err := tx.Model(&model.ActionLog{}).Count(&n).Error
	return n, err
}

func (r *actionLogRepo) DeleteAllTx(tx *gorm.DB) (int64, error) {
	res := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.ActionLog{})
	return res.RowsAffected, res.Error
}

func (r *actionLogRepo) DeleteByUserTx(tx *gorm.DB, userID int64) (int64, error) {
	res := tx.Where("user_id = ?", userID).Delete(&model.ActionLog{})
	return res.RowsAffected, res.Error
}

func (r *actionLogRepo) DB() *gorm.DB { return r.db }
