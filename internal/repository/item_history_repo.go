package repository

import (
	"context"
	"time"

	"github.com/vgl-spec/soil-sub000/internal/model"

	"gorm.io/gorm"
)

// HistoryRow is one ledger entry joined with its predefined item.
type HistoryRow struct {
	ID               int64
	PredefinedItemID int64
	Quantity         int64
	HarvestDate      *time.Time
	Notes            string
	ChangeType       string
	Date             time.Time
	Name             string
	Unit             string
	MainCategoryID   int64
	SubcatID         int64
}

// LedgerTotal is the sum of ledger quantities for one predefined item.
type LedgerTotal struct {
	PredefinedItemID int64
	Total            int64
}

type ItemHistoryRepository interface {
	// ListWithItem returns every ledger row, newest first.
	ListWithItem(ctx context.Context) ([]HistoryRow, error)
	// Totals sums the ledger per predefined item.
	Totals(ctx context.Context) ([]LedgerTotal, error)

	// Used inside transactions; callers must pass the tx instance
	CreateTx(tx *gorm.DB, h *model.ItemHistory) error
	CountByPredefinedItemsTx(tx *gorm.DB, predefinedItemIDs []int64) (int64, error)
	DeleteByPredefinedItemsTx(tx *gorm.DB, predefinedItemIDs []int64) (int64, error)
}

type itemHistoryRepo struct{ db *gorm.DB }

func NewItemHistoryRepository(db *gorm.DB) ItemHistoryRepository {
	return &itemHistoryRepo{db: db}
}

func (r *itemHistoryRepo) ListWithItem(ctx context.Context) ([]HistoryRow, error) {
	var rows []HistoryRow
	err := r.db.WithContext(ctx).
		Table("item_history AS h").
		Select(`h.id, h.predefined_item_id, h.quantity, h.harvest_date, h.notes, h.change_type, h.date,
			p.name, p.unit, p.main_category_id, p.subcat_id`).
		Joins("JOIN predefined_items p ON p.id = h.predefined_item_id").
		Order("h.date DESC, h.id DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *itemHistoryRepo) Totals(ctx context.Context) ([]LedgerTotal, error) {
	var totals []LedgerTotal
	err := r.db.WithContext(ctx).
		Model(&model.ItemHistory{}).
		Select("predefined_item_id, SUM(quantity) AS total").
		Group("predefined_item_id").
		Scan(&totals).Error
	return totals, err
}

func (r *itemHistoryRepo) CreateTx(tx *gorm.DB, h *model.ItemHistory) error {
	return tx.Create(h).Error
}

func (r *itemHistoryRepo) CountByPredefinedItemsTx(tx *gorm.DB, predefinedItemIDs []int64) (int64, error) {
	if len(predefinedItemIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := tx.Model(&model.ItemHistory{}).Where("predefined_item_id IN ?", predefinedItemIDs).Count(&n).Error
	return n, err
}

func (r *itemHistoryRepo) DeleteByPredefinedItemsTx(tx *gorm.DB, predefinedItemIDs []int64) (int64, error) {
	if len(predefinedItemIDs) == 0 {
		return 0, nil
	}
	res := tx.Where("predefined_item_id IN ?", predefinedItemIDs).Delete(&model.ItemHistory{})
	return res.RowsAffected, res.Error
}
