package repository

import (
	"context"
	"time"

	"github.com/vgl-spec/soil-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConsolidatedRow is one stock row joined with its catalog labels.
type ConsolidatedRow struct {
	ID               int64
	PredefinedItemID int64
	Quantity         int64
	HarvestDate      *time.Time
	UpdatedAt        time.Time
	Name             string
	Unit             string
	MainCategoryID   int64
	SubcatID         int64
	CategoryLabel    string
	SubcategoryLabel string
}

// ItemRepository defines data access for the current-stock table.
type ItemRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Item, error)
	FindByPredefinedItemID(ctx context.Context, predefinedItemID int64) (*model.Item, error)
	ListConsolidated(ctx context.Context) ([]ConsolidatedRow, error)
	// FindConsolidatedByID resolves one stock row with the labels used in
	// audit descriptions, in a single join.
	FindConsolidatedByID(ctx context.Context, id int64) (*ConsolidatedRow, error)

	// Used inside transactions; callers must pass the tx instance
	FindByIDTx(tx *gorm.DB, id int64) (*model.Item, error)
	FindByPredefinedItemIDTx(tx *gorm.DB, predefinedItemID int64) (*model.Item, error)
	// UpsertAddTx adds delta to the stock row of the predefined item, creating
	// the row on first use. One statement, so concurrent first adds land on
	// the same row. harvestDate replaces the stored date only when non-nil.
	UpsertAddTx(tx *gorm.DB, predefinedItemID, delta int64, harvestDate *time.Time) error
	// IncreaseTx adds delta to the stock row with the given id.
	IncreaseTx(tx *gorm.DB, id, delta int64, harvestDate *time.Time) (int64, error)
	// DecreaseTx subtracts amount only when the row holds at least amount;
	// 0 rows touched means insufficient stock (or unknown id).
	DecreaseTx(tx *gorm.DB, id, amount int64) (int64, error)
	CountByPredefinedItemsTx(tx *gorm.DB, predefinedItemIDs []int64) (int64, error)
	DeleteByPredefinedItemsTx(tx *gorm.DB, predefinedItemIDs []int64) (int64, error)

	DB() *gorm.DB
}

type itemRepo struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) ItemRepository { return &itemRepo{db: db} }

func (r *itemRepo) FindByID(ctx context.Context, id int64) (*model.Item, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *itemRepo) FindByPredefinedItemID(ctx context.Context, predefinedItemID int64) (*model.Item, error) {
	return r.FindByPredefinedItemIDTx(r.db.WithContext(ctx), predefinedItemID)
}

func (r *itemRepo) consolidatedQuery(q *gorm.DB) *gorm.DB {
	return q.Table("items AS i").
		Select(`i.id, i.predefined_item_id, i.quantity, i.harvest_date, i.updated_at,
			p.name, p.unit, p.main_category_id, p.subcat_id,
			c.label AS category_label, s.label AS subcategory_label`).
		Joins("JOIN predefined_items p ON p.id = i.predefined_item_id").
		Joins("JOIN categories c ON c.id = p.main_category_id").
		Joins("JOIN subcategories s ON s.id = p.subcat_id")
}

func (r *itemRepo) ListConsolidated(ctx context.Context) ([]ConsolidatedRow, error) {
	var rows []ConsolidatedRow
	err := r.consolidatedQuery(r.db.WithContext(ctx)).
		Order("c.label ASC, s.label ASC, p.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *itemRepo) FindConsolidatedByID(ctx context.Context, id int64) (*ConsolidatedRow, error) {
	var rows []ConsolidatedRow
	err := r.consolidatedQuery(r.db.WithContext(ctx)).
		Where("i.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *itemRepo) FindByIDTx(tx *gorm.DB, id int64) (*model.Item, error) {
	var it model.Item
	if err := tx.First(&it, id).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *itemRepo) FindByPredefinedItemIDTx(tx *gorm.DB, predefinedItemID int64) (*model.Item, error) {
	var it model.Item
	if err := tx.Where("predefined_item_id = ?", predefinedItemID).First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *itemRepo) UpsertAddTx(tx *gorm.DB, predefinedItemID, delta int64, harvestDate *time.Time) error {
	now := time.Now().UTC()
	it := &model.Item{
		PredefinedItemID: predefinedItemID,
		Quantity:         delta,
		HarvestDate:      harvestDate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "predefined_item_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":     gorm.Expr("items.quantity + excluded.quantity"),
			"harvest_date": gorm.Expr("COALESCE(excluded.harvest_date, items.harvest_date)"),
			"updated_at":   gorm.Expr("excluded.updated_at"),
		}),
	}).Create(it).Error
}

func stockUpdates(delta int64, harvestDate *time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"quantity":   gorm.Expr("quantity + ?", delta),
		"updated_at": time.Now().UTC(),
	}
	if harvestDate != nil {
		updates["harvest_date"] = *harvestDate
	}
	return updates
}

func (r *itemRepo) IncreaseTx(tx *gorm.DB, id, delta int64, harvestDate *time.Time) (int64, error) {
	res := tx.Model(&model.Item{}).
		Where("id = ?", id).
		UpdateColumns(stockUpdates(delta, harvestDate))
	return res.RowsAffected, res.Error
}

func (r *itemRepo) DecreaseTx(tx *gorm.DB, id, amount int64) (int64, error) {
	res := tx.Model(&model.Item{}).
		Where("id = ? AND quantity >= ?", id, amount).
		UpdateColumns(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", amount),
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *itemRepo) CountByPredefinedItemsTx(tx *gorm.DB, predefinedItemIDs []int64) (int64, error) {
	if len(predefinedItemIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := tx.Model(&model.Item{}).Where("predefined_item_id IN ?", predefinedItemIDs).Count(&n).Error
	return n, err
}

func (r *itemRepo) DeleteByPredefinedItemsTx(tx *gorm.DB, predefinedItemIDs []int64) (int64, error) {
	if len(predefinedItemIDs) == 0 {
		return 0, nil
	}
	res := tx.Where("predefined_item_id IN ?", predefinedItemIDs).Delete(&model.Item{})
	return res.RowsAffected, res.Error
}

func (r *itemRepo) DB() *gorm.DB { return r.db }
