package repository

import (
	"context"

	"github.com/vgl-spec/soil-sub000/internal/model"

	"gorm.io/gorm"
)

// CatalogRepository defines data access for the category → subcategory →
// predefined item hierarchy.
type CatalogRepository interface {
	CreateCategory(ctx context.Context, c *model.Category) error
	FindCategoryByID(ctx context.Context, id int64) (*model.Category, error)
	FindCategoryByName(ctx context.Context, name string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)

	CreateSubcategory(ctx context.Context, s *model.Subcategory) error
	FindSubcategoryByID(ctx context.Context, id int64) (*model.Subcategory, error)
	FindSubcategoryByName(ctx context.Context, categoryID int64, name string) (*model.Subcategory, error)
	ListSubcategories(ctx context.Context) ([]model.Subcategory, error)

	CreatePredefinedItem(ctx context.Context, p *model.PredefinedItem) error
	FindPredefinedItemByID(ctx context.Context, id int64) (*model.PredefinedItem, error)
	FindPredefinedItem(ctx context.Context, categoryID, subcatID int64, name string) (*model.PredefinedItem, error)
	ListPredefinedItems(ctx context.Context) ([]model.PredefinedItem, error)

	// Used inside transactions; callers must pass the tx instance
	PredefinedItemIDsBySubcategoryTx(tx *gorm.DB, subcatID int64) ([]int64, error)
	DeletePredefinedItemsTx(tx *gorm.DB, ids []int64) (int64, error)
	DeleteSubcategoryTx(tx *gorm.DB, id int64) (int64, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type catalogRepo struct{ db *gorm.DB }

func NewCatalogRepository(db *gorm.DB) CatalogRepository { return &catalogRepo{db: db} }

func (r *catalogRepo) CreateCategory(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *catalogRepo) FindCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *catalogRepo) FindCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).Where("lower(name) = lower(?)", name).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *catalogRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	var list []model.Category
	err := r.db.WithContext(ctx).Order("label ASC, id ASC").Find(&list).Error
	return list, err
}

func (r *catalogRepo) CreateSubcategory(ctx context.Context, s *model.Subcategory) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *catalogRepo) FindSubcategoryByID(ctx context.Context, id int64) (*model.Subcategory, error) {
	var s model.Subcategory
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *catalogRepo) FindSubcategoryByName(ctx context.Context, categoryID int64, name string) (*model.Subcategory, error) {
	var s model.Subcategory
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND lower(name) = lower(?)", categoryID, name).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *catalogRepo) ListSubcategories(ctx context.Context) ([]model.Subcategory, error) {
	var list []model.Subcategory
	err := r.db.WithContext(ctx).Order("label ASC, id ASC").Find(&list).Error
	return list, err
}

func (r *catalogRepo) CreatePredefinedItem(ctx context.Context, p *model.PredefinedItem) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *catalogRepo) FindPredefinedItemByID(ctx context.Context, id int64) (*model.PredefinedItem, error) {
	var p model.PredefinedItem
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *catalogRepo) FindPredefinedItem(ctx context.Context, categoryID, subcatID int64, name string) (*model.PredefinedItem, error) {
	var p model.PredefinedItem
	err := r.db.WithContext(ctx).
		Where("main_category_id = ? AND subcat_id = ? AND lower(name) = lower(?)", categoryID, subcatID, name).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *catalogRepo) ListPredefinedItems(ctx context.Context) ([]model.PredefinedItem, error) {
	var list []model.PredefinedItem
	err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&list).Error
	return list, err
}

func (r *catalogRepo) PredefinedItemIDsBySubcategoryTx(tx *gorm.DB, subcatID int64) ([]int64, error) {
	var ids []int64
	err := tx.Model(&model.PredefinedItem{}).Where("subcat_id = ?", subcatID).Pluck("id", &ids).Error
	return ids, err
}

func (r *catalogRepo) DeletePredefinedItemsTx(tx *gorm.DB, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := tx.Where("id IN ?", ids).Delete(&model.PredefinedItem{})
	return res.RowsAffected, res.Error
}

func (r *catalogRepo) DeleteSubcategoryTx(tx *gorm.DB, id int64) (int64, error) {
	res := tx.Delete(&model.Subcategory{}, id)
	return res.RowsAffected, res.Error
}

func (r *catalogRepo) DB() *gorm.DB { return r.db }
