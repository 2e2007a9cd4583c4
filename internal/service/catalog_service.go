package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/vgl-spec/soil-sub000/internal/apierror"
	"github.com/vgl-spec/soil-sub000/internal/dto"
	"github.com/vgl-spec/soil-sub000/internal/model"
	"github.com/vgl-spec/soil-sub000/internal/repository"
)

// CatalogService manages the category → subcategory → predefined item tree.
type CatalogService interface {
	AddCategory(ctx context.Context, req dto.AddCategoryRequest) (int64, error)
	AddSubcategory(ctx context.Context, req dto.AddSubcategoryRequest) (int64, error)
	AddPredefinedItem(ctx context.Context, req dto.AddPredefinedItemRequest) (int64, error)
	DeletePredefinedItem(ctx context.Context, req dto.DeletePredefinedItemRequest) (*dto.DeleteResult, error)
	DeleteSubcategory(ctx context.Context, req dto.DeleteSubcategoryRequest) (*dto.DeleteResult, error)
	GetCatalog(ctx context.Context) (dto.CatalogResponse, error)
	CheckItemExists(ctx context.Context, q dto.CheckItemExistsQuery) (*dto.CheckItemExistsResponse, error)
}

type catalogService struct {
	repo    repository.CatalogRepository
	items   repository.ItemRepository
	history repository.ItemHistoryRepository
	audit   AuditService
}

func NewCatalogService(
	repo repository.CatalogRepository,
	items repository.ItemRepository,
	history repository.ItemHistoryRepository,
	audit AuditService,
) CatalogService {
	return &catalogService{repo: repo, items: items, history: history, audit: audit}
}

func validUnit(u string) bool {
	return u == model.UnitKg || u == model.UnitPcs
}

func (s *catalogService) AddCategory(ctx context.Context, req dto.AddCategoryRequest) (int64, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return 0, apierror.Validation("Category name is required")
	}
	if _, err := s.repo.FindCategoryByName(ctx, name); err == nil {
		return 0, apierror.Conflict(fmt.Sprintf("Category %q already exists", name))
	} else if !isNotFound(err) {
		return 0, err
	}

	c := &model.Category{Name: name, Label: strings.TrimSpace(req.Label)}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		if isDuplicate(err) {
			return 0, apierror.Conflict(fmt.Sprintf("Category %q already exists", name))
		}
		return 0, fmt.Errorf("create category: %w", err)
	}

	s.audit.Record(ctx, req.UserID, model.ActionAddCategory,
		fmt.Sprintf("Added category %s (%s)", c.Label, c.Name))
	return c.ID, nil
}

func (s *catalogService) AddSubcategory(ctx context.Context, req dto.AddSubcategoryRequest) (int64, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return 0, apierror.Validation("Subcategory name is required")
	}
	unit := req.Unit
	if unit == "" {
		unit = model.UnitKg
	}
	if !validUnit(unit) {
		return 0, apierror.Validation("Unit must be kg or pcs")
	}

	cat, err := s.repo.FindCategoryByID(ctx, req.MainCategoryID)
	if err != nil {
		if isNotFound(err) {
			return 0, apierror.NotFound("Category not found")
		}
		return 0, err
	}
	if _, err := s.repo.FindSubcategoryByName(ctx, cat.ID, name); err == nil {
		return 0, apierror.Conflict(fmt.Sprintf("Subcategory %q already exists in %s", name, cat.Label))
	} else if !isNotFound(err) {
		return 0, err
	}

	sub := &model.Subcategory{
		CategoryID: cat.ID,
		Name:       name,
		Label:      strings.TrimSpace(req.Label),
		Unit:       unit,
	}
	if err := s.repo.CreateSubcategory(ctx, sub); err != nil {
		if isDuplicate(err) {
			return 0, apierror.Conflict(fmt.Sprintf("Subcategory %q already exists in %s", name, cat.Label))
		}
		return 0, fmt.Errorf("create subcategory: %w", err)
	}

	s.audit.Record(ctx, req.UserID, model.ActionAddSubcategory,
		fmt.Sprintf("Added subcategory %s under %s", sub.Label, cat.Label))
	return sub.ID, nil
}

func (s *catalogService) AddPredefinedItem(ctx context.Context, req dto.AddPredefinedItemRequest) (int64, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return 0, apierror.Validation("Item name is required")
	}
	if !validUnit(req.Unit) {
		return 0, apierror.Validation("Unit must be kg or pcs")
	}

	sub, err := s.repo.FindSubcategoryByID(ctx, req.SubcatID)
	if err != nil {
		if isNotFound(err) {
			return 0, apierror.NotFound("Subcategory not found")
		}
		return 0, err
	}
	if sub.CategoryID != req.MainCategoryID {
		return 0, apierror.NotFound("Subcategory not found in the given category")
	}
	if _, err := s.repo.FindPredefinedItem(ctx, req.MainCategoryID, sub.ID, name); err == nil {
		return 0, apierror.Conflict(fmt.Sprintf("Item %q already exists in %s", name, sub.Label))
	} else if !isNotFound(err) {
		return 0, err
	}

	p := &model.PredefinedItem{
		MainCategoryID: req.MainCategoryID,
		SubcatID:       sub.ID,
		Name:           name,
		Unit:           req.Unit,
	}
	if err := s.repo.CreatePredefinedItem(ctx, p); err != nil {
		if isDuplicate(err) {
			return 0, apierror.Conflict(fmt.Sprintf("Item %q already exists in %s", name, sub.Label))
		}
		return 0, fmt.Errorf("create predefined item: %w", err)
	}

	s.audit.Record(ctx, req.UserID, model.ActionAddPredefinedItem,
		fmt.Sprintf("Added predefined item %s (%s) under %s", p.Name, p.Unit, sub.Label))
	return p.ID, nil
}

// ── Deletes ───────────────────────────────────────────────────────────────────
// Both deletes run the whole cascade in one transaction: history first, then
// stock rows, then the catalog rows. Without force_delete any reference
// aborts the transaction with a Conflict carrying the counts.

func (s *catalogService) DeletePredefinedItem(ctx context.Context, req dto.DeletePredefinedItemRequest) (*dto.DeleteResult, error) {
	p, err := s.repo.FindPredefinedItemByID(ctx, req.PredefinedItemID)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.NotFound("Predefined item not found")
		}
		return nil, err
	}

	var res dto.DeleteResult
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ids := []int64{p.ID}
		nItems, err := s.items.CountByPredefinedItemsTx(tx, ids)
		if err != nil {
			return err
		}
		nHistory, err := s.history.CountByPredefinedItemsTx(tx, ids)
		if err != nil {
			return err
		}
		if (nItems > 0 || nHistory > 0) && !req.ForceDelete {
			return apierror.ConflictWithRefs(
				fmt.Sprintf("Item %s is referenced by %d stock rows and %d history entries", p.Name, nItems, nHistory),
				map[string]int64{"items": nItems, "history": nHistory},
			)
		}
		return s.cascadeTx(tx, ids, &res)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, req.UserID, model.ActionDeleteItem,
		fmt.Sprintf("Deleted predefined item %s with %d stock rows and %d history entries", p.Name, res.Items, res.History))
	return &res, nil
}

func (s *catalogService) DeleteSubcategory(ctx context.Context, req dto.DeleteSubcategoryRequest) (*dto.DeleteResult, error) {
	sub, err := s.repo.FindSubcategoryByID(ctx, req.SubcategoryID)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.NotFound("Subcategory not found")
		}
		return nil, err
	}

	var res dto.DeleteResult
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ids, err := s.repo.PredefinedItemIDsBySubcategoryTx(tx, sub.ID)
		if err != nil {
			return err
		}
		if len(ids) > 0 && !req.ForceDelete {
			nItems, err := s.items.CountByPredefinedItemsTx(tx, ids)
			if err != nil {
				return err
			}
			nHistory, err := s.history.CountByPredefinedItemsTx(tx, ids)
			if err != nil {
				return err
			}
			return apierror.ConflictWithRefs(
				fmt.Sprintf("Subcategory %s still has %d predefined items", sub.Label, len(ids)),
				map[string]int64{
					"predefined_items": int64(len(ids)),
					"items":            nItems,
					"history":          nHistory,
				},
			)
		}
		if err := s.cascadeTx(tx, ids, &res); err != nil {
			return err
		}
		n, err := s.repo.DeleteSubcategoryTx(tx, sub.ID)
		if err != nil {
			return fmt.Errorf("delete subcategory: %w", err)
		}
		res.Subcategories = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, req.UserID, model.ActionDeleteSubcategory,
		fmt.Sprintf("Deleted subcategory %s with %d predefined items, %d stock rows and %d history entries",
			sub.Label, res.PredefinedItems, res.Items, res.History))
	return &res, nil
}

func (s *catalogService) cascadeTx(tx *gorm.DB, ids []int64, res *dto.DeleteResult) error {
	var err error
	if res.History, err = s.history.DeleteByPredefinedItemsTx(tx, ids); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if res.Items, err = s.items.DeleteByPredefinedItemsTx(tx, ids); err != nil {
		return fmt.Errorf("delete stock rows: %w", err)
	}
	if res.PredefinedItems, err = s.repo.DeletePredefinedItemsTx(tx, ids); err != nil {
		return fmt.Errorf("delete predefined items: %w", err)
	}
	return nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *catalogService) GetCatalog(ctx context.Context) (dto.CatalogResponse, error) {
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := s.repo.ListSubcategories(ctx)
	if err != nil {
		return nil, err
	}
	preds, err := s.repo.ListPredefinedItems(ctx)
	if err != nil {
		return nil, err
	}

	catNames := make(map[int64]string, len(cats))
	out := make(dto.CatalogResponse, len(cats))
	for _, c := range cats {
		catNames[c.ID] = c.Name
		out[c.Name] = dto.CategoryNode{
			ID:            c.ID,
			Label:         c.Label,
			Subcategories: map[string]dto.SubcategoryNode{},
		}
	}

	type subRef struct{ cat, name string }
	subRefs := make(map[int64]subRef, len(subs))
	for _, sc := range subs {
		catName, ok := catNames[sc.CategoryID]
		if !ok {
			continue
		}
		subRefs[sc.ID] = subRef{cat: catName, name: sc.Name}
		out[catName].Subcategories[sc.Name] = dto.SubcategoryNode{
			ID:              sc.ID,
			Label:           sc.Label,
			Unit:            sc.Unit,
			PredefinedItems: []dto.PredefinedItemNode{},
		}
	}

	for _, p := range preds {
		ref, ok := subRefs[p.SubcatID]
		if !ok {
			continue
		}
		node := out[ref.cat].Subcategories[ref.name]
		node.PredefinedItems = append(node.PredefinedItems, dto.PredefinedItemNode{
			ID:   p.ID,
			Name: p.Name,
			Unit: p.Unit,
		})
		out[ref.cat].Subcategories[ref.name] = node
	}
	return out, nil
}

func (s *catalogService) CheckItemExists(ctx context.Context, q dto.CheckItemExistsQuery) (*dto.CheckItemExistsResponse, error) {
	p, err := s.repo.FindPredefinedItem(ctx, q.MainCategoryID, q.SubcategoryID, strings.TrimSpace(q.Name))
	if err != nil {
		if isNotFound(err) {
			return &dto.CheckItemExistsResponse{Exists: false}, nil
		}
		return nil, err
	}

	item := &dto.ExistingItem{
		PredefinedItemID: p.ID,
		Name:             p.Name,
		Unit:             p.Unit,
		MainCategoryID:   p.MainCategoryID,
		SubcatID:         p.SubcatID,
	}
	stock, err := s.items.FindByPredefinedItemID(ctx, p.ID)
	switch {
	case err == nil:
		item.ItemID = &stock.ID
		item.Quantity = stock.Quantity
	case !isNotFound(err):
		return nil, err
	}
	return &dto.CheckItemExistsResponse{Exists: true, Item: item}, nil
}
