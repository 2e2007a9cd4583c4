package dto

// ── Request DTOs ──────────────────────────────────────────────────────────────

type AddCategoryRequest struct {
	Name   string `json:"name"    validate:"required,min=2,max=100"`
	Label  string `json:"label"   validate:"required,min=2,max=150"`
	UserID *int64 `json:"user_id"`
}

type AddSubcategoryRequest struct {
	MainCategoryID int64  `json:"main_category_id" validate:"required,gt=0"`
	Name           string `json:"name"             validate:"required,min=1,max=100"`
	Label          string `json:"label"            validate:"required,min=1,max=150"`
	Unit           string `json:"unit"             validate:"omitempty,oneof=kg pcs"`
	UserID         *int64 `json:"user_id"`
}

type AddPredefinedItemRequest struct {
	MainCategoryID int64  `json:"main_category_id" validate:"required,gt=0"`
	SubcatID       int64  `json:"subcat_id"        validate:"required,gt=0"`
	Name           string `json:"name"             validate:"required,min=1,max=150"`
	Unit           string `json:"unit"             validate:"required"`
	UserID         *int64 `json:"user_id"`
}

type DeletePredefinedItemRequest struct {
	PredefinedItemID int64  `json:"predefined_item_id" validate:"required,gt=0"`
	UserID           *int64 `json:"user_id"`
	ForceDelete      bool   `json:"force_delete"`
}

type DeleteSubcategoryRequest struct {
	SubcategoryID int64  `json:"subcategory_id" validate:"required,gt=0"`
	UserID        *int64 `json:"user_id"`
	ForceDelete   bool   `json:"force_delete"`
}

// CheckItemExistsQuery binds GET /check_item_exists.
type CheckItemExistsQuery struct {
	Name           string `form:"name"             validate:"required"`
	MainCategoryID int64  `form:"main_category_id" validate:"required,gt=0"`
	SubcategoryID  int64  `form:"subcategory_id"   validate:"required,gt=0"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

// CatalogResponse is keyed by category name; the nested maps are keyed by
// subcategory name.
type CatalogResponse map[string]CategoryNode

type CategoryNode struct {
	ID            int64                      `json:"id"`
	Label         string                     `json:"label"`
	Subcategories map[string]SubcategoryNode `json:"subcategories"`
}

type SubcategoryNode struct {
	ID              int64                `json:"id"`
	Label           string               `json:"label"`
	Unit            string               `json:"unit"`
	PredefinedItems []PredefinedItemNode `json:"predefinedItems"`
}

type PredefinedItemNode struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type CheckItemExistsResponse struct {
	Exists bool          `json:"exists"`
	Item   *ExistingItem `json:"item,omitempty"`
}

// ExistingItem describes a matching predefined item and, when stock has been
// recorded for it, its stock row.
type ExistingItem struct {
	PredefinedItemID int64  `json:"predefined_item_id"`
	Name             string `json:"name"`
	Unit             string `json:"unit"`
	MainCategoryID   int64  `json:"main_category_id"`
	SubcatID         int64  `json:"subcat_id"`
	ItemID           *int64 `json:"item_id"`
	Quantity         int64  `json:"quantity"`
}

// DeleteResult reports how many rows a delete removed, per table.
type DeleteResult struct {
	PredefinedItems int64 `json:"predefined_items"`
	Subcategories   int64 `json:"subcategories,omitempty"`
	Items           int64 `json:"items"`
	History         int64 `json:"history"`
}

// Total is the number of rows removed across all tables.
func (d DeleteResult) Total() int64 {
	return d.PredefinedItems + d.Subcategories + d.Items + d.History
}
