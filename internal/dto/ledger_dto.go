package dto

// ── Request DTOs ──────────────────────────────────────────────────────────────

type AddItemRequest struct {
	PredefinedItemID int64  `json:"predefined_item_id" validate:"required,gt=0"`
	Quantity         int64  `json:"quantity"           validate:"required,gt=0"`
	HarvestDate      string `json:"harvest_date"       validate:"omitempty,datetime=2006-01-02"`
	Notes            string `json:"notes"              validate:"max=1000"`
	UserID           *int64 `json:"user_id"`
}

type IncreaseStockRequest struct {
	ItemID      int64  `json:"itemId"      validate:"required,gt=0"`
	Quantity    int64  `json:"quantity"    validate:"required,gt=0"`
	Notes       string `json:"notes"       validate:"max=1000"`
	UserID      *int64 `json:"userId"`
	HarvestDate string `json:"harvestDate" validate:"omitempty,datetime=2006-01-02"`
}

// ReduceStockRequest accepts either a negative delta or an unsigned amount.
type ReduceStockRequest struct {
	ItemID   int64  `json:"itemId"   validate:"required,gt=0"`
	Quantity int64  `json:"quantity" validate:"required"`
	Notes    string `json:"notes"    validate:"max=1000"`
	UserID   *int64 `json:"userId"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type ConsolidatedItem struct {
	ID               int64   `json:"id"`
	PredefinedItemID int64   `json:"predefined_item_id"`
	Name             string  `json:"name"`
	Unit             string  `json:"unit"`
	Quantity         int64   `json:"quantity"`
	HarvestDate      *string `json:"harvestDate"`
	MainCategoryID   int64   `json:"main_category_id"`
	SubcatID         int64   `json:"subcat_id"`
	CategoryLabel    string  `json:"category_label"`
	SubcategoryLabel string  `json:"subcategory_label"`
	UpdatedAt        string  `json:"updated_at"`
}

type HistoryEntry struct {
	ID               int64   `json:"id"`
	PredefinedItemID int64   `json:"predefined_item_id"`
	Name             string  `json:"name"`
	Unit             string  `json:"unit"`
	MainCategoryID   int64   `json:"main_category_id"`
	SubcatID         int64   `json:"subcat_id"`
	Quantity         int64   `json:"quantity"`
	HarvestDate      *string `json:"harvest_date"`
	Notes            string  `json:"notes"`
	ChangeType       string  `json:"change_type"`
	Date             string  `json:"date"`
}

// ItemsResponse is returned by GET /items.
type ItemsResponse struct {
	Items   []ConsolidatedItem `json:"items"`
	History []HistoryEntry     `json:"history"`
}

// LedgerMismatch reports a predefined item whose stock row disagrees with
// the sum of its ledger.
type LedgerMismatch struct {
	PredefinedItemID int64 `json:"predefined_item_id"`
	Quantity         int64 `json:"quantity"`
	LedgerTotal      int64 `json:"ledger_total"`
}

type LedgerCheckResponse struct {
	Consistent bool             `json:"consistent"`
	Mismatches []LedgerMismatch `json:"mismatches"`
}
