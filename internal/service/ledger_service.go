package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/vgl-spec/soil-sub000/internal/apierror"
	"github.com/vgl-spec/soil-sub000/internal/dto"
	"github.com/vgl-spec/soil-sub000/internal/model"
	"github.com/vgl-spec/soil-sub000/internal/repository"
)

// LedgerService mutates stock. Every mutation writes the stock row and its
// history entry in the same transaction, so items.quantity always equals the
// sum of item_history.quantity for the predefined item.
type LedgerService interface {
	AddItem(ctx context.Context, req dto.AddItemRequest) (int64, error)
	IncreaseStock(ctx context.Context, req dto.IncreaseStockRequest) error
	ReduceStock(ctx context.Context, req dto.ReduceStockRequest) error
	ListConsolidated(ctx context.Context) ([]dto.ConsolidatedItem, error)
	ListHistory(ctx context.Context) ([]dto.HistoryEntry, error)
	// Items returns both listings from a single history read.
	Items(ctx context.Context) (*dto.ItemsResponse, error)
	CheckLedger(ctx context.Context) (*dto.LedgerCheckResponse, error)
}

type ledgerService struct {
	items   repository.ItemRepository
	history repository.ItemHistoryRepository
	catalog repository.CatalogRepository
	audit   AuditService
}

func NewLedgerService(
	items repository.ItemRepository,
	history repository.ItemHistoryRepository,
	catalog repository.CatalogRepository,
	audit AuditService,
) LedgerService {
	return &ledgerService{items: items, history: history, catalog: catalog, audit: audit}
}

var errQuantityOutOfRange = apierror.Validation("Quantity out of range")

func parseHarvestDate(s string) (*time.Time, error) {
	d, err := dto.ParseDate(s)
	if err != nil {
		return nil, apierror.Validation("Harvest date must be YYYY-MM-DD")
	}
	return d, nil
}

// ── Mutations ─────────────────────────────────────────────────────────────────

func (s *ledgerService) AddItem(ctx context.Context, req dto.AddItemRequest) (int64, error) {
	if req.Quantity <= 0 {
		return 0, apierror.Validation("Quantity must be greater than zero")
	}
	harvest, err := parseHarvestDate(req.HarvestDate)
	if err != nil {
		return 0, err
	}
	p, err := s.catalog.FindPredefinedItemByID(ctx, req.PredefinedItemID)
	if err != nil {
		if isNotFound(err) {
			return 0, apierror.NotFound("Predefined item not found")
		}
		return 0, err
	}

	var itemID int64
	err = runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		if existing, err := s.items.FindByPredefinedItemIDTx(tx, p.ID); err == nil {
			if existing.Quantity > math.MaxInt64-req.Quantity {
				return errQuantityOutOfRange
			}
		} else if !isNotFound(err) {
			return err
		}
		if err := s.items.UpsertAddTx(tx, p.ID, req.Quantity, harvest); err != nil {
			return fmt.Errorf("upsert stock row: %w", err)
		}
		it, err := s.items.FindByPredefinedItemIDTx(tx, p.ID)
		if err != nil {
			return fmt.Errorf("read stock row: %w", err)
		}
		itemID = it.ID
		return s.history.CreateTx(tx, &model.ItemHistory{
			PredefinedItemID: p.ID,
			Quantity:         req.Quantity,
			HarvestDate:      harvest,
			Notes:            req.Notes,
			ChangeType:       model.ChangeAdd,
			Date:             time.Now().UTC(),
		})
	})
	if err != nil {
		return 0, err
	}

	s.audit.Record(ctx, req.UserID, model.ActionAddItem,
		fmt.Sprintf("Added %d %s of %s", req.Quantity, p.Unit, p.Name))
	return itemID, nil
}

func (s *ledgerService) IncreaseStock(ctx context.Context, req dto.IncreaseStockRequest) error {
	if req.Quantity <= 0 {
		return apierror.Validation("Quantity must be greater than zero")
	}
	harvest, err := parseHarvestDate(req.HarvestDate)
	if err != nil {
		return err
	}

	var newQty int64
	err = runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		it, err := s.items.FindByIDTx(tx, req.ItemID)
		if err != nil {
			if isNotFound(err) {
				return apierror.NotFound("Item not found")
			}
			return err
		}
		if it.Quantity > math.MaxInt64-req.Quantity {
			return errQuantityOutOfRange
		}
		if _, err := s.items.IncreaseTx(tx, it.ID, req.Quantity, harvest); err != nil {
			return fmt.Errorf("increase stock: %w", err)
		}
		if newQty, err = s.currentQuantityTx(tx, it.ID); err != nil {
			return err
		}
		return s.history.CreateTx(tx, &model.ItemHistory{
			PredefinedItemID: it.PredefinedItemID,
			Quantity:         req.Quantity,
			HarvestDate:      harvest,
			Notes:            req.Notes,
			ChangeType:       model.ChangeIncrease,
			Date:             time.Now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, req.UserID, model.ActionIncreaseStock,
		s.describe(ctx, req.ItemID, "Increased", req.Quantity, newQty))
	return nil
}

func (s *ledgerService) ReduceStock(ctx context.Context, req dto.ReduceStockRequest) error {
	amount := req.Quantity
	if amount < 0 {
		amount = -amount
	}
	if amount == 0 {
		return apierror.Validation("Quantity must not be zero")
	}
	// -MinInt64 overflows back to a negative value.
	if amount < 0 {
		return errQuantityOutOfRange
	}

	var newQty int64
	err := runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		it, err := s.items.FindByIDTx(tx, req.ItemID)
		if err != nil {
			if isNotFound(err) {
				return apierror.NotFound("Item not found")
			}
			return err
		}
		if it.Quantity < amount {
			return apierror.Validation(fmt.Sprintf("Insufficient stock: requested %d, available %d", amount, it.Quantity))
		}
		n, err := s.items.DecreaseTx(tx, it.ID, amount)
		if err != nil {
			return fmt.Errorf("reduce stock: %w", err)
		}
		if n == 0 {
			return apierror.Validation("Insufficient stock")
		}
		if newQty, err = s.currentQuantityTx(tx, it.ID); err != nil {
			return err
		}
		return s.history.CreateTx(tx, &model.ItemHistory{
			PredefinedItemID: it.PredefinedItemID,
			Quantity:         -amount,
			Notes:            req.Notes,
			ChangeType:       model.ChangeReduce,
			Date:             time.Now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, req.UserID, model.ActionReduceStock,
		s.describe(ctx, req.ItemID, "Reduced", amount, newQty))
	return nil
}

// currentQuantityTx reads the row back after an update. The update holds the
// row lock until commit, so the value is exactly what this transaction wrote.
func (s *ledgerService) currentQuantityTx(tx *gorm.DB, itemID int64) (int64, error) {
	it, err := s.items.FindByIDTx(tx, itemID)
	if err != nil {
		return 0, fmt.Errorf("read stock row: %w", err)
	}
	return it.Quantity, nil
}

// describe builds the audit text for a stock change. Runs after commit.
func (s *ledgerService) describe(ctx context.Context, itemID int64, verb string, amount, newQty int64) string {
	row, err := s.items.FindConsolidatedByID(ctx, itemID)
	if err != nil {
		log.Warn().Err(err).Int64("item_id", itemID).Msg("ledger: item lookup for audit failed")
		return fmt.Sprintf("%s stock of item #%d by %d. New quantity: %d", verb, itemID, amount, newQty)
	}
	return fmt.Sprintf("%s stock of %s (%s / %s) by %d %s. New quantity: %d",
		verb, row.Name, row.CategoryLabel, row.SubcategoryLabel, amount, row.Unit, newQty)
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *ledgerService) ListConsolidated(ctx context.Context) ([]dto.ConsolidatedItem, error) {
	history, err := s.history.ListWithItem(ctx)
	if err != nil {
		return nil, err
	}
	return s.consolidate(ctx, history)
}

func (s *ledgerService) ListHistory(ctx context.Context) ([]dto.HistoryEntry, error) {
	history, err := s.history.ListWithItem(ctx)
	if err != nil {
		return nil, err
	}
	return toHistoryEntries(history), nil
}

func (s *ledgerService) Items(ctx context.Context) (*dto.ItemsResponse, error) {
	history, err := s.history.ListWithItem(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.consolidate(ctx, history)
	if err != nil {
		return nil, err
	}
	return &dto.ItemsResponse{Items: items, History: toHistoryEntries(history)}, nil
}

// consolidate resolves the displayed harvest date of each stock row from the
// prefetched history (newest first): the latest entry carrying a date, else
// the date stored on the row.
func (s *ledgerService) consolidate(ctx context.Context, history []repository.HistoryRow) ([]dto.ConsolidatedItem, error) {
	rows, err := s.items.ListConsolidated(ctx)
	if err != nil {
		return nil, err
	}

	latestDated := make(map[int64]*time.Time)
	for _, h := range history {
		if _, seen := latestDated[h.PredefinedItemID]; !seen && h.HarvestDate != nil {
			latestDated[h.PredefinedItemID] = h.HarvestDate
		}
	}

	out := make([]dto.ConsolidatedItem, len(rows))
	for i, r := range rows {
		harvest := r.HarvestDate
		if d, ok := latestDated[r.PredefinedItemID]; ok {
			harvest = d
		}
		out[i] = dto.ConsolidatedItem{
			ID:               r.ID,
			PredefinedItemID: r.PredefinedItemID,
			Name:             r.Name,
			Unit:             r.Unit,
			Quantity:         r.Quantity,
			HarvestDate:      dto.FormatDate(harvest),
			MainCategoryID:   r.MainCategoryID,
			SubcatID:         r.SubcatID,
			CategoryLabel:    r.CategoryLabel,
			SubcategoryLabel: r.SubcategoryLabel,
			UpdatedAt:        r.UpdatedAt.UTC().Format(time.RFC3339),
		}
	}
	return out, nil
}

func toHistoryEntries(rows []repository.HistoryRow) []dto.HistoryEntry {
	out := make([]dto.HistoryEntry, len(rows))
	for i, h := range rows {
		out[i] = dto.HistoryEntry{
			ID:               h.ID,
			PredefinedItemID: h.PredefinedItemID,
			Name:             h.Name,
			Unit:             h.Unit,
			MainCategoryID:   h.MainCategoryID,
			SubcatID:         h.SubcatID,
			Quantity:         h.Quantity,
			HarvestDate:      dto.FormatDate(h.HarvestDate),
			Notes:            h.Notes,
			ChangeType:       h.ChangeType,
			Date:             h.Date.UTC().Format(time.RFC3339),
		}
	}
	return out
}

// CheckLedger compares every stock row with the sum of its history.
func (s *ledgerService) CheckLedger(ctx context.Context) (*dto.LedgerCheckResponse, error) {
	rows, err := s.items.ListConsolidated(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.history.Totals(ctx)
	if err != nil {
		return nil, err
	}

	sums := make(map[int64]int64, len(totals))
	for _, t := range totals {
		sums[t.PredefinedItemID] = t.Total
	}
	mismatches := []dto.LedgerMismatch{}
	for _, r := range rows {
		if total := sums[r.PredefinedItemID]; total != r.Quantity {
			mismatches = append(mismatches, dto.LedgerMismatch{
				PredefinedItemID: r.PredefinedItemID,
				Quantity:         r.Quantity,
				LedgerTotal:      total,
			})
		}
		delete(sums, r.PredefinedItemID)
	}
	// History without a stock row.
	for pid, total := range sums {
		if total != 0 {
			mismatches = append(mismatches, dto.LedgerMismatch{PredefinedItemID: pid, LedgerTotal: total})
		}
	}
	sort.Slice(mismatches, func(i, j int) bool {
		return mismatches[i].PredefinedItemID < mismatches[j].PredefinedItemID
	})
	return &dto.LedgerCheckResponse{Consistent: len(mismatches) == 0, Mismatches: mismatches}, nil
}
