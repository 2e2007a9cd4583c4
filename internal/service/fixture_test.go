package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vgl-spec/soil-sub000/internal/dto"
	"github.com/vgl-spec/soil-sub000/internal/model"
	"github.com/vgl-spec/soil-sub000/internal/repository"
	"github.com/vgl-spec/soil-sub000/internal/testutil"
)

// ── Fixture ───────────────────────────────────────────────────────────────────
// Real repositories over an in-memory SQLite database.

type fixture struct {
	db      *gorm.DB
	items   repository.ItemRepository
	history repository.ItemHistoryRepository
	logs    repository.ActionLogRepository
	users   repository.UserRepository

	catalog CatalogService
	ledger  LedgerService
	audit   AuditService
	auth    AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)

	catalogRepo := repository.NewCatalogRepository(db)
	f := &fixture{
		db:      db,
		items:   repository.NewItemRepository(db),
		history: repository.NewItemHistoryRepository(db),
		logs:    repository.NewActionLogRepository(db),
		users:   repository.NewUserRepository(db),
	}
	f.audit = NewAuditService(f.logs, f.users)
	f.catalog = NewCatalogService(catalogRepo, f.items, f.history, f.audit)
	f.ledger = NewLedgerService(f.items, f.history, catalogRepo, f.audit)
	f.auth = NewAuthService(f.users, f.logs, f.audit, bcrypt.MinCost)
	return f
}

type tomato struct {
	categoryID, subcategoryID, predefinedItemID int64
}

// seedTomato builds Vegetables / Fruiting / Tomato (kg).
func (f *fixture) seedTomato(t *testing.T) tomato {
	t.Helper()
	ctx := context.Background()

	catID, err := f.catalog.AddCategory(ctx, dto.AddCategoryRequest{Name: "vegetables", Label: "Vegetables"})
	require.NoError(t, err)
	subID, err := f.catalog.AddSubcategory(ctx, dto.AddSubcategoryRequest{
		MainCategoryID: catID, Name: "fruiting", Label: "Fruiting", Unit: model.UnitKg,
	})
	require.NoError(t, err)
	pid, err := f.catalog.AddPredefinedItem(ctx, dto.AddPredefinedItemRequest{
		MainCategoryID: catID, SubcatID: subID, Name: "Tomato", Unit: model.UnitKg,
	})
	require.NoError(t, err)
	return tomato{categoryID: catID, subcategoryID: subID, predefinedItemID: pid}
}

func (f *fixture) seedUser(t *testing.T, username, password, role string) *model.User {
	t.Helper()
	stored := password
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		require.NoError(t, err)
		stored = string(h)
	}
	u := &model.User{Username: username, Email: username + "@farm.test", Password: stored, Role: role}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

// requireLedgerConsistent asserts items.quantity == Σ item_history.quantity
// for every predefined item.
func (f *fixture) requireLedgerConsistent(t *testing.T) {
	t.Helper()
	res, err := f.ledger.CheckLedger(context.Background())
	require.NoError(t, err)
	require.True(t, res.Consistent, "ledger mismatches: %+v", res.Mismatches)
}

func ptr[T any](v T) *T { return &v }
