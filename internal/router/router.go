package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/vgl-spec/soil-sub000/internal/config"
	"github.com/vgl-spec/soil-sub000/internal/handler"
	"github.com/vgl-spec/soil-sub000/internal/infra"
	"github.com/vgl-spec/soil-sub000/internal/middleware"
	"github.com/vgl-spec/soil-sub000/internal/repository"
	"github.com/vgl-spec/soil-sub000/internal/service"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb may be nil; the login limiter is then disabled.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorHandler())

	// ── Repositories ─────────────────────────────────────────────────────────
	catalogRepo := repository.NewCatalogRepository(db)
	itemRepo := repository.NewItemRepository(db)
	historyRepo := repository.NewItemHistoryRepository(db)
	logRepo := repository.NewActionLogRepository(db)
	userRepo := repository.NewUserRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	auditSvc := service.NewAuditService(logRepo, userRepo)
	catalogSvc := service.NewCatalogService(catalogRepo, itemRepo, historyRepo, auditSvc)
	ledgerSvc := service.NewLedgerService(itemRepo, historyRepo, catalogRepo, auditSvc)
	authSvc := service.NewAuthService(userRepo, logRepo, auditSvc, cfg.BcryptCost)

	// ── Handlers ─────────────────────────────────────────────────────────────
	catalogH := handler.NewCatalogHandler(catalogSvc)
	itemsH := handler.NewItemsHandler(ledgerSvc)
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	logsH := handler.NewLogsHandler(auditSvc)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(db, rdb))

	// Catalog
	r.GET("/categories", catalogH.Categories)
	r.GET("/check_item_exists", catalogH.CheckItemExists)
	r.POST("/add_category", catalogH.AddCategory)
	r.POST("/add_subcategory", catalogH.AddSubcategory)
	r.POST("/add_predefined_item", catalogH.AddPredefinedItem)
	r.POST("/delete_predefined_item", catalogH.DeletePredefinedItem)
	r.POST("/delete_subcategory", catalogH.DeleteSubcategory)

	// Stock
	r.GET("/items", itemsH.List)
	r.POST("/items", itemsH.Add)
	r.POST("/increase_stock", itemsH.IncreaseStock)
	r.POST("/reduce_stock", itemsH.ReduceStock)
	r.GET("/ledger_check", itemsH.LedgerCheck)

	// Accounts
	redisBreaker := infra.NewBreaker(3, 30*time.Second)
	r.POST("/login", middleware.LoginRateLimiter(rdb, cfg.LoginRateLimit, redisBreaker), authH.Login)
	r.POST("/logout", authH.Logout)
	r.POST("/register", authH.Register)
	r.POST("/change_password", authH.ChangePassword)
	r.GET("/users", usersH.List)
	r.POST("/delete_user", usersH.Delete)

	// Audit log
	r.GET("/logs", logsH.List)
	r.POST("/clear_logs", logsH.Clear)
	r.GET("/download_logs", logsH.Download)

	return r
}
