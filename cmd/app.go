package cmd

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/advance"
	advancePostgres "github.com/frahmantamala/expense-reconciliation/internal/advance/postgres"
	"github.com/frahmantamala/expense-reconciliation/internal/audit"
	auditPostgres "github.com/frahmantamala/expense-reconciliation/internal/audit/postgres"
	"github.com/frahmantamala/expense-reconciliation/internal/auth"
	authPostgres "github.com/frahmantamala/expense-reconciliation/internal/auth/postgres"
	"github.com/frahmantamala/expense-reconciliation/internal/catalog"
	"github.com/frahmantamala/expense-reconciliation/internal/core/events"
	"github.com/frahmantamala/expense-reconciliation/internal/expensesheet"
	expensesheetPostgres "github.com/frahmantamala/expense-reconciliation/internal/expensesheet/postgres"
	"github.com/frahmantamala/expense-reconciliation/internal/payment"
	paymentPostgres "github.com/frahmantamala/expense-reconciliation/internal/payment/postgres"
	"github.com/frahmantamala/expense-reconciliation/internal/reconciliation"
	reconciliationPostgres "github.com/frahmantamala/expense-reconciliation/internal/reconciliation/postgres"
	"github.com/frahmantamala/expense-reconciliation/internal/report"
	"github.com/frahmantamala/expense-reconciliation/internal/transport/rest"
	"github.com/frahmantamala/expense-reconciliation/internal/user"
	userPostgres "github.com/frahmantamala/expense-reconciliation/internal/user/postgres"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// Dependencies holds everything the commands share once the database is open.
type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Bus    *events.EventBus
	Logger *slog.Logger

	Users          *user.Service
	Auth           *auth.Service
	Audit          *audit.Service
	Payments       *payment.Service
	Reconciliation *reconciliation.Service
	Sheets         *expensesheet.Service
	Advances       *advance.Service
	Reports        *report.Service
}

func initializeDependencies(cfg *internal.Config, lg *slog.Logger) (*Dependencies, error) {
	sqlDB, gormDB, err := initDB(cfg.Database, cfg.Server.Env)
	if err != nil {
		return nil, err
	}

	bus := events.NewEventBus(lg)

	userSvc := user.NewService(userPostgres.NewUserRepository(gormDB), lg)
	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authSvc := auth.NewService(authPostgres.NewRepository(gormDB), tokenGen, cfg.Security.BCryptCost, lg)

	auditSvc := audit.NewService(auditPostgres.NewAuditRepository(gormDB), lg)
	auditSvc.Register(bus)

	paymentSvc := payment.NewService(paymentPostgres.NewPayoutRepository(gormDB), lg)
	reconSvc := reconciliation.NewService(reconciliationPostgres.NewReadRepository(sqlDB), lg)

	sheetRepo := expensesheetPostgres.NewExpenseSheetRepository(gormDB)
	exporter := report.NewExcelExporter(userSvc, lg)

	sheetSvc := expensesheet.NewService(sheetRepo, lg,
		expensesheet.WithBalanceProvider(reconSvc),
		expensesheet.WithEventPublisher(bus),
		expensesheet.WithExporter(exporter),
		expensesheet.WithHistoryReader(auditSvc),
	)
	advanceSvc := advance.NewService(advancePostgres.NewAdvanceRepository(gormDB), paymentSvc, lg,
		advance.WithEventPublisher(bus),
	)

	reportSvc := report.NewService(sheetRepo, exporter, report.Config{
		Dir:       cfg.Export.Dir,
		Workers:   cfg.Export.Workers,
		QueueSize: cfg.Export.QueueSize,
	}, lg)

	return &Dependencies{
		Config:         cfg,
		DB:             sqlDB,
		Gorm:           gormDB,
		Bus:            bus,
		Logger:         lg,
		Users:          userSvc,
		Auth:           authSvc,
		Audit:          auditSvc,
		Payments:       paymentSvc,
		Reconciliation: reconSvc,
		Sheets:         sheetSvc,
		Advances:       advanceSvc,
		Reports:        reportSvc,
	}, nil
}

func (d *Dependencies) handlers() rest.Handlers {
	return rest.Handlers{
		Auth:           auth.NewHandler(d.Auth),
		User:           user.NewHandler(d.Users),
		ExpenseSheet:   expensesheet.NewHandler(d.Sheets),
		Advance:        advance.NewHandler(d.Advances),
		Reconciliation: reconciliation.NewHandler(d.Reconciliation),
		Payment:        payment.NewHandler(d.Payments),
		Catalog:        catalog.NewHandler(),
		Health:         rest.NewHealthHandler(d.DB, d.Config.Export.Dir),
	}
}

// Close drains the event bus and the export pool before the database goes away.
func (d *Dependencies) Close(ctx context.Context) {
	if err := d.Bus.Wait(ctx); err != nil {
		d.Logger.Error("event bus did not drain", "error", err)
	}
	d.Reports.Shutdown()
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}
