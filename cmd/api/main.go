package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httpadp "mutuelle-backend/internal/adapter/http"
	mw "mutuelle-backend/internal/adapter/middleware"
	"mutuelle-backend/internal/adapter/notifier"
	"mutuelle-backend/internal/adapter/repository/mysql"
	"mutuelle-backend/internal/config"
	"mutuelle-backend/internal/domain/notify"
	"mutuelle-backend/internal/domain/uow"
	"mutuelle-backend/internal/infrastructure/cache"
	"mutuelle-backend/internal/infrastructure/db"
	loanUC "mutuelle-backend/internal/usecase/loan"
	requestUC "mutuelle-backend/internal/usecase/loanrequest"
	repaymentUC "mutuelle-backend/internal/usecase/repayment"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis backs idempotency replay and pub/sub notifications. The engine
	// itself does not need it, so a missing Redis degrades rather than aborts.
	var n notify.Notifier = notifier.NewLogNotifier()
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Printf("redis unavailable, idempotency replay disabled: %v", err)
		rdb = nil
	} else {
		n = notifier.NewRedisNotifier(rdb)
	}

	requests := mysql.NewLoanRequestRepository(gdb)
	loans := mysql.NewLoanRepository(gdb)
	repayments := mysql.NewRepaymentRepository(gdb)
	members := mysql.NewMemberDirectory(gdb)
	tx := mysql.NewGormUoW(gdb)
	repos := uow.Repos{Requests: requests, Loans: loans, Repayments: repayments}

	requestSvc := requestUC.NewUsecase(requests, members, tx, loanUC.NewMaterializer(), n, cfg.DefaultInterestRate)
	loanSvc := loanUC.NewUsecase(loans)
	repaymentSvc := repaymentUC.NewUsecase(tx, repos, n)

	h := httpadp.NewHandler()
	rh := httpadp.NewLoanRequestHandler(requestSvc)
	lh := httpadp.NewLoanHandler(loanSvc)
	ph := httpadp.NewRepaymentHandler(repaymentSvc)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())
	if rdb != nil {
		e.Use(mw.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second))
	}

	e.GET("/health", h.Health)

	lr := e.Group("/loan-requests")
	lr.POST("", rh.Create)
	lr.GET("", rh.List)
	lr.GET("/pending/:role", rh.PendingForRole)
	lr.GET("/member/:member_id", rh.ListByMember)
	lr.GET("/:request_id", rh.Get)
	lr.PUT("/:request_id", rh.Update)
	lr.DELETE("/:request_id", rh.Delete)
	lr.GET("/:request_id/progress", rh.Progress)
	lr.POST("/:request_id/approve", rh.Approve)
	lr.POST("/:request_id/reject", rh.Reject)
	lr.POST("/:request_id/reset-approval", rh.ResetApproval)
	lr.POST("/:request_id/repayments", ph.GenerateForRequest)
	lr.GET("/:request_id/repayments", ph.ListByRequest)

	ln := e.Group("/loans")
	ln.GET("", lh.List)
	ln.GET("/member/:member_id", lh.ListByMember)
	ln.GET("/:loan_id", lh.Get)
	ln.POST("/:loan_id/repayments", ph.GenerateForLoan)
	ln.GET("/:loan_id/repayments", ph.ListByLoan)
	ln.GET("/:loan_id/repayments/totals", ph.TotalsForLoan)
	ln.GET("/:loan_id/repayments/next", ph.NextDueForLoan)
	ln.POST("/:loan_id/pay-in-full", ph.PayInFull)

	e.GET("/repayments", ph.ListByStatus)
	e.GET("/repayments/member/:member_id", ph.ListByMember)
	e.POST("/repayments/:repayment_id/pay", ph.RecordPayment)
	e.POST("/admin/repayments/sweep-overdue", ph.SweepOverdue)

	if cfg.SweepIntervalSecs > 0 {
		go runSweeper(repaymentSvc, time.Duration(cfg.SweepIntervalSecs)*time.Second)
	}

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// runSweeper marks past-due PENDING installments OVERDUE on a fixed interval.
// Each pass is idempotent, so overlapping deploys just do redundant no-op work.
func runSweeper(svc *repaymentUC.Usecase, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for range t.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := svc.SweepOverdue(ctx)
		cancel()
		if err != nil {
			log.Printf("overdue sweep: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("overdue sweep: marked %d installments", n)
		}
	}
}
