package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/teacher-portal/internal/auth"
	"github.com/iliyamo/teacher-portal/internal/config"
	"github.com/iliyamo/teacher-portal/internal/database"
	"github.com/iliyamo/teacher-portal/internal/handler"
	"github.com/iliyamo/teacher-portal/internal/repository"
	"github.com/iliyamo/teacher-portal/internal/router"
	"github.com/iliyamo/teacher-portal/internal/service"
	"github.com/iliyamo/teacher-portal/internal/session"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil disables the login throttle
	if rdb == nil {
		log.Printf("redis unavailable, login throttle disabled")
	}

	teachers := repository.NewTeacherRepo(db)
	sessionRows := repository.NewSessionRepo(db)
	students := repository.NewStudentRepo(db)
	audits := repository.NewAuditRepo(db)

	creds := auth.NewCredentials(teachers)
	sessions := auth.NewSessionManager(sessionRows, teachers)
	store := session.NewStore(cfg.SessionSecret)
	ledger := service.NewGradeLedger(db, students, audits, service.PublishAuditRecorded)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterPortal(e,
		handler.NewAuthHandler(cfg, store, sessions, creds),
		handler.NewStudentHandler(ledger),
		store, sessions, cfg.CSRFSecret, config.LoadThrottleConfig(), rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
