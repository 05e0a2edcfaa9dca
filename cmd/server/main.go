package main

import (
	"log"

	"github.com/example/paygate/internal/config"
	"github.com/example/paygate/internal/database"
	"github.com/example/paygate/internal/routes"
	"github.com/example/paygate/internal/store"
)

func main() {
	cfg := config.Load()

	sessions := store.NewSessionStore()

	var ledger store.ReceiptLedger = store.NewMemoryLedger()
	if cfg.DatabaseURL != "" {
		db := database.Connect(cfg.DatabaseURL)
		ledger = store.NewGormLedger(db)
	}

	app := routes.NewApp(cfg, sessions, ledger)
	app.Static("/", "./public")

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
