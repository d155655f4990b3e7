package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/qrpass/checkin-service/internal/config"
	"github.com/qrpass/checkin-service/internal/httpserver"
	"github.com/qrpass/checkin-service/internal/store"
)

// main boots the service: config → DB → schema → HTTP server.
func main() {
	// Local development keeps secrets in a .env file; production sets
	// real environment variables, so a missing file is fine.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading environment directly")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Connect to durable storage (Postgres) using a connection pool.
	db, err := store.NewPostgresStore(cfg.DBURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Ensure required tables/indexes exist so `docker compose up --build` is enough.
	if err := db.EnsureSchema(); err != nil {
		log.Fatal(err)
	}

	router := httpserver.NewRouter(cfg, db)

	log.Println("server started on :" + cfg.Port)
	log.Fatal(router.Run(":" + cfg.Port))
}
