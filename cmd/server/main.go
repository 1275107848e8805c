package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kairostudio/backoffice/internal/config"
	"github.com/kairostudio/backoffice/internal/db"
	"github.com/kairostudio/backoffice/internal/server"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run migrations then exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}
	cfg := config.Load()

	conn, err := db.ConnectAndMigrate()
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if *migrateOnly {
		log.Println("migrations applied, exiting")
		return
	}

	app, err := server.New(conn, cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	sweepCtx, stopSweeps := context.WithCancel(context.Background())
	defer stopSweeps()
	go app.RunSweeps(sweepCtx, time.Hour)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           withLogging(app.Router()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s (%s)", cfg.Port, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
