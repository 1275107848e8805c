// Package server wires storage, services and handlers into one HTTP
// application.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/ai"
	"github.com/kairostudio/backoffice/internal/auth"
	"github.com/kairostudio/backoffice/internal/config"
	"github.com/kairostudio/backoffice/internal/handlers"
	"github.com/kairostudio/backoffice/internal/policy"
	"github.com/kairostudio/backoffice/internal/realtime"
	"github.com/kairostudio/backoffice/internal/services"
	"github.com/kairostudio/backoffice/internal/storage"
)

type App struct {
	DB       *gorm.DB
	Config   config.Config
	Gate     *policy.Gate
	Store    *storage.Store
	Notifier *realtime.Notifier
}

// New builds the application graph. Redis and OpenAI are optional
// collaborators: absent configuration disables them without failing boot.
func New(db *gorm.DB, cfg config.Config) (*App, error) {
	store, err := storage.New(cfg.StorageDir)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	} else {
		log.Println("realtime: no REDIS_ADDR, notifications stay database-only")
	}

	gate := policy.NewGate()
	company := policy.NewCompanyPolicy()
	adminDelete := policy.NewAdminOnlyPolicy(company, policy.ActionDelete)
	for _, resource := range []string{"client", "project", "supplier", "material", "quote", "invoice", "document", "moodboard", "template"} {
		gate.Register(resource, adminDelete)
	}

	return &App{
		DB:       db,
		Config:   cfg,
		Gate:     gate,
		Store:    store,
		Notifier: realtime.NewNotifier(db, rdb),
	}, nil
}

// RunSweeps periodically expires stale quotes and flags overdue invoices
// until the context is cancelled.
func (a *App) RunSweeps(ctx context.Context, every time.Duration) {
	quotes := services.NewQuoteService(a.DB)
	invoices := services.NewInvoiceService(a.DB)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := quotes.ExpireSweep(now); err != nil {
				log.Printf("sweep quotes: %v", err)
			}
			if err := invoices.OverdueSweep(now); err != nil {
				log.Printf("sweep invoices: %v", err)
			}
		}
	}
}

// Router registers every handler on a fresh mux. Auth-protected routes sit
// behind RequireAuth; /setup, /login and /portal stay open.
func (a *App) Router() http.Handler {
	quotes := services.NewQuoteService(a.DB)
	invoices := services.NewInvoiceService(a.DB)
	payments := services.NewPaymentService(a.DB, a.Notifier)
	assistant := ai.NewMoodboardAssistant(a.Config.OpenAIKey)

	open := http.NewServeMux()
	handlers.NewAuthHandler(a.DB).Register(open)
	handlers.NewPortalHandler(a.DB).Register(open)
	handlers.NewMetaHandler().Register(open)

	protected := http.NewServeMux()
	handlers.NewCompanyHandler(a.DB, a.Store).Register(protected)
	handlers.NewClientHandler(a.DB, a.Gate).Register(protected)
	handlers.NewProjectHandler(a.DB, a.Gate).Register(protected)
	handlers.NewSupplierHandler(a.DB, a.Gate).Register(protected)
	handlers.NewMaterialHandler(a.DB, a.Gate).Register(protected)
	handlers.NewQuoteHandler(a.DB, a.Gate, quotes, invoices, a.Notifier).Register(protected)
	handlers.NewInvoiceHandler(a.DB, a.Gate, invoices, payments).Register(protected)
	handlers.NewDocumentHandler(a.DB, a.Gate, a.Store).Register(protected)
	handlers.NewTemplateHandler(a.DB, a.Gate).Register(protected)
	handlers.NewMoodboardHandler(a.DB, a.Gate, assistant).Register(protected)
	handlers.NewNotificationHandler(a.DB).Register(protected)

	root := http.NewServeMux()
	root.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	root.Handle("/setup", open)
	root.Handle("/signup", open)
	root.Handle("/login", open)
	root.Handle("/logout", open)
	root.Handle("/portal/", open)
	root.Handle("/labels", open)
	// /members and /me resolve the session themselves
	root.Handle("/members", open)
	root.Handle("/me", open)
	root.Handle("/", auth.RequireAuth(protected))

	return auth.Middleware(root)
}
