package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rahul-biziquick/BiziQuick/internal/audit"
	auditrepo "github.com/rahul-biziquick/BiziQuick/internal/audit/repository"
	authhandler "github.com/rahul-biziquick/BiziQuick/internal/auth/handler"
	authservice "github.com/rahul-biziquick/BiziQuick/internal/auth/service"
	intentrepo "github.com/rahul-biziquick/BiziQuick/internal/authintent/repository"
	"github.com/rahul-biziquick/BiziQuick/internal/config"
	"github.com/rahul-biziquick/BiziQuick/internal/db"
	"github.com/rahul-biziquick/BiziQuick/internal/devotp"
	invoicehandler "github.com/rahul-biziquick/BiziQuick/internal/invoice/handler"
	invoicerepo "github.com/rahul-biziquick/BiziQuick/internal/invoice/repository"
	leadhandler "github.com/rahul-biziquick/BiziQuick/internal/lead/handler"
	leadrepo "github.com/rahul-biziquick/BiziQuick/internal/lead/repository"
	leadservice "github.com/rahul-biziquick/BiziQuick/internal/lead/service"
	scorerepo "github.com/rahul-biziquick/BiziQuick/internal/leadscore/repository"
	"github.com/rahul-biziquick/BiziQuick/internal/mailer"
	opphandler "github.com/rahul-biziquick/BiziQuick/internal/opportunity/handler"
	opprepo "github.com/rahul-biziquick/BiziQuick/internal/opportunity/repository"
	"github.com/rahul-biziquick/BiziQuick/internal/otp/repository"
	"github.com/rahul-biziquick/BiziQuick/internal/policy/engine"
	quotehandler "github.com/rahul-biziquick/BiziQuick/internal/quote/handler"
	quoterepo "github.com/rahul-biziquick/BiziQuick/internal/quote/repository"
	"github.com/rahul-biziquick/BiziQuick/internal/security"
	"github.com/rahul-biziquick/BiziQuick/internal/server"
	sessionrepo "github.com/rahul-biziquick/BiziQuick/internal/session/repository"
	"github.com/rahul-biziquick/BiziQuick/internal/telemetry/otel"
	tenanthandler "github.com/rahul-biziquick/BiziQuick/internal/tenant/handler"
	tenantrepo "github.com/rahul-biziquick/BiziQuick/internal/tenant/repository"
	userrepo "github.com/rahul-biziquick/BiziQuick/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "biziquick", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	privKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	pubKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	tokens := security.NewTokenProvider(privKey, pubKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	users := userrepo.NewPostgresRepository(conn)
	tenants := tenantrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)
	intents := intentrepo.NewPostgresRepository(conn)
	otps := repository.NewPostgresRepository(conn)
	leads := leadrepo.NewPostgresRepository(conn)
	scores := scorerepo.NewPostgresRepository(conn)
	opportunities := opprepo.NewPostgresRepository(conn)
	quotes := quoterepo.NewPostgresRepository(conn)
	invoices := invoicerepo.NewPostgresRepository(conn)
	audits := auditrepo.NewPostgresRepository(conn)

	auditLogger := audit.NewLogger(audits, nil)
	policy := engine.NewOPAEvaluator()
	if err := policy.HealthCheck(ctx); err != nil {
		log.Fatalf("policy: %v", err)
	}

	var sender mailer.Sender = mailer.NewClient(cfg.MailAPIKey, cfg.MailAPIBaseURL, cfg.MailSender)
	var devStore devotp.Store
	if cfg.OTPReturnToClient {
		if cfg.Env == "production" {
			log.Fatal("OTP_RETURN_TO_CLIENT must not be enabled in production")
		}
		devStore = devotp.NewMemoryStore()
	}

	authSvc := authservice.NewAuthService(
		users, tenants, sessions, intents, otps,
		hasher, tokens, sender, devStore, auditLogger,
		cfg.OTPExpiry(), cfg.RefreshTTL(),
	)
	leadSvc := leadservice.NewLeadService(leads, scores, tenants, users, policy, auditLogger)

	router := server.NewRouter(cfg, tokens, server.Handlers{
		Auth:          authhandler.NewAuthHandler(authSvc, devStore),
		Leads:         leadhandler.NewLeadHandler(leadSvc),
		Opportunities: opphandler.NewOpportunityHandler(opportunities, leads, policy),
		Quotes:        quotehandler.NewQuoteHandler(quotes, opportunities, policy),
		Invoices:      invoicehandler.NewInvoiceHandler(invoices, quotes, policy),
		Tenants:       tenanthandler.NewTenantHandler(tenants),
	}, conn.Ping)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
