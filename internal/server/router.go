// Package server assembles the HTTP surface: middleware, public auth routes,
// and the authenticated API groups.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/rahul-biziquick/BiziQuick/internal/audit"
	authhandler "github.com/rahul-biziquick/BiziQuick/internal/auth/handler"
	"github.com/rahul-biziquick/BiziQuick/internal/config"
	invoicehandler "github.com/rahul-biziquick/BiziQuick/internal/invoice/handler"
	leadhandler "github.com/rahul-biziquick/BiziQuick/internal/lead/handler"
	opphandler "github.com/rahul-biziquick/BiziQuick/internal/opportunity/handler"
	quotehandler "github.com/rahul-biziquick/BiziQuick/internal/quote/handler"
	"github.com/rahul-biziquick/BiziQuick/internal/security"
	"github.com/rahul-biziquick/BiziQuick/internal/server/middleware"
	tenanthandler "github.com/rahul-biziquick/BiziQuick/internal/tenant/handler"
)

const serviceName = "biziquick"

// Handlers groups the route handlers wired into the router.
type Handlers struct {
	Auth          *authhandler.AuthHandler
	Leads         *leadhandler.LeadHandler
	Opportunities *opphandler.OpportunityHandler
	Quotes        *quotehandler.QuoteHandler
	Invoices      *invoicehandler.InvoiceHandler
	Tenants       *tenanthandler.TenantHandler
}

// HealthChecker reports readiness of a dependency.
type HealthChecker func() error

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg *config.Config, tokens *security.TokenProvider, h Handlers, health HealthChecker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(clientIPMiddleware())
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Platform"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origins := cfg.AllowedOriginsList(); origins != nil {
		corsCfg.AllowOrigins = origins
	} else {
		// wildcard config; echo the caller's origin so credentials still work
		corsCfg.AllowOriginFunc = func(origin string) bool { return true }
	}
	r.Use(cors.New(corsCfg))
	r.Use(otelgin.Middleware(serviceName))

	r.GET("/health", func(c *gin.Context) {
		if health != nil {
			if err := health(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if h.Auth != nil {
		h.Auth.RegisterRoutes(r)
	}

	authed := r.Group("/", middleware.RequireAuth(tokens))
	if h.Leads != nil {
		h.Leads.RegisterRoutes(authed)
	}
	if h.Opportunities != nil {
		h.Opportunities.RegisterRoutes(authed)
	}
	if h.Quotes != nil {
		h.Quotes.RegisterRoutes(authed)
	}
	if h.Invoices != nil {
		h.Invoices.RegisterRoutes(authed)
	}
	if h.Tenants != nil {
		h.Tenants.RegisterRoutes(authed)
	}

	return r
}

// clientIPMiddleware stores the client IP on the request context so the
// audit logger can pick it up without a gin dependency.
func clientIPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := audit.ContextWithIP(c.Request.Context(), c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
