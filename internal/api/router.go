package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/keimalab/keima-server/internal/api/handler"
	"github.com/keimalab/keima-server/internal/api/middleware"
	"github.com/keimalab/keima-server/internal/config"
	"github.com/keimalab/keima-server/internal/repository"
	"github.com/keimalab/keima-server/internal/service"
	"github.com/keimalab/keima-server/internal/ws"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	RaceSvc    *service.RaceService
	TicketSvc  *service.TicketService
	SettleSvc  *service.SettlementService
	LedgerRepo *repository.LedgerRepository
	ResultRepo *repository.ResultRepository
	Hub        *ws.Hub
	Cfg        *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if deps.Hub != nil {
			body["ws_clients"] = deps.Hub.ConnectedCount()
		}
		c.JSON(http.StatusOK, body)
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	ticketH := handler.NewTicketHandler(deps.TicketSvc, deps.RaceSvc)
	coinsH := handler.NewCoinsHandler(deps.LedgerRepo)
	raceH := handler.NewRaceHandler(deps.RaceSvc, deps.SettleSvc, deps.ResultRepo, deps.Cfg, deps.Hub)

	// ── Rate limiters ─────────────────────────────────────────────────────────
	purchaseRL := middleware.RateLimitMiddleware(30) // 30 req/s per IP for purchases
	adminRL := middleware.RateLimitMiddleware(10)    // 10 req/s per IP for admin ops

	api := r.Group("/api")
	{
		// ── Public reads ─────────────────────────────────────────────────────
		api.GET("/race", raceH.GetRace)
		api.GET("/coins", coinsH.GetCoins)
		api.GET("/coins/history", coinsH.History)
		api.GET("/tickets", ticketH.List)

		// ── Purchases (rate limited) ─────────────────────────────────────────
		api.POST("/tickets", purchaseRL, ticketH.Buy)

		// ── Admin (rate limited) ─────────────────────────────────────────────
		admin := api.Group("/admin")
		admin.Use(adminRL)
		{
			admin.POST("/coins", coinsH.SetCoins)
			admin.POST("/race/open", raceH.Open)
			admin.POST("/race/close", raceH.Close)
			admin.POST("/race/advance", raceH.Advance)
			admin.POST("/result", raceH.PostResult)
			admin.POST("/settle", raceH.Settle)
		}
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// In development all origins are allowed; in production only configured ones.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, o := range strings.Split(cfg.WS.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if !cfg.IsProd() {
			// Development: allow any origin
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" && allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
