package router

import (
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	applogger "github.com/erp/ledger/internal/infrastructure/logger"
)

// Router wires handlers into a gin engine
type Router struct {
	engine *gin.Engine
	ledger *handler.LedgerHandler
	system *handler.SystemHandler
}

// New creates a router with the standard middleware chain
func New(log *zap.Logger, ledger *handler.LedgerHandler, system *handler.SystemHandler) *Router {
	engine := gin.New()
	engine.Use(
		applogger.Recovery(log),
		applogger.GinMiddleware(log),
	)

	return &Router{
		engine: engine,
		ledger: ledger,
		system: system,
	}
}

// Setup registers all routes and returns the engine
func (r *Router) Setup() *gin.Engine {
	r.engine.GET("/health", r.system.Health)
	r.engine.GET("/ready", r.system.Ready)

	api := r.engine.Group("/api/v1")
	{
		api.POST("/inventory-transactions", r.ledger.RecordTransaction)
		api.GET("/accounts/:code/balance", r.ledger.GetAccountBalance)
		api.GET("/journal-entries", r.ledger.ListJournalEntries)
		api.GET("/journal-entries/:id", r.ledger.GetJournalEntry)
		api.POST("/journal-entries/:id/reverse", r.ledger.ReverseJournalEntry)
		api.GET("/ledger/integrity", r.ledger.CheckIntegrity)
	}

	return r.engine
}
