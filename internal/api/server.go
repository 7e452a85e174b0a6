// Package api serves the feature engine over HTTP for the training pipeline
// and dashboards: compute features on demand, browse imported transactions
// and past feature runs.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/recurring-features/internal/api/dto"
	"github.com/eshaffer321/recurring-features/internal/domain/features"
	"github.com/eshaffer321/recurring-features/internal/domain/txn"
	"github.com/eshaffer321/recurring-features/internal/infrastructure/config"
	"github.com/eshaffer321/recurring-features/internal/infrastructure/storage"
)

// Server is the HTTP API server.
type Server struct {
	config config.ServerConfig
	engine *features.Engine
	repo   storage.Repository
	logger *slog.Logger
	router *gin.Engine
}

// NewServer creates the API server and registers routes.
func NewServer(cfg config.ServerConfig, engine *features.Engine, repo storage.Repository, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	}))

	s := &Server{
		config: cfg,
		engine: engine,
		repo:   repo,
		logger: logger,
		router: router,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	s.router.GET("/health", s.health)

	api := s.router.Group("/api")
	{
		api.POST("/features/compute", s.computeFeatures)
		api.GET("/transactions", s.listTransactions)
		api.GET("/runs", s.listRuns)
		api.GET("/runs/:id", s.getRun)
		api.GET("/runs/:id/features/:txn_id", s.getFeatures)
		api.GET("/stats", s.stats)
	}
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run starts the HTTP server on the configured port.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.logger.Info("API server listening", "addr", addr)
	return s.router.Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// computeFeatures handles POST /api/features/compute: builds a grouping index
// from the submitted history and returns feature maps for the requested
// transactions (or all of the history when none are named).
func (s *Server) computeFeatures(c *gin.Context) {
	var req dto.ComputeFeaturesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	history, err := payloadToTxns(req.History)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}
	targets := history
	if len(req.Transactions) > 0 {
		targets, err = payloadToTxns(req.Transactions)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
			return
		}
	}

	idx := s.engine.BuildIndex(history)
	rows := s.engine.ComputeBatch(c.Request.Context(), targets, idx, 0)

	resp := dto.ComputeFeaturesResponse{Rows: make([]dto.FeatureRow, len(rows))}
	for i, row := range rows {
		out := dto.FeatureRow{TxnID: row.TxnID, Features: row.Features}
		if row.Err != nil {
			out.Error = row.Err.Error()
		}
		resp.Rows[i] = out
	}

	s.logger.Debug("computed features", "targets", len(targets), "history", len(history))
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listTransactions(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	records, err := s.repo.ListTransactions(storage.TransactionFilters{
		UserID: c.Query("user_id"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list transactions", "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	resp := dto.TransactionListResponse{
		Transactions: make([]dto.TransactionPayload, 0, len(records)),
		Limit:        limit,
		Offset:       offset,
	}
	for _, r := range records {
		resp.Transactions = append(resp.Transactions, dto.TransactionPayload{
			ID:         r.ID,
			UserID:     r.UserID,
			VendorName: r.VendorName,
			Amount:     r.Amount,
			Date:       r.Date,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listRuns(c *gin.Context) {
	runs, err := s.repo.ListRuns(queryInt(c, "limit", 20))
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) getRun(c *gin.Context) {
	runID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid run id"))
		return
	}

	run, err := s.repo.GetRun(runID)
	if err != nil {
		s.logger.Error("failed to get run", "run_id", runID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, dto.NotFoundError("run"))
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) getFeatures(c *gin.Context) {
	runID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid run id"))
		return
	}

	record, err := s.repo.GetFeatures(runID, c.Param("txn_id"))
	if err != nil {
		s.logger.Error("failed to get features", "run_id", runID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, dto.NotFoundError("feature record"))
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) stats(c *gin.Context) {
	stats, err := s.repo.GetStats()
	if err != nil {
		s.logger.Error("failed to get stats", "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	c.JSON(http.StatusOK, stats)
}

func queryInt(c *gin.Context, name string, defaultVal int) int {
	val := c.Query(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func payloadToTxns(payloads []dto.TransactionPayload) ([]txn.Transaction, error) {
	out := make([]txn.Transaction, len(payloads))
	for i, p := range payloads {
		amt, err := decimal.NewFromString(p.Amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: invalid amount %q", p.ID, p.Amount)
		}
		out[i] = txn.Transaction{
			ID:         p.ID,
			UserID:     p.UserID,
			VendorName: p.VendorName,
			Amount:     amt,
			Date:       p.Date,
		}
	}
	return out, nil
}
