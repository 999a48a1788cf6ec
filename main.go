package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/odoo-mcp/odoo-mcp-server/access"
	"github.com/odoo-mcp/odoo-mcp-server/audit"
	"github.com/odoo-mcp/odoo-mcp-server/cache"
	"github.com/odoo-mcp/odoo-mcp-server/config"
	"github.com/odoo-mcp/odoo-mcp-server/db"
	logger "github.com/odoo-mcp/odoo-mcp-server/logging"
	"github.com/odoo-mcp/odoo-mcp-server/odoo"
	"github.com/odoo-mcp/odoo-mcp-server/router"
	"github.com/odoo-mcp/odoo-mcp-server/server"
	"github.com/odoo-mcp/odoo-mcp-server/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}
	cfg := config.GetConfig()

	// Initialize logger
	logger.InitLogger(cfg.LogFile)
	defer logger.Sync()

	// Initialize the permission cache backend
	var store cache.Store
	if cfg.Cache.Backend == "redis" {
		if err := db.InitRedis(cfg.Redis); err != nil {
			logger.Fatal("Failed to initialize Redis", zap.Error(err))
		}
		defer db.CloseRedis()
		store = cache.NewRedisStore(db.RedisClient, cfg.Cache.TTL)
	} else {
		store = cache.NewMemoryStore(cfg.Cache.TTL)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize EventBus and access-decision auditing
	var eventBus *util.EventBus
	if cfg.Audit.Enabled {
		eventBus = util.NewEventBus()
		eventBus.Start(ctx)

		auditRepository, err := audit.NewElasticsearchRepository(cfg.Audit.ElasticsearchURL)
		if err != nil {
			logger.Fatal("Failed to initialize Elasticsearch", zap.Error(err))
		}
		audit.NewService(auditRepository).Subscribe(eventBus)
	}

	// Connect and authenticate against Odoo
	conn, err := odoo.NewConnection(cfg.Odoo)
	if err != nil {
		logger.Fatal("Invalid Odoo configuration", zap.Error(err))
	}
	if err := conn.Connect(); err != nil {
		logger.Fatal("Failed to connect to Odoo", zap.Error(err))
	}
	defer conn.Disconnect()

	database, err := conn.AutoSelectDatabase()
	if err != nil {
		logger.Fatal("Failed to select database", zap.Error(err))
	}
	if err := conn.Authenticate(database); err != nil {
		logger.Fatal("Failed to authenticate", zap.Error(err))
	}
	logger.Info("Connected to Odoo",
		zap.String("database", database),
		zap.Int("uid", conn.UID()),
		zap.String("authMethod", conn.AuthMethod()))

	// Initialize the access controller and detect the capability tier
	controller := access.NewController(store, eventBus)
	if err := controller.SetConnection(ctx, conn); err != nil {
		logger.Fatal("Failed to initialize access controller", zap.Error(err))
	}
	logger.Info("Access controller ready", zap.String("tier", controller.Tier()))

	svc := server.NewService(conn, controller, cfg.Limits)

	switch cfg.Server.Transport {
	case "http":
		runHTTP(ctx, cfg, svc, conn, controller)
	default:
		runStdio(ctx, svc)
	}

	logger.Info("Server exiting")
}

// runStdio serves MCP over stdin/stdout until the client disconnects or
// a shutdown signal arrives.
func runStdio(ctx context.Context, svc *server.Service) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("Shutting down server...")
		cancel()
	}()

	if err := server.RunStdio(ctx, svc); err != nil && ctx.Err() == nil {
		logger.Fatal("MCP server failed", zap.Error(err))
	}
}

// runHTTP serves MCP on /mcp next to the admin endpoints and shuts
// down gracefully on SIGINT/SIGTERM.
func runHTTP(ctx context.Context, cfg *config.Configuration, svc *server.Service, conn *odoo.Connection, controller *access.Controller) {
	gin.SetMode(gin.ReleaseMode)
	engine := router.SetupRouter(conn, controller)

	mcpServer := server.NewServer(svc)
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return mcpServer },
		nil,
	)
	engine.Any("/mcp", gin.WrapH(handler))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
	}

	go func() {
		logger.Info("Starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
}
