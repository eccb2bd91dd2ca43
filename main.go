package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/iblflow/orchestrator/api"
	"github.com/iblflow/orchestrator/config"
	"github.com/iblflow/orchestrator/domain"
	"github.com/iblflow/orchestrator/gateway"
	"github.com/iblflow/orchestrator/oracle"
	"github.com/iblflow/orchestrator/policy"
	"github.com/iblflow/orchestrator/schema"
	"github.com/iblflow/orchestrator/service"
	"github.com/iblflow/orchestrator/store"
	"github.com/iblflow/orchestrator/subagent"
	"github.com/iblflow/orchestrator/supervisor"
	"github.com/iblflow/orchestrator/tools"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting orchestrator...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("LLM URL: %s", cfg.LLMBaseURL)
	log.Printf("Gateway URL: %s", cfg.GatewayURL)

	// Load startup artifacts. Their absence is fatal; the system cannot run
	// without a field schema or tool declarations.
	registry, err := schema.Load(cfg.SchemaPath)
	if err != nil {
		log.Fatalf("Failed to load field schema: %v", err)
	}
	decls, err := tools.LoadDeclarations(cfg.ToolServersPath)
	if err != nil {
		log.Fatalf("Failed to load tool declarations: %v", err)
	}

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize decision oracle client
	oracleClient := oracle.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)

	// Initialize commit gateway
	gw := gateway.NewHTTPGateway(cfg.GatewayURL, cfg.GatewayTimeout)

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Tool registry: every declared tool gets an executor. The commit tool
	// routes to the gateway; anything else declared but unimplemented fails
	// loudly at startup.
	toolRegistry := tools.NewRegistry()
	for _, decl := range decls.AllTools() {
		if decl.Name == tools.CommitToolName {
			toolRegistry.MustRegister(decl.Name, tools.NewCommitExecutor(gw))
			continue
		}
		log.Fatalf("Declared tool %q has no executor", decl.Name)
	}

	bridge := tools.NewBridge(toolRegistry)
	bridge.SetGuard(func(ctx context.Context, call domain.ToolRequest) (bool, string) {
		var args map[string]interface{}
		if len(call.Args) > 0 {
			if err := json.Unmarshal(call.Args, &args); err != nil {
				return false, "malformed arguments"
			}
		}
		decision, reason, err := policyEngine.Evaluate(ctx, map[string]interface{}{
			"action":    "tool",
			"tool_name": call.Name,
			"args":      args,
		})
		if err != nil {
			log.Printf("ERROR: policy evaluation for tool %s: %v", call.Name, err)
			return false, "policy evaluation failed"
		}
		return decision == "allow", reason
	})

	// Supervisor and sub-agents
	var toolDefs []oracle.ToolDefinition
	for _, decl := range decls.AllTools() {
		toolDefs = append(toolDefs, oracle.ToolDefinition{
			Name:        decl.Name,
			Description: decl.Description,
			Parameters:  decl.Parameters,
		})
	}
	router := supervisor.NewRouter(oracleClient, registry, toolDefs)
	agents := []*subagent.Workflow{
		subagent.New(domain.DomainLogistics, registry, oracleClient, gw, policyEngine, bridge, cfg.MaxToolRounds),
		subagent.New(domain.DomainForwarder, registry, oracleClient, gw, policyEngine, bridge, cfg.MaxToolRounds),
	}

	// Initialize service
	svc := service.New(db, router, agents, bridge, cfg.MaxToolRounds)

	// Initialize handler
	h := api.NewHandler(svc, db)

	// Create Echo server
	server := echo.New()
	server.HideBanner = true

	// Middleware
	server.Use(middleware.Logger())
	server.Use(middleware.Recover())
	server.Use(middleware.CORS())

	// Register routes
	h.RegisterRoutes(server)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down orchestrator...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Orchestrator stopped")
}
