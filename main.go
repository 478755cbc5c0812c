package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/shopmind-poc/server/internal/agent/catalog"
	"github.com/shopmind-poc/server/internal/agent/graph"
	"github.com/shopmind-poc/server/internal/agent/model"
	"github.com/shopmind-poc/server/internal/agent/providers"
	"github.com/shopmind-poc/server/internal/agent/repo"
	"github.com/shopmind-poc/server/internal/core"
	logx "github.com/shopmind-poc/server/pkg/logger"
	pkgredis "github.com/shopmind-poc/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the assistant example,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Experiment topology; empty means the built-in default graph.
	ExperimentConfig string `envconfig:"EXPERIMENT_CONFIG"`

	// Agent configs
	Writer       model.WriterModelConfig
	Utility      model.UtilityModelConfig
	Embedding    model.EmbeddingConfig
	Prompt       model.WriterPromptConfig
	Conversation model.ConversationConfig
	Memory       model.MemoryConfig
	Shopping     model.ShoppingConfig
	Intent       model.IntentConfig
}

func main() {
	ctx := context.Background()
	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.EnvironmentFromOS()})

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	fmt.Println("Connected to Redis successfully")

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", envCfg.Conversation.TTL, err)
	}

	// ====================================================
	// Build graph config entirely from env
	client, err := providers.NewGenaiClient(ctx, envCfg.APIKey, envCfg.BaseURL)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}

	chatModels, err := providers.NewChatModels(ctx, client, providers.ChatModelConfig{
		APIKey:  envCfg.APIKey,
		BaseURL: envCfg.BaseURL,
		Writer:  envCfg.Writer,
		Utility: envCfg.Utility,
	})
	if err != nil {
		log.Fatalf("Failed to create chat models: %v", err)
	}

	embedder, err := providers.NewGenaiEmbedder(client, envCfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	cfg := graph.Config{
		Writer:   chatModels.Writer,
		Utility:  chatModels.Utility,
		Embedder: embedder,
		Store:    repo.NewRedisMemoryStore(rdb, ttl),
		Products: catalog.NewInMemoryCatalog(nil),

		Prompt:       envCfg.Prompt,
		Memory:       envCfg.Memory,
		Shopping:     envCfg.Shopping,
		Intent:       envCfg.Intent,
		Conversation: envCfg.Conversation,
	}

	var runner graph.Runner
	if envCfg.ExperimentConfig != "" {
		runner, err = graph.LoadExperiment(envCfg.ExperimentConfig, graph.DefaultRegistry(), cfg)
	} else {
		runner, err = graph.BuildDefaultGraph(ctx, cfg)
	}
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}

	testQueries := []struct {
		description string
		query       string
		mode        model.Mode
	}{
		{
			description: "Initial greeting and product inquiry",
			query:       "Hi! I'm thinking about getting a new laptop",
			mode:        model.ModeChat,
		},
		{
			description: "Shopping interview, first round",
			query:       "help me pick a laptop",
			mode:        model.ModeShopping,
		},
		{
			description: "Shopping interview, user answers",
			query:       "mostly video editing, budget around $2000",
			mode:        model.ModeShopping,
		},
		{
			description: "Shopping interview, user is done answering",
			query:       "that's all, just show me what you have",
			mode:        model.ModeShopping,
		},
		{
			description: "Follow-up with thanks",
			query:       "thanks, that was helpful!",
			mode:        model.ModeChat,
		},
	}

	userID := "demo-user-1"
	sessionID := "demo-session-123451"

	for i, test := range testQueries {
		fmt.Printf("\nTest %d: %s\n", i+1, test.description)
		fmt.Printf("Query: %q\n", test.query)
		fmt.Println("Processing...")

		state, err := runner.Invoke(ctx, model.QueryInput{
			UserID:    userID,
			SessionID: sessionID,
			Query:     test.query,
			Mode:      test.mode,
		})
		if err != nil {
			log.Fatalf("Failed to invoke graph for test %d: %v", i+1, err)
		}

		fmt.Printf("Response %d: %s\n", i+1, state.Response)
		if state.ShoppingStatus == model.ShoppingQuestion && state.ShoppingResult != nil {
			fmt.Printf("Options: %v\n", state.ShoppingResult.Options)
		}
		for _, card := range state.ProductCards {
			fmt.Printf("  [%s] %s $%.2f (in stock: %v)\n", card.ID, card.Name, card.Price, card.InStock)
		}
		fmt.Printf("Agents: %v | cost: $%.6f\n", state.AgentsUsed, state.TotalCostUSD)
		fmt.Println("────────────────────────────────────────────────")

		// slight delay between tests for readability
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("All graph runs completed successfully!")
}
