package model

// ================ Config ================

type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"15m"`
	Recent struct {
		MaxTurns int `envconfig:"CONVERSATION_RECENT_MAX_TURNS" default:"6"`
	}
}

type WriterModelConfig struct {
	Model       string  `envconfig:"WRITER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"WRITER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"WRITER_TEMPERATURE" default:"0.4"`
}

// UtilityModelConfig covers the cheaper model used for vision captioning,
// interview turns and summaries.
type UtilityModelConfig struct {
	Model       string  `envconfig:"UTILITY_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"UTILITY_MAX_TOKENS" default:"1000"`
	Temperature float32 `envconfig:"UTILITY_TEMPERATURE" default:"0.2"`
}

type WriterPromptConfig struct {
	BusinessType string `envconfig:"PROMPT_BUSINESS_TYPE" default:"electronics store"`
	BusinessName string `envconfig:"PROMPT_BUSINESS_NAME" default:"TechHub"`
}

type EmbeddingConfig struct {
	Model     string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	Dimension int    `envconfig:"EMBEDDING_DIMENSION" default:"1536"`
}

type MemoryConfig struct {
	TopK            int     `envconfig:"MEMORY_TOP_K" default:"5"`
	SimilarityFloor float64 `envconfig:"MEMORY_SIMILARITY_FLOOR" default:"0.45"`
	CandidatePool   int     `envconfig:"MEMORY_CANDIDATE_POOL" default:"50"`
	RecentLimit     int     `envconfig:"MEMORY_RECENT_LIMIT" default:"6"`
	SummaryLimit    int     `envconfig:"MEMORY_SUMMARY_LIMIT" default:"3"`
	FactLimit       int     `envconfig:"MEMORY_FACT_LIMIT" default:"8"`
	// SummaryInterval is the number of logged messages between summary
	// generations (a message pair counts as two).
	SummaryInterval int `envconfig:"MEMORY_SUMMARY_INTERVAL" default:"8"`
}

type ShoppingConfig struct {
	MaxRounds  int `envconfig:"SHOPPING_MAX_ROUNDS" default:"3"`
	MaxOptions int `envconfig:"SHOPPING_MAX_OPTIONS" default:"5"`
}

type IntentConfig struct {
	// Mode is "pattern" or "embedding"; embedding mode falls back to
	// pattern matching when no embedding provider is configured.
	Mode string `envconfig:"INTENT_MODE" default:"pattern"`
}
