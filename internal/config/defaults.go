package config

const (
	defaultProjectDir       = "./data"
	defaultLanguage         = "de"
	defaultVisionBaseURL    = "https://api.openai.com/v1/chat/completions"
	defaultVisionModel      = "gpt-4o"
	defaultVisionDetail     = "high"
	defaultVisionTimeout    = 60
	defaultEmbeddingBaseURL = "https://api.openai.com/v1/embeddings"
	defaultEmbeddingModel   = "text-embedding-3-small"
	defaultEmbeddingTimeout = 30
	defaultEmbeddingBatch   = 64
	defaultThreshold        = 0.65
	defaultTemporalWeight   = 0.6
	defaultSemanticWeight   = 0.4
	defaultMaxDecayMinutes  = 30
	defaultMinNoteConf      = 0.4
	defaultPhotosPerPage    = 2
	defaultWorkers          = 4
	defaultRetryAttempts    = 6
	defaultRetryBaseDelayMS = 1000
	defaultRetryMaxDelayMS  = 30000
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Project: Project{
			Dir:      defaultProjectDir,
			Language: defaultLanguage,
		},
		Vision: Vision{
			BaseURL:        defaultVisionBaseURL,
			Model:          defaultVisionModel,
			Detail:         defaultVisionDetail,
			TimeoutSeconds: defaultVisionTimeout,
		},
		Embedding: Embedding{
			BaseURL:        defaultEmbeddingBaseURL,
			Model:          defaultEmbeddingModel,
			TimeoutSeconds: defaultEmbeddingTimeout,
			BatchSize:      defaultEmbeddingBatch,
		},
		Match: Match{
			ConfidenceThreshold: defaultThreshold,
			TemporalWeight:      defaultTemporalWeight,
			SemanticWeight:      defaultSemanticWeight,
			MaxDecayMinutes:     defaultMaxDecayMinutes,
			MinNoteConfidence:   defaultMinNoteConf,
		},
		Layout: Layout{
			MaxPhotosPerPage: defaultPhotosPerPage,
		},
		Pipeline: Pipeline{
			Workers:          defaultWorkers,
			RetryAttempts:    defaultRetryAttempts,
			RetryBaseDelayMS: defaultRetryBaseDelayMS,
			RetryMaxDelayMS:  defaultRetryMaxDelayMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
