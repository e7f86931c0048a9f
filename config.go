package orderagent

type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID,default=gpt-4o"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=1024"`
	Temperature float32 `env:"TEMPERATURE,default=0.2"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type AgentConfig struct {
	MenuDir             string `env:"MENU_DIR,default=menus"`
	BaseOpenAIEndpoint  string `env:"BASE_OPENAI_ENDPOINT,default=https://api.openai.com"`
	OpenAIAPIKey        string `env:"OPENAI_API_KEY,default="`
	MaxExtractionErrors int    `env:"MAX_EXTRACTION_ERRORS,default=5"`
	MaxNoInputRetries   int    `env:"MAX_NO_INPUT_RETRIES,default=5"`
}
