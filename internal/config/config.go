package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// SourceConfig describes one corpus input.
type SourceConfig struct {
	Label  string `yaml:"label" toml:"label"`
	Path   string `yaml:"path" toml:"path"`
	Format string `yaml:"format,omitempty" toml:"format,omitempty"`
	Table  string `yaml:"table,omitempty" toml:"table,omitempty"`
}

// CorpusConfig lists the corpus sources loaded at startup.
type CorpusConfig struct {
	Sources   []SourceConfig `yaml:"sources" toml:"sources"`
	AWSRegion string         `yaml:"aws_region,omitempty" toml:"aws_region,omitempty"`
}

// OpenAIConfig holds configuration for OpenAI-compatible HTTP APIs.
type OpenAIConfig struct {
	BaseURL           string `yaml:"base_url" toml:"base_url"`
	APIKeyEnv         string `yaml:"api_key_env" toml:"api_key_env"`
	Model             string `yaml:"model" toml:"model"`
	TimeoutSecs       int    `yaml:"timeout_secs" toml:"timeout_secs"`
	MaxRetries        int    `yaml:"max_retries" toml:"max_retries"`
	RequestsPerMinute int    `yaml:"requests_per_minute,omitempty" toml:"requests_per_minute,omitempty"`
}

// GeminiConfig holds configuration for the Google Gemini API.
type GeminiConfig struct {
	APIKeyEnv string `yaml:"api_key_env" toml:"api_key_env"`
	Model     string `yaml:"model" toml:"model"`
}

// BedrockConfig holds configuration for Claude models on AWS Bedrock.
type BedrockConfig struct {
	Region    string `yaml:"region" toml:"region"`
	Model     string `yaml:"model" toml:"model"`
	MaxTokens int    `yaml:"max_tokens" toml:"max_tokens"`
}

// EmbedderConfig selects and configures the query embedder.
// It must match the model that produced the corpus vectors.
type EmbedderConfig struct {
	Type   string        `yaml:"type" toml:"type"`
	OpenAI *OpenAIConfig `yaml:"openai,omitempty" toml:"openai,omitempty"`
	Gemini *GeminiConfig `yaml:"gemini,omitempty" toml:"gemini,omitempty"`
}

// GeneratorConfig selects and configures the answer generator.
type GeneratorConfig struct {
	Type        string         `yaml:"type" toml:"type"`
	Temperature float64        `yaml:"temperature" toml:"temperature"`
	OpenAI      *OpenAIConfig  `yaml:"openai,omitempty" toml:"openai,omitempty"`
	Bedrock     *BedrockConfig `yaml:"bedrock,omitempty" toml:"bedrock,omitempty"`
	Gemini      *GeminiConfig  `yaml:"gemini,omitempty" toml:"gemini,omitempty"`
}

// ChunkerConfig configures how raw legal text is split when building a corpus.
type ChunkerConfig struct {
	SentencesPerChunk int `yaml:"sentences_per_chunk" toml:"sentences_per_chunk"`
	OverlapSentences  int `yaml:"overlap_sentences" toml:"overlap_sentences"`
}

// VectorStoreConfig selects where ranking happens: in memory or in Qdrant.
type VectorStoreConfig struct {
	Type   string        `yaml:"type" toml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty" toml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant gRPC endpoint.
type QdrantConfig struct {
	Addr       string `yaml:"addr" toml:"addr"`
	Collection string `yaml:"collection" toml:"collection"`
}

// RetrievalConfig controls how many chunks feed the prompt.
type RetrievalConfig struct {
	TopK int `yaml:"top_k" toml:"top_k"`
}

// LoggingConfig controls the zerolog output.
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file,omitempty" toml:"file,omitempty"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Theme       string `yaml:"theme" toml:"theme"`
	HistorySize int    `yaml:"history_size" toml:"history_size"`
	ExportPath  string `yaml:"export_path" toml:"export_path"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Corpus      CorpusConfig      `yaml:"corpus" toml:"corpus"`
	Embedder    EmbedderConfig    `yaml:"embedder" toml:"embedder"`
	Generator   GeneratorConfig   `yaml:"generator" toml:"generator"`
	Chunker     ChunkerConfig     `yaml:"chunker" toml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store" toml:"vector_store"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" toml:"retrieval"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
	UI          UIConfig          `yaml:"ui" toml:"ui"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Files ending in .toml are parsed as TOML, everything else as YAML.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, goerr.Wrap(err, "failed to read config", goerr.V("path", path))
	}
	var cfg AppConfig
	if isTOML(path) {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse config", goerr.V("path", path))
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/vatcompanion/config.yaml.
// If neither exists, it writes defaults to ~/.config/vatcompanion/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	for _, cwdPath := range []string{"config.yaml", "config.toml"} {
		if _, err := os.Stat(cwdPath); err == nil {
			cfg, err := Load(cwdPath)
			return cfg, cwdPath, err
		}
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return goerr.Wrap(err, "failed to create config directory")
	}
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return goerr.Wrap(err, "failed to encode config")
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects configurations the application cannot start with.
func (c *AppConfig) Validate() error {
	if len(c.Corpus.Sources) == 0 {
		return goerr.New("at least one corpus source is required")
	}
	for i, s := range c.Corpus.Sources {
		if strings.TrimSpace(s.Path) == "" {
			return goerr.New("corpus source has no path", goerr.V("index", i))
		}
	}
	switch c.Embedder.Type {
	case "openai", "gemini":
	default:
		return goerr.New("unknown embedder type", goerr.V("type", c.Embedder.Type))
	}
	switch c.Generator.Type {
	case "openai", "bedrock", "gemini":
	default:
		return goerr.New("unknown generator type", goerr.V("type", c.Generator.Type))
	}
	switch c.VectorStore.Type {
	case "memory":
	case "qdrant":
		if c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.Addr == "" {
			return goerr.New("qdrant vector store requires an address")
		}
	default:
		return goerr.New("unknown vector store type", goerr.V("type", c.VectorStore.Type))
	}
	switch c.UI.Theme {
	case "light", "dark":
	default:
		return goerr.New("unknown theme", goerr.V("theme", c.UI.Theme))
	}
	return nil
}

// APIKey reads a credential from the named environment variable.
func (c *AppConfig) APIKey(env string) string {
	return strings.TrimSpace(os.Getenv(env))
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, ".config", "vatcompanion", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Corpus: CorpusConfig{Sources: []SourceConfig{
			{Label: "VAT_Decree_Law_2017", Path: "data/vat_decree_law_2017.jsonl"},
			{Label: "Executive_Regulations_VAT", Path: "data/executive_regulations_vat.jsonl"},
		}},
		Embedder:    EmbedderConfig{Type: "openai"},
		Generator:   GeneratorConfig{Type: "openai"},
		VectorStore: VectorStoreConfig{Type: "memory"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 10
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = "light"
	}
	if cfg.UI.HistorySize <= 0 {
		cfg.UI.HistorySize = 5
	}
	if cfg.UI.ExportPath == "" {
		cfg.UI.ExportPath = "vat_response.txt"
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Type == "qdrant" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		if cfg.VectorStore.Qdrant.Addr == "" {
			cfg.VectorStore.Qdrant.Addr = "localhost:6334"
		}
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "vat_chunks"
		}
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	switch cfg.Embedder.Type {
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIConfig{}
		}
		applyOpenAIDefaults(cfg.Embedder.OpenAI, "text-embedding-3-small", 30)
	case "gemini":
		if cfg.Embedder.Gemini == nil {
			cfg.Embedder.Gemini = &GeminiConfig{}
		}
		applyGeminiDefaults(cfg.Embedder.Gemini, "text-embedding-004")
	}

	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "openai"
	}
	if cfg.Generator.Temperature == 0 {
		cfg.Generator.Temperature = 0.3
	}
	switch cfg.Generator.Type {
	case "openai":
		if cfg.Generator.OpenAI == nil {
			cfg.Generator.OpenAI = &OpenAIConfig{}
		}
		applyOpenAIDefaults(cfg.Generator.OpenAI, "gpt-4-turbo", 120)
	case "bedrock":
		if cfg.Generator.Bedrock == nil {
			cfg.Generator.Bedrock = &BedrockConfig{}
		}
		if cfg.Generator.Bedrock.Region == "" {
			cfg.Generator.Bedrock.Region = "us-east-1"
		}
		if cfg.Generator.Bedrock.Model == "" {
			cfg.Generator.Bedrock.Model = "anthropic.claude-3-5-sonnet-20240620-v1:0"
		}
		if cfg.Generator.Bedrock.MaxTokens == 0 {
			cfg.Generator.Bedrock.MaxTokens = 2048
		}
	case "gemini":
		if cfg.Generator.Gemini == nil {
			cfg.Generator.Gemini = &GeminiConfig{}
		}
		applyGeminiDefaults(cfg.Generator.Gemini, "gemini-1.5-pro")
	}
}

func applyOpenAIDefaults(c *OpenAIConfig, model string, timeoutSecs int) {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = timeoutSecs
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

func applyGeminiDefaults(c *GeminiConfig, model string) {
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "GEMINI_API_KEY"
	}
	if c.Model == "" {
		c.Model = model
	}
}
