package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Specification struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"providerApiKey" envconfig:"PROVIDER_API_KEY"`
	EmbedModel string `yaml:"providerEmbedModel" envconfig:"PROVIDER_EMBEDDING_MODEL"`
	QuizModel  string `yaml:"providerQuizModel" envconfig:"PROVIDER_QUIZ_MODEL"`
	ProjectID  string `yaml:"providerProjectID" envconfig:"PROVIDER_PROJECT_ID"`
	Location   string `yaml:"providerLocation" envconfig:"PROVIDER_LOCATION"`
	Dim        int    `yaml:"providerDim" envconfig:"EMBED_DIM"`

	ChunkSize    int           `yaml:"chunkSize" split_words:"true"`
	Overlap      int           `yaml:"overlap"`
	Threshold    float64       `yaml:"similarityThreshold" envconfig:"SIMILARITY_THRESHOLD"`
	Workers      int           `yaml:"workers"`
	EmbedTimeout time.Duration `yaml:"embedTimeout" split_words:"true"`

	Database string `yaml:"database" envconfig:"DB_URL"`
	Profiles string `yaml:"profiles"`
	Output   string `yaml:"output"`
	LogLevel string `yaml:"logLevel" split_words:"true"`
	Port     int    `yaml:"port"`

	flags *pflag.FlagSet `ignored:"true"`
}

const envPrefix = "TALENTMATCH"

func (s *Specification) Usage() {
	fmt.Fprint(os.Stderr, s.flags.FlagUsages())
}

// Load => defaults < YAML < env < flags.
// configPath may be ""; if so we auto-discover.
func Load(configPath string, fs *pflag.FlagSet) (Specification, error) {
	var cfg Specification

	// set defaults (lowest precedence)
	setDefaults(&cfg)
	bindFlags(fs, &cfg)

	// config file
	path := configPath
	if path == "" {
		if v := os.Getenv(envPrefix + "_CONFIG"); v != "" {
			path = v
		} else {
			for _, cand := range []string{
				"config/talentmatch.yaml",
				"config/config.yaml",
				"./talentmatch.yaml",
				"./config.yaml",
			} {
				if fileExists(cand) {
					path = cand
					break
				}
			}
		}
	}

	if path != "" {
		if !fileExists(path) {
			return Specification{}, fmt.Errorf("config file not found: %s", path)
		}
		if err := loadYAML(path, &cfg); err != nil {
			return Specification{}, fmt.Errorf("load yaml %s: %w", path, err)
		}
	}

	// env overrides config file
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Specification{}, fmt.Errorf("env override: %w", err)
	}

	// flags override everything
	if err := fs.Parse(os.Args[1:]); err != nil {
		return Specification{}, err
	}
	applyChangedFlags(fs, &cfg)

	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if err := cfg.Validate(); err != nil {
		return Specification{}, err
	}
	return cfg, nil
}

// Validate rejects matching parameters that would corrupt a batch mid-run.
// Runs once at startup, before any profile is touched.
func (s *Specification) Validate() error {
	if s.ChunkSize < 1 {
		return fmt.Errorf("chunkSize must be >= 1, got %d", s.ChunkSize)
	}
	if s.Overlap < 0 || s.Overlap >= s.ChunkSize {
		return fmt.Errorf("overlap must satisfy 0 <= overlap < chunkSize, got overlap=%d chunkSize=%d", s.Overlap, s.ChunkSize)
	}
	if s.Threshold < -1 || s.Threshold > 1 {
		return fmt.Errorf("similarityThreshold must be within [-1, 1], got %g", s.Threshold)
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", s.Workers)
	}
	if s.EmbedTimeout <= 0 {
		return fmt.Errorf("embedTimeout must be positive, got %s", s.EmbedTimeout)
	}
	return nil
}

// ---------- helpers ----------

func loadYAML(path string, into any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, into)
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

func bindFlags(fs *pflag.FlagSet, c *Specification) {
	fs.String("config", "", "Path to config file")

	// If --config is provided on the command line, capture it now so
	// config discovery (which runs before flags.Parse) can use it.
	for i, a := range os.Args {
		if a == "--config" {
			if i+1 < len(os.Args) && !strings.HasPrefix(os.Args[i+1], "-") {
				_ = os.Setenv(envPrefix+"_CONFIG", os.Args[i+1])
			}
		} else if strings.HasPrefix(a, "--config=") {
			parts := strings.SplitN(a, "=", 2)
			if len(parts) == 2 {
				_ = os.Setenv(envPrefix+"_CONFIG", parts[1])
			}
		}
	}

	fs.String("provider", c.Provider, "Provider (e.g., stub, openai, vertexai)")
	fs.String("provider-api-key", c.APIKey, "Provider API key")
	fs.String("provider-embedding-model", c.EmbedModel, "Provider embedding model")
	fs.String("provider-quiz-model", c.QuizModel, "Provider text-generation model for quizzes")
	fs.String("provider-project-id", c.ProjectID, "Provider project ID")
	fs.String("provider-location", c.Location, "Provider location/region")

	fs.Int("embed-dim", c.Dim, "Embedding dimensionality")

	fs.Int("chunk-size", c.ChunkSize, "Word-window length per chunk")
	fs.Int("overlap", c.Overlap, "Words shared between consecutive chunks")
	fs.Float64("similarity-threshold", c.Threshold, "Qualification score cutoff")
	fs.Int("workers", c.Workers, "Concurrent candidate workers")
	fs.Duration("embed-timeout", c.EmbedTimeout, "Per-candidate embedding timeout")

	fs.String("db-url", c.Database, "Optional database URL (DSN) for shortlist persistence")

	fs.String("profiles", c.Profiles, "Path to extraction artifact (JSON file or directory)")
	fs.String("output", c.Output, "Path to write the qualified candidates artifact")

	fs.String("log-level", c.LogLevel, "Log level (debug|info|warn|error)")
	fs.Int("port", c.Port, "API server port")

	// Used later for usage/help
	// create a shallow copy of fs (so Usage can be called safely without mutating caller)
	copied := pflag.NewFlagSet("temp", pflag.ContinueOnError)
	*copied = *fs
	c.flags = copied
}

func applyChangedFlags(fs *pflag.FlagSet, c *Specification) {
	setStr := func(name string, dst *string) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if fs.Changed(name) {
			v, _ := fs.GetInt(name)
			*dst = v
		}
	}
	setFloat := func(name string, dst *float64) {
		if fs.Changed(name) {
			v, _ := fs.GetFloat64(name)
			*dst = v
		}
	}
	setDur := func(name string, dst *time.Duration) {
		if fs.Changed(name) {
			v, _ := fs.GetDuration(name)
			*dst = v
		}
	}

	// (We ignore --config here; it's for discovery.)
	setStr("provider", &c.Provider)
	setStr("provider-api-key", &c.APIKey)
	setStr("provider-embedding-model", &c.EmbedModel)
	setStr("provider-quiz-model", &c.QuizModel)
	setStr("provider-project-id", &c.ProjectID)
	setStr("provider-location", &c.Location)

	setInt("embed-dim", &c.Dim)

	setInt("chunk-size", &c.ChunkSize)
	setInt("overlap", &c.Overlap)
	setFloat("similarity-threshold", &c.Threshold)
	setInt("workers", &c.Workers)
	setDur("embed-timeout", &c.EmbedTimeout)

	setStr("db-url", &c.Database)

	setStr("profiles", &c.Profiles)
	setStr("output", &c.Output)

	setStr("log-level", &c.LogLevel)
	setInt("port", &c.Port)
}

func setDefaults(c *Specification) {
	c.LogLevel = "info"
	c.Provider = "stub"
	c.Location = "us-central1"
	c.Dim = 0
	c.ChunkSize = 60
	c.Overlap = 20
	c.Threshold = 0.75
	c.Workers = defaultWorkers()
	c.EmbedTimeout = 20 * time.Second
	c.Output = "qualified_candidates.json"
	c.Port = 8080
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n > 8 {
		n = 8 // cap to avoid overwhelming the embedding API
	}
	return n
}
