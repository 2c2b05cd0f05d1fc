package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/seanblong/talentmatch/internal/ai"
	"github.com/seanblong/talentmatch/internal/config"
	"github.com/seanblong/talentmatch/internal/matcher"
	"github.com/seanblong/talentmatch/internal/store"
	"github.com/seanblong/talentmatch/pkg/models"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("talentmatch-matcher", pflag.ExitOnError)
	fs.String("job", "", "Path to a job spec JSON file")
	fs.String("job-field", "", "Job field, e.g. 'AI Engineer'")
	fs.String("job-description", "", "Job description text")

	cfg, err := config.Load("", fs)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	job, err := loadJob(fs)
	if err != nil {
		log.Fatalf("Failed to load job spec: %v", err)
	}

	provider := strings.ToLower(cfg.Provider)
	log.Printf("using provider: %s", provider)
	var clientConfig *ai.ClientConfig
	switch provider {
	case "openai":
		clientConfig = &ai.ClientConfig{
			APIKey:     cfg.APIKey,
			EmbedModel: cfg.EmbedModel,
			QuizModel:  cfg.QuizModel,
			Dim:        cfg.Dim,
			ProjectID:  cfg.ProjectID,
			Provider:   ai.ProviderOpenAI,
		}
	case "vertexai", "google":
		clientConfig = &ai.ClientConfig{
			APIKey:     cfg.APIKey,
			EmbedModel: cfg.EmbedModel,
			QuizModel:  cfg.QuizModel,
			Dim:        cfg.Dim,
			ProjectID:  cfg.ProjectID,
			Location:   cfg.Location,
			Provider:   ai.ProviderVertexAI,
		}
	case "stub":
		clientConfig = &ai.ClientConfig{
			Dim:      cfg.Dim,
			Provider: ai.ProviderStub,
		}
	default:
		log.Fatalf("unsupported provider: %s", provider)
	}

	c, err := ai.NewClient(clientConfig)
	if err != nil {
		log.Fatalf("Failed to create AI client: %v", err)
	}
	if c.Dim() == 0 {
		log.Fatal("embedding dimension must be set")
	}

	profiles, err := matcher.NewLoader().Load(cfg.Profiles)
	if err != nil {
		log.Fatalf("Failed to load profiles from %s: %v", cfg.Profiles, err)
	}
	log.Printf("loaded %d profiles from %s", len(profiles), cfg.Profiles)

	m, err := matcher.New(c, matcher.Params{
		ChunkSize:    cfg.ChunkSize,
		Overlap:      cfg.Overlap,
		Threshold:    cfg.Threshold,
		Workers:      cfg.Workers,
		EmbedTimeout: cfg.EmbedTimeout,
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	if cfg.Database != "" {
		st, err := store.New(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer st.Close()
		if err := st.Migrate(ctx, c.Dim()); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		m.Store = st
	}

	report, err := m.Match(ctx, profiles, job, cfg.Output)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("qualified %d of %d candidates (threshold %.2f), wrote %s",
		len(report.Qualified), len(profiles), cfg.Threshold, cfg.Output)
	for _, s := range report.Skipped {
		log.Printf("skipped %s <%s>: %s", s.Name, s.Email, s.Reason)
	}
	if report.RunID != "" {
		log.Printf("shortlist persisted as run %s", report.RunID)
	}
}

// loadJob reads the job spec from --job (a JSON file) or from the inline
// --job-field / --job-description flags. Inline flags override file values.
func loadJob(fs *pflag.FlagSet) (models.JobSpec, error) {
	var job models.JobSpec

	if path, _ := fs.GetString("job"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return models.JobSpec{}, err
		}
		if err := json.Unmarshal(b, &job); err != nil {
			return models.JobSpec{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if v, _ := fs.GetString("job-field"); v != "" {
		job.Field = v
	}
	if v, _ := fs.GetString("job-description"); v != "" {
		job.Description = v
	}
	if strings.TrimSpace(job.Field) == "" && strings.TrimSpace(job.Description) == "" {
		return models.JobSpec{}, errors.New("provide --job, --job-field or --job-description")
	}
	return job, nil
}
