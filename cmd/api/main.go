package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/seanblong/talentmatch/internal/ai"
	"github.com/seanblong/talentmatch/internal/config"
	"github.com/seanblong/talentmatch/internal/matcher"
	"github.com/seanblong/talentmatch/internal/quiz"
	"github.com/seanblong/talentmatch/internal/store"
	"github.com/seanblong/talentmatch/pkg/models"
	"github.com/spf13/pflag"
)

type matchRequest struct {
	Job      models.JobSpec   `json:"job"`
	Profiles []models.Profile `json:"profiles,omitempty"`
	// ProfilesPath names an extraction artifact on the server; used when no
	// inline profiles are given. Falls back to the configured profiles path.
	ProfilesPath string `json:"profiles_path,omitempty"`
}

type quizGenerateRequest struct {
	Role        string `json:"role"`
	Description string `json:"description"`
	Sector      string `json:"sector"`
	DatasetPath string `json:"dataset_path,omitempty"`
}

type quizGenerateResponse struct {
	Role string `json:"role"`
	Quiz string `json:"quiz"`
}

type quizEvaluateRequest struct {
	Role     string `json:"role"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type similarRequest struct {
	Text string `json:"text"`
	K    int    `json:"k,omitempty"`
}

func main() {
	// Create flagset for configuration
	fs := pflag.NewFlagSet("talentmatch-api", pflag.ExitOnError)

	// Load configuration
	cfg, err := config.Load("", fs)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	// Set up logging
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid log level '%s': %v", cfg.LogLevel, err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	logger.Info().Str("provider", cfg.Provider).Str("log_level", cfg.LogLevel).Msg("starting talentmatch api")

	// Create AI client configuration
	var clientConfig *ai.ClientConfig
	switch strings.ToLower(cfg.Provider) {
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
		log.Fatalf("unsupported provider: %s", cfg.Provider)
	}

	c, err := ai.NewClient(clientConfig)
	if err != nil {
		log.Fatalf("Failed to create AI client: %v", err)
	}
	logger.Info().Int("embedding_dim", c.Dim()).Str("embed_model", clientConfig.EmbedModel).Msg("AI client initialized")

	ctx := context.Background()

	var st *store.Store
	if cfg.Database != "" {
		st, err = store.New(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer st.Close()
		if err := st.Migrate(ctx, c.Dim()); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	} else {
		logger.Info().Msg("no database configured, shortlist endpoints disabled")
	}

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
	if st != nil {
		m.Store = st
	}

	quizGen := quiz.NewGenerator(c)
	quizEval := quiz.NewEvaluator(c)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if st != nil {
			if err := st.Ping(r.Context()); err != nil {
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})

	mux.HandleFunc("/match", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		start := time.Now()

		var req matchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if len(req.Profiles) == 0 {
			path := req.ProfilesPath
			if path == "" {
				path = cfg.Profiles
			}
			if path == "" {
				http.Error(w, "provide profiles inline or a profiles_path", http.StatusBadRequest)
				return
			}
			profiles, err := matcher.NewLoader().Load(path)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			req.Profiles = profiles
		}
		if len(req.Profiles) == 0 {
			http.Error(w, "profiles must not be empty", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		// The ranked shortlist goes back in the response body; no file
		// artifact is written for API runs.
		report, err := m.Match(ctx, req.Profiles, req.Job, "")
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}

		writeJSON(w, report)
		hlog.FromRequest(r).Info().Str("path", "/match").Int("profiles", len(req.Profiles)).
			Int("qualified", len(report.Qualified)).Dur("dur", time.Since(start)).Msg("served")
	})

	mux.HandleFunc("/shortlists", func(w http.ResponseWriter, r *http.Request) {
		if st == nil {
			http.Error(w, "no database configured", http.StatusNotImplemented)
			return
		}
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if runs == nil {
			runs = []models.ShortlistRun{}
		}
		writeJSON(w, runs)
	})

	mux.HandleFunc("/shortlists/", func(w http.ResponseWriter, r *http.Request) {
		if st == nil {
			http.Error(w, "no database configured", http.StatusNotImplemented)
			return
		}
		runID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/shortlists/"), "/")
		if runID == "" || strings.Contains(runID, "/") {
			http.NotFound(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		run, err := st.GetRun(ctx, runID)
		if err != nil {
			if errors.Is(err, store.ErrRunNotFound) {
				http.Error(w, "run not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, run)
	})

	mux.HandleFunc("/candidates/similar", func(w http.ResponseWriter, r *http.Request) {
		if st == nil {
			http.Error(w, "no database configured", http.StatusNotImplemented)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req similarRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			http.Error(w, "text must not be empty", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		vecs, err := c.EmbedBatch(ctx, []string{req.Text})
		if err != nil || len(vecs) == 0 {
			http.Error(w, "embedding failed", 500)
			return
		}
		out, err := st.SimilarCandidates(ctx, vecs[0], req.K)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if out == nil {
			out = []models.SimilarCandidate{}
		}
		writeJSON(w, out)
	})

	mux.HandleFunc("/quiz/generate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req quizGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		role, err := quiz.ParseRole(req.Role)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
		defer cancel()

		text, err := quizGen.Generate(ctx, quiz.Request{
			Role:        role,
			Description: req.Description,
			Sector:      req.Sector,
			DatasetPath: req.DatasetPath,
		})
		if err != nil {
			status := 500
			if errors.Is(err, quiz.ErrUnsupportedRole) {
				status = http.StatusBadRequest
			}
			http.Error(w, err.Error(), status)
			return
		}
		writeJSON(w, quizGenerateResponse{Role: string(role), Quiz: text})
	})

	mux.HandleFunc("/quiz/evaluate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req quizEvaluateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		role, err := quiz.ParseRole(req.Role)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Answer) == "" {
			http.Error(w, "answer must not be empty", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
		defer cancel()

		ev, err := quizEval.Evaluate(ctx, role, req.Question, req.Answer)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, ev)
	})

	handler := hlog.NewHandler(logger)(
		hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
			logger.Info().Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Int("size", size).Dur("dur", dur).Msg("http")
		})(mux),
	)

	address := fmt.Sprintf(":%d", cfg.Port)
	s := &http.Server{Addr: address, Handler: handler}
	logger.Info().Str("addr", s.Addr).Msg("api server listening")
	log.Fatal(s.ListenAndServe())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", 500)
	}
}
