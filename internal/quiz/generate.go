package quiz

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// contentGenerator is the slice of the AI client the quiz services need.
type contentGenerator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Generator produces role-specific technical quizzes from a job description.
type Generator struct {
	client contentGenerator
}

// NewGenerator creates a Generator backed by the given AI client.
func NewGenerator(client contentGenerator) *Generator {
	return &Generator{client: client}
}

// Request describes one quiz to generate. DatasetPath is required for roles
// whose questions are grounded in a data sample (AI Engineer, Cyber
// Security) and ignored otherwise.
type Request struct {
	Role        Role
	Description string
	Sector      string
	DatasetPath string
}

const generateSystemPrompt = "You are a senior technical interviewer. " +
	"Write a practical quiz of 5 questions for the given position. " +
	"Questions must be answerable in text, test applied knowledge rather than trivia, " +
	"and increase in difficulty. Number the questions Q1 through Q5."

const generateUserTemplate = `Position: {{ROLE}}
Focus areas: {{FOCUS}}
Sector: {{SECTOR}}

Job description:
{{DESCRIPTION}}
{{DATASET}}`

// Generate builds the role's prompt and asks the provider for a quiz.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	spec, ok := roleSpecs[req.Role]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedRole, req.Role)
	}

	dataset := ""
	if spec.needsDataset {
		if req.DatasetPath == "" {
			return "", fmt.Errorf("dataset path is required for %s quizzes", req.Role)
		}
		sample, err := datasetSample(req.DatasetPath)
		if err != nil {
			return "", err
		}
		dataset = "\nGround the questions in this data sample:\n" + sample
	}

	user := strings.ReplaceAll(generateUserTemplate, "{{ROLE}}", string(req.Role))
	user = strings.ReplaceAll(user, "{{FOCUS}}", spec.quizFocus)
	user = strings.ReplaceAll(user, "{{SECTOR}}", req.Sector)
	user = strings.ReplaceAll(user, "{{DESCRIPTION}}", req.Description)
	user = strings.ReplaceAll(user, "{{DATASET}}", dataset)

	out, err := g.client.Generate(ctx, generateSystemPrompt, user)
	if err != nil {
		return "", fmt.Errorf("generate quiz: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return "", errors.New("provider returned an empty quiz")
	}
	return strings.TrimSpace(out), nil
}

// datasetSample reads the head of a dataset file for prompt context. CSV and
// log/text files contribute their first lines; JSON files contribute a
// leading byte sample.
func datasetSample(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		lines, err := headLines(path, 6)
		if err != nil {
			return "", err
		}
		return "CSV file detected. Header and sample rows:\n" + strings.Join(lines, "\n"), nil
	case ".json":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read dataset %s: %w", path, err)
		}
		if len(b) > 2048 {
			b = b[:2048]
		}
		return "JSON file detected. Sample entries:\n" + string(b), nil
	case ".log", ".txt":
		lines, err := headLines(path, 5)
		if err != nil {
			return "", err
		}
		return "Log file detected. Sample lines:\n" + strings.Join(lines, "\n"), nil
	default:
		return "", fmt.Errorf("unsupported dataset format: %s", path)
	}
}

func headLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() && len(lines) < n {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return lines, nil
}
