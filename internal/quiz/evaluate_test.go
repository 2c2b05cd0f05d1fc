package quiz

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const strictJSONResponse = `{
	"criteria_scores": {
		"Algorithm Design": {"score": 8.5, "comment": "solid approach"},
		"Code Quality & Readability": {"score": 6, "comment": "sparse naming"}
	},
	"overall_score": 7.8,
	"recommendation": "PASS",
	"summary": "Competent solution with minor style issues."
}`

func TestEvaluateStrictJSON(t *testing.T) {
	gen := &mockGenerator{
		GenerateFunc: func(ctx context.Context, system, user string) (string, error) {
			return strictJSONResponse, nil
		},
	}
	e := NewEvaluator(gen)

	ev, err := e.Evaluate(context.Background(), RoleSoftwareEngineer, "reverse a linked list", "func reverse(...)")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if ev.OverallScore != 7.8 {
		t.Errorf("overall score = %g, want 7.8", ev.OverallScore)
	}
	if ev.Recommendation != "PASS" {
		t.Errorf("recommendation = %q, want PASS", ev.Recommendation)
	}
	if got := ev.CriteriaScores["Algorithm Design"]; got.Score != 8.5 || got.Comment != "solid approach" {
		t.Errorf("unexpected criterion score: %+v", got)
	}
	if ev.Raw != strictJSONResponse {
		t.Error("raw provider output should be preserved")
	}

	// The rubric must reach the model.
	if !strings.Contains(gen.lastUser, "Algorithm Design (30%)") {
		t.Errorf("prompt missing weighted rubric:\n%s", gen.lastUser)
	}
	if !strings.Contains(gen.lastUser, "reverse a linked list") {
		t.Errorf("prompt missing the question:\n%s", gen.lastUser)
	}
}

func TestEvaluateFencedJSON(t *testing.T) {
	gen := &mockGenerator{
		GenerateFunc: func(ctx context.Context, system, user string) (string, error) {
			return "```json\n" + strictJSONResponse + "\n```", nil
		},
	}
	e := NewEvaluator(gen)

	ev, err := e.Evaluate(context.Background(), RoleCloudEngineer, "q", "a")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if ev.OverallScore != 7.8 || ev.Recommendation != "PASS" {
		t.Errorf("fenced JSON was not parsed: %+v", ev)
	}
}

func TestEvaluateTextFallback(t *testing.T) {
	prose := `The candidate did reasonably well.
- Security Concepts: 7/10
- Log Analysis & Threat Detection: 5.5/10
Overall Score: 6.2/10
Recommendation: FAIL`

	gen := &mockGenerator{
		GenerateFunc: func(ctx context.Context, system, user string) (string, error) {
			return prose, nil
		},
	}
	e := NewEvaluator(gen)

	ev, err := e.Evaluate(context.Background(), RoleCyberSecurity, "q", "a")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if ev.OverallScore != 6.2 {
		t.Errorf("overall score = %g, want 6.2", ev.OverallScore)
	}
	if ev.Recommendation != "FAIL" {
		t.Errorf("recommendation = %q, want FAIL", ev.Recommendation)
	}
	if got := ev.CriteriaScores["Security Concepts"].Score; got != 7 {
		t.Errorf("Security Concepts = %g, want 7", got)
	}
	if got := ev.CriteriaScores["Log Analysis & Threat Detection"].Score; got != 5.5 {
		t.Errorf("Log Analysis & Threat Detection = %g, want 5.5", got)
	}
}

func TestEvaluateUnsupportedRole(t *testing.T) {
	e := NewEvaluator(&mockGenerator{})
	_, err := e.Evaluate(context.Background(), Role("Chef"), "q", "a")
	if !errors.Is(err, ErrUnsupportedRole) {
		t.Errorf("expected ErrUnsupportedRole, got %v", err)
	}
}

func TestEvaluateProviderError(t *testing.T) {
	e := NewEvaluator(&mockGenerator{
		GenerateFunc: func(ctx context.Context, system, user string) (string, error) {
			return "", errors.New("model overloaded")
		},
	})
	_, err := e.Evaluate(context.Background(), RoleAIEngineer, "q", "a")
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
}
