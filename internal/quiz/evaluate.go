package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CriterionScore is one graded rubric entry.
type CriterionScore struct {
	Score   float64 `json:"score"`
	Comment string  `json:"comment"`
}

// Evaluation is the structured judgment for one quiz answer.
type Evaluation struct {
	CriteriaScores map[string]CriterionScore `json:"criteria_scores"`
	OverallScore   float64                   `json:"overall_score"`
	Recommendation string                    `json:"recommendation"`
	Summary        string                    `json:"summary"`
	Raw            string                    `json:"-"`
}

// Evaluator grades quiz answers against role-specific weighted criteria.
type Evaluator struct {
	client contentGenerator
}

// NewEvaluator creates an Evaluator backed by the given AI client.
func NewEvaluator(client contentGenerator) *Evaluator {
	return &Evaluator{client: client}
}

const evaluateSystemPrompt = "You are an expert technical evaluator and hiring advisor. " +
	"You will assess candidate submissions for technical accuracy, depth of reasoning, " +
	"optimization, and adherence to best practices. Think step-by-step internally, " +
	"but output only the final structured judgment in JSON format."

const evaluateUserTemplate = `Evaluate the candidate's submission for the {{ROLE}} position.

Task / Exam Question:
{{QUESTION}}

Candidate Submission:
{{ANSWER}}

Evaluation Criteria (with weights and descriptions):
{{CRITERIA}}

Instructions: score each criterion from 0 to 10 with a one-line justification,
compute the weighted overall score out of 10, and give a final recommendation
of "PASS" or "FAIL" (threshold = 7.0).

Response format (strict JSON):
{
  "criteria_scores": {"<criterion_name>": {"score": <float 0-10>, "comment": "<short justification>"}},
  "overall_score": <float 0-10>,
  "recommendation": "<PASS or FAIL>",
  "summary": "<2-3 sentence summary>"
}`

// Evaluate grades one answer for a role. The provider is asked for strict
// JSON; prose responses fall back to a line-oriented parser rather than
// failing the whole evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, role Role, question, answer string) (*Evaluation, error) {
	criteria, err := Criteria(role)
	if err != nil {
		return nil, err
	}

	var rubric []string
	for _, c := range criteria {
		rubric = append(rubric, fmt.Sprintf("- %s (%.0f%%): %s", c.Name, c.Weight*100, c.Description))
	}

	user := strings.ReplaceAll(evaluateUserTemplate, "{{ROLE}}", string(role))
	user = strings.ReplaceAll(user, "{{QUESTION}}", question)
	user = strings.ReplaceAll(user, "{{ANSWER}}", answer)
	user = strings.ReplaceAll(user, "{{CRITERIA}}", strings.Join(rubric, "\n"))

	raw, err := e.client.Generate(ctx, evaluateSystemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("evaluate answer: %w", err)
	}

	ev := parseEvaluation(raw)
	ev.Raw = raw
	return ev, nil
}

// parseEvaluation decodes the model's judgment, tolerating markdown fences
// and falling back to plain-text parsing.
func parseEvaluation(raw string) *Evaluation {
	cleaned := extractJSON(raw)

	var ev Evaluation
	if err := json.Unmarshal([]byte(cleaned), &ev); err == nil && ev.CriteriaScores != nil {
		return &ev
	}
	return parseEvaluationText(raw)
}

// extractJSON strips markdown code fences around a JSON payload.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// parseEvaluationText recovers scores from prose output. Expected lines:
//
//	Criterion: X/10
//	Overall Score: Y/10
//	Recommendation: PASS
func parseEvaluationText(raw string) *Evaluation {
	ev := &Evaluation{CriteriaScores: make(map[string]CriterionScore)}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.Contains(line, "Overall Score:"):
			_, after, _ := strings.Cut(line, ":")
			num, _, _ := strings.Cut(after, "/10")
			if v, err := strconv.ParseFloat(strings.TrimSpace(num), 64); err == nil {
				ev.OverallScore = v
			}
		case strings.Contains(line, "Recommendation:"):
			_, after, _ := strings.Cut(line, ":")
			rec := strings.ToUpper(strings.TrimSpace(after))
			if rec == "PASS" || rec == "FAIL" {
				ev.Recommendation = rec
			}
		case strings.Contains(line, "/10"):
			name, rest, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			name = strings.TrimSpace(strings.TrimLeft(name, "-* "))
			num, _, _ := strings.Cut(rest, "/10")
			if v, err := strconv.ParseFloat(strings.TrimSpace(num), 64); err == nil && name != "" {
				ev.CriteriaScores[name] = CriterionScore{Score: v}
			}
		}
	}
	return ev
}
