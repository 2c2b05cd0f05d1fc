package matcher

import (
	"strings"
	"testing"

	"github.com/seanblong/talentmatch/pkg/models"
)

func TestBuildDocumentAllSections(t *testing.T) {
	p := models.Profile{
		Name:    "Dana Khalil",
		Summary: "Backend engineer with five years of Go experience",
		WorkExperience: []models.Experience{
			{Responsibilities: []string{"Built payment APIs", "Led on-call rotation"}},
			{Responsibilities: []string{"Migrated services to Kubernetes"}},
		},
		TechnicalSkills: []string{"Go", "PostgreSQL", "Kubernetes"},
		Education:       []models.Education{{Degree: "BSc", Field: "Computer Science"}},
		Certifications:  []models.Certification{{Name: "CKA"}},
		Projects:        []models.Project{{Name: "loadgen", Description: "traffic generator"}},
		SoftSkills:      []string{"communication"},
		Languages:       []models.Language{{Language: "Arabic", Proficiency: "native"}},
		Interests:       []string{"chess"},
	}

	doc := BuildDocument(p)
	for _, want := range []string{
		"Backend engineer", "Built payment APIs", "Migrated services to Kubernetes",
		"Go PostgreSQL Kubernetes", "BSc Computer Science", "CKA",
		"loadgen traffic generator", "communication", "Arabic native", "chess",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}

	// Summary comes before experience, experience before skills.
	if strings.Index(doc, "Backend engineer") > strings.Index(doc, "Built payment") {
		t.Error("summary should precede experience")
	}
	if strings.Index(doc, "Built payment") > strings.Index(doc, "Go PostgreSQL") {
		t.Error("experience should precede skills")
	}
}

func TestBuildDocumentSkipsEmptySections(t *testing.T) {
	p := models.Profile{TechnicalSkills: []string{"Python", "Django"}}
	doc := BuildDocument(p)
	if doc != "Python Django" {
		t.Errorf("expected only the skills section, got %q", doc)
	}
}

func TestBuildDocumentEmptyProfile(t *testing.T) {
	if doc := BuildDocument(models.Profile{}); doc != "" {
		t.Errorf("empty profile should yield empty document, got %q", doc)
	}

	// Name and contact are identity, not scorable content.
	p := models.Profile{Name: "Ghost", Contact: models.Contact{Email: "ghost@example.com"}}
	if doc := BuildDocument(p); doc != "" {
		t.Errorf("identity-only profile should yield empty document, got %q", doc)
	}
}

func TestBuildDocumentPartialEducation(t *testing.T) {
	p := models.Profile{Education: []models.Education{{Degree: "MSc"}, {Field: "Data Science"}, {}}}
	doc := BuildDocument(p)
	if doc != "MSc Data Science" {
		t.Errorf("expected trimmed degree/field pairs, got %q", doc)
	}
}
