package matcher

import (
	"strings"

	"github.com/seanblong/talentmatch/pkg/models"
)

// BuildDocument flattens a profile's sections into one scoring document.
// Sections are concatenated in a fixed order and empty sections are skipped;
// an entirely empty result means the profile cannot be scored.
func BuildDocument(p models.Profile) string {
	var sections []string

	if s := strings.TrimSpace(p.Summary); s != "" {
		sections = append(sections, s)
	}

	var responsibilities []string
	for _, exp := range p.WorkExperience {
		responsibilities = append(responsibilities, exp.Responsibilities...)
	}
	sections = append(sections, strings.Join(responsibilities, " "))

	sections = append(sections, strings.Join(p.TechnicalSkills, " "))

	var education []string
	for _, edu := range p.Education {
		if edu.Degree != "" || edu.Field != "" {
			education = append(education, strings.TrimSpace(edu.Degree+" "+edu.Field))
		}
	}
	sections = append(sections, strings.Join(education, " "))

	var certs []string
	for _, c := range p.Certifications {
		certs = append(certs, c.Name)
	}
	sections = append(sections, strings.Join(certs, " "))

	var projects []string
	for _, proj := range p.Projects {
		projects = append(projects, strings.TrimSpace(proj.Name+" "+proj.Description))
	}
	sections = append(sections, strings.Join(projects, " "))

	sections = append(sections, strings.Join(p.SoftSkills, " "))

	var langs []string
	for _, l := range p.Languages {
		langs = append(langs, strings.TrimSpace(l.Language+" "+l.Proficiency))
	}
	sections = append(sections, strings.Join(langs, " "))

	sections = append(sections, strings.Join(p.Interests, " "))

	var kept []string
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			kept = append(kept, s)
		}
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}
