package models

import "time"

// Profile is the structured record produced by the CV extraction stage.
// Every section is optional; field names follow the extraction artifact format.
type Profile struct {
	Name            string          `json:"name"`
	Contact         Contact         `json:"contact"`
	Summary         string          `json:"summary"`
	TechnicalSkills []string        `json:"technical_skills"`
	WorkExperience  []Experience    `json:"work_experience"`
	Education       []Education     `json:"education"`
	Certifications  []Certification `json:"certifications"`
	Projects        []Project       `json:"projects"`
	SoftSkills      []string        `json:"soft_skills"`
	Languages       []Language      `json:"languages"`
	Interests       []string        `json:"interests"`
}

type Contact struct {
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Location string `json:"location,omitempty"`
}

type Experience struct {
	Title            string   `json:"title,omitempty"`
	Company          string   `json:"company,omitempty"`
	Responsibilities []string `json:"responsibilities"`
}

type Education struct {
	Degree string `json:"degree"`
	Field  string `json:"field"`
}

type Certification struct {
	Name string `json:"name"`
}

type Project struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Language struct {
	Language    string `json:"language"`
	Proficiency string `json:"proficiency"`
}

// JobSpec describes the role candidates are screened against.
type JobSpec struct {
	Field       string `json:"job_field"`
	Description string `json:"job_description"`
}

// ScoreRecord is one qualified candidate in a ranked shortlist. FullName and
// Email are the join keys used by quiz issuance and notification downstream.
type ScoreRecord struct {
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Score    float64 `json:"similarity_score"`
}

// ShortlistRun is a persisted matching run with its ranked entries.
type ShortlistRun struct {
	ID             string        `json:"id"`
	JobField       string        `json:"job_field"`
	JobDescription string        `json:"job_description"`
	CreatedAt      time.Time     `json:"created_at"`
	Entries        []ScoreRecord `json:"entries"`
}

// SimilarCandidate is a shortlist entry matched by vector proximity.
type SimilarCandidate struct {
	RunID      string  `json:"run_id"`
	FullName   string  `json:"full_name"`
	Email      string  `json:"email"`
	Score      float64 `json:"similarity_score"`
	Similarity float64 `json:"similarity"`
}
