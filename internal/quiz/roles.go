package quiz

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedRole is returned for job fields outside the closed Role set.
var ErrUnsupportedRole = errors.New("unsupported role")

// Role is the closed enumeration of job fields the quiz services support.
// Role selection is explicit: free-text fields must go through ParseRole and
// unknown values fail instead of falling through to a default template.
type Role string

const (
	RoleFullstackDeveloper Role = "Fullstack Developer"
	RoleAIEngineer         Role = "AI Engineer"
	RoleCyberSecurity      Role = "Cyber Security"
	RoleCloudEngineer      Role = "Cloud Engineer"
	RoleSoftwareEngineer   Role = "Software Engineer"
)

// Roles lists every supported role.
func Roles() []Role {
	return []Role{
		RoleFullstackDeveloper,
		RoleAIEngineer,
		RoleCyberSecurity,
		RoleCloudEngineer,
		RoleSoftwareEngineer,
	}
}

// ParseRole maps a job-field string onto the closed Role set,
// case-insensitively.
func ParseRole(s string) (Role, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, r := range Roles() {
		if strings.ToLower(string(r)) == needle {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedRole, s)
}

// Criterion is one weighted rubric entry for answer evaluation.
type Criterion struct {
	Name        string
	Weight      float64
	Description string
}

// roleSpec binds a role to its quiz prompt and grading rubric.
type roleSpec struct {
	// quizFocus steers question generation toward the role's core skills.
	quizFocus string
	// needsDataset marks roles whose quizzes are grounded in a sample of a
	// provided dataset or log file.
	needsDataset bool
	criteria     []Criterion
}

var roleSpecs = map[Role]roleSpec{
	RoleAIEngineer: {
		quizFocus:    "machine learning pipelines: model architectures, training, evaluation metrics, and data preprocessing with Python",
		needsDataset: true,
		criteria: []Criterion{
			{"Python Proficiency", 0.20, "Correct use of Python syntax, data structures, and ML libraries such as NumPy, pandas, TensorFlow, or PyTorch."},
			{"ML/DL Knowledge", 0.30, "Understanding of model architectures, training procedures, loss functions, and evaluation metrics."},
			{"Data Handling & Preprocessing", 0.20, "Proper data cleaning, normalization, feature engineering, and validation splitting."},
			{"Problem Solving & Reasoning", 0.20, "Ability to diagnose issues, interpret results, and adapt the pipeline logically."},
			{"Optimization & Efficiency", 0.10, "Efficiency of model training and inference; avoidance of redundant computations."},
		},
	},
	RoleCyberSecurity: {
		quizFocus:    "security analysis: vulnerabilities, log-based threat detection, incident response, and secure coding",
		needsDataset: true,
		criteria: []Criterion{
			{"Security Concepts", 0.30, "Understanding of vulnerabilities, encryption, authentication, and access control principles."},
			{"Log Analysis & Threat Detection", 0.25, "Ability to detect anomalies or malicious activity from log data or code patterns."},
			{"Code Logic & Response Handling", 0.20, "Accuracy and correctness in implementing detection and response logic."},
			{"Tool & Framework Knowledge", 0.15, "Proficiency with security tools (SIEMs, IDS/IPS, scripting) for automation or analysis."},
			{"Best Practices", 0.10, "Adherence to secure coding standards and compliance guidelines."},
		},
	},
	RoleSoftwareEngineer: {
		quizFocus: "general software engineering: algorithm design, data structures, program structure, and complexity trade-offs",
		criteria: []Criterion{
			{"Algorithm Design", 0.30, "Design of algorithms with correct logic, scalability, and optimal complexity."},
			{"Code Logic & Structure", 0.25, "Program flow, modularity, and proper error handling."},
			{"Data Structures Usage", 0.20, "Appropriate selection and manipulation of arrays, trees, hash maps, etc."},
			{"Optimization & Efficiency", 0.15, "Resource management, computational efficiency, and time/space trade-offs."},
			{"Code Quality & Readability", 0.10, "Naming conventions, documentation, and maintainable style."},
		},
	},
	RoleCloudEngineer: {
		quizFocus: "cloud infrastructure: distributed architecture, infrastructure as code, CI/CD pipelines, and cloud security",
		criteria: []Criterion{
			{"Cloud Architecture Concepts", 0.30, "Knowledge of distributed systems, scaling, and cloud service models (AWS, Azure, GCP)."},
			{"Infrastructure as Code", 0.25, "Implementation of infrastructure automation using Terraform, CloudFormation, etc."},
			{"Automation & CI/CD", 0.20, "Continuous integration and deployment pipelines, automation reliability."},
			{"Security & Compliance", 0.15, "IAM roles, encryption, secure configuration, and compliance awareness."},
			{"Best Practices", 0.10, "Resource optimization, version control, monitoring, and cost efficiency."},
		},
	},
	RoleFullstackDeveloper: {
		quizFocus: "full-stack development: frontend/backend integration, API design, database usage, and project structure",
		criteria: []Criterion{
			{"Frontend/Backend Integration", 0.30, "Data flow and logical consistency between frontend and backend components."},
			{"API Design & Implementation", 0.25, "RESTful architecture, endpoint consistency, and proper error/status handling."},
			{"Code Structure & Modularity", 0.20, "Component reusability, project organization, and separation of concerns."},
			{"Database & Query Efficiency", 0.15, "Schema design, query optimization, and transaction management."},
			{"Best Practices", 0.10, "Security validation, maintainable code standards, and testing discipline."},
		},
	},
}

// Criteria returns the grading rubric for a role.
func Criteria(role Role) ([]Criterion, error) {
	spec, ok := roleSpecs[role]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRole, role)
	}
	return spec.criteria, nil
}
