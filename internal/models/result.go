package models

const (
	KindGPA  = "GPA"
	KindCGPA = "CGPA"
)

// Result is what the grade engine hands to persistence and report collaborators.
type Result struct {
	Kind                  string   `json:"kind"`
	Average               float64  `json:"average"`
	ClassificationLabel   string   `json:"classification_label"`
	ClassificationMessage string   `json:"classification_message"`
	TotalCredits          int      `json:"total_credits"`
	TotalWeight           int      `json:"total_weight"`
	InvalidCourses        []string `json:"invalid_courses,omitempty"`
}
