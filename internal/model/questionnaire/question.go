package questionnaire

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind distinguishes how a raw answer is validated and coerced.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindChoice  Kind = "choice"
)

// Question is one fixed step of the demographic phase.
type Question struct {
	Key          string   `json:"key"`
	Prompt       string   `json:"prompt"`
	ErrorMessage string   `json:"errorMessage"`
	Kind         Kind     `json:"kind"`
	Min          float64  `json:"min,omitempty"`
	Max          float64  `json:"max,omitempty"`
	Choices      []string `json:"choices,omitempty"`

	// Numeric bounds are inclusive unless the matching flag is set.
	MinExclusive bool `json:"minExclusive,omitempty"`
	MaxExclusive bool `json:"maxExclusive,omitempty"`
}

// Validate reports whether raw is an acceptable answer.
func (q Question) Validate(raw string) bool {
	_, ok := q.coerce(raw)
	return ok
}

// Coerce converts an answer into its typed value. Choice answers are
// lowercased, numeric answers parsed as float64.
func (q Question) Coerce(raw string) (Value, error) {
	value, ok := q.coerce(raw)
	if !ok {
		return Value{}, fmt.Errorf("%s: %s", q.Key, q.ErrorMessage)
	}
	return value, nil
}

func (q Question) coerce(raw string) (Value, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Value{}, false
	}

	switch q.Kind {
	case KindChoice:
		lowered := strings.ToLower(trimmed)
		for _, option := range q.Choices {
			if lowered == option {
				return StringValue(lowered), true
			}
		}
		return Value{}, false
	case KindNumeric:
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return Value{}, false
		}
		if !q.inRange(n) {
			return Value{}, false
		}
		return NumberValue(n), true
	default:
		return Value{}, false
	}
}

func (q Question) inRange(n float64) bool {
	if q.MinExclusive {
		if n <= q.Min {
			return false
		}
	} else if n < q.Min {
		return false
	}

	if q.MaxExclusive {
		if n >= q.Max {
			return false
		}
	} else if n > q.Max {
		return false
	}
	return true
}

// Catalog returns the ordered question list. Callers get their own copy.
func Catalog() []Question {
	out := make([]Question, len(catalog))
	for i, q := range catalog {
		q.Choices = append([]string(nil), q.Choices...)
		out[i] = q
	}
	return out
}

// Len is the number of questions in the demographic phase.
func Len() int {
	return len(catalog)
}

func numeric(key, prompt, errMsg string, lo, hi float64) Question {
	return Question{Key: key, Prompt: prompt, ErrorMessage: errMsg, Kind: KindNumeric, Min: lo, Max: hi}
}

func choice(key, prompt, errMsg string, choices ...string) Question {
	return Question{Key: key, Prompt: prompt, ErrorMessage: errMsg, Kind: KindChoice, Choices: choices}
}

const (
	scaleError = "Please enter a number between 0-5"
	yesNoError = "Please enter Yes or No"
)

var catalog = []Question{
	{
		Key:          "age",
		Prompt:       "What is your age?",
		ErrorMessage: "Please enter a valid age (1-119)",
		Kind:         KindNumeric,
		Min:          0,
		Max:          120,
		MinExclusive: true,
		MaxExclusive: true,
	},
	choice("gender", "What is your gender? (Male/Female)", "Please enter Male or Female", "male", "female"),
	choice("profession", "What is your profession? (Student/Working Professional)", "Please enter a valid profession", "student", "working professional"),
	numeric("academic_pressure", "Academic Pressure (1-5)? Enter 0 if not applicable", scaleError, 0, 5),
	numeric("work_pressure", "Work Pressure (1-5)? Enter 0 if not applicable", scaleError, 0, 5),
	numeric("study_satisfaction", "Study Satisfaction (1-5)? Enter 0 if not applicable", scaleError, 0, 5),
	numeric("job_satisfaction", "Job Satisfaction (1-5)? Enter 0 if not applicable", scaleError, 0, 5),
	choice("sleep_duration", "What is your sleep duration? (Low/Medium/Normal/High)", "Please enter Low, Medium, Normal, or High", "low", "medium", "normal", "high"),
	choice("dietary_habits", "What are your dietary habits? (Healthy/Moderate/Unhealthy)", "Please enter Healthy, Moderate, or Unhealthy", "healthy", "moderate", "unhealthy"),
	choice("degree", "What is your degree? (High School/Undergrad/Postgrad)", "Please enter a valid degree", "high school", "undergrad", "postgrad"),
	choice("suicidal_thoughts", "Have you ever had suicidal thoughts? (Yes/No)", yesNoError, "yes", "no"),
	numeric("work_study_hours", "How many hours do you work/study per day?", "Please enter a number between 0-24", 0, 24),
	numeric("financial_stress", "Financial Stress (1-5)?", "Please enter a number between 1-5", 1, 5),
	choice("family_history", "Do you have a family history of mental illness? (Yes/No)", yesNoError, "yes", "no"),
}
