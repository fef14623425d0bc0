// Package batch validates one submitted prediction batch before any numeric
// work happens.
package batch

import (
	"strconv"
	"strings"

	"github.com/okian/salaryd/internal/domain/category"
	"github.com/okian/salaryd/internal/domain/experience"
)

// Limits applied to every batch.
const (
	MaxSize       = 100
	MaxExperience = 50.0
)

// Field names used in validation errors.
const (
	FieldExperience = "years_experience"
	FieldCity       = "city"
	FieldJobLevel   = "job_level"
)

// Candidate is one person in a batch.
type Candidate struct {
	// Raw is the experience literal as the caller wrote it.
	Raw string
	// Value is Raw parsed as a float, kept for audit.
	Value    float64
	City     string
	JobLevel string
}

// Batch is a validated, normalized set of candidates.
type Batch struct {
	Candidates  []Candidate
	HasCity     bool
	HasJobLevel bool
}

// Len returns the number of candidates.
func (b Batch) Len() int { return len(b.Candidates) }

// Validator checks batches against the configured enumerations.
type Validator struct {
	Cities    category.Enumeration
	JobLevels category.Enumeration
}

// NewValidator builds a Validator over the given enumerations.
func NewValidator(cities, jobLevels category.Enumeration) *Validator {
	return &Validator{Cities: cities, JobLevels: jobLevels}
}

// Validate checks raw experience literals plus optional city and job level
// lists. A nil list means the field was not supplied.
func (v *Validator) Validate(raw []string, cities, jobLevels []string) (Batch, error) {
	if len(raw) == 0 {
		return Batch{}, &Error{Kind: ErrEmptyBatch, Field: FieldExperience, Index: -1}
	}
	if len(raw) > MaxSize {
		return Batch{}, &Error{Kind: ErrBatchTooLarge, Field: FieldExperience, Index: -1,
			Value: "at most " + strconv.Itoa(MaxSize) + " values, got " + strconv.Itoa(len(raw))}
	}
	if err := sameLength(len(raw), FieldCity, cities); err != nil {
		return Batch{}, err
	}
	if err := sameLength(len(raw), FieldJobLevel, jobLevels); err != nil {
		return Batch{}, err
	}

	b := Batch{
		Candidates:  make([]Candidate, len(raw)),
		HasCity:     cities != nil,
		HasJobLevel: jobLevels != nil,
	}
	for i, text := range raw {
		c, err := checkExperience(i, text)
		if err != nil {
			return Batch{}, err
		}
		if b.HasCity {
			if c.City, err = checkCategory(v.Cities, FieldCity, i, cities[i]); err != nil {
				return Batch{}, err
			}
		}
		if b.HasJobLevel {
			if c.JobLevel, err = checkCategory(v.JobLevels, FieldJobLevel, i, jobLevels[i]); err != nil {
				return Batch{}, err
			}
		}
		b.Candidates[i] = c
	}
	return b, nil
}

// ValidateFloats is Validate for callers holding floats instead of literals.
// Each float is rendered with its shortest representation.
func (v *Validator) ValidateFloats(raw []float64, cities, jobLevels []string) (Batch, error) {
	var texts []string
	if raw != nil {
		texts = make([]string, len(raw))
		for i, f := range raw {
			texts[i] = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return v.Validate(texts, cities, jobLevels)
}

func sameLength(want int, field string, values []string) error {
	if values == nil || len(values) == want {
		return nil
	}
	return &Error{Kind: ErrLengthMismatch, Field: field, Index: -1,
		Value: "expected " + strconv.Itoa(want) + " values to match " + FieldExperience + ", got " + strconv.Itoa(len(values))}
}

func checkExperience(i int, text string) (Candidate, error) {
	text = strings.TrimSpace(text)
	if _, err := experience.DecodeLiteral(text); err != nil {
		return Candidate{}, &Error{Kind: experience.ErrInvalidFormat, Field: FieldExperience, Index: i, Value: text, cause: err}
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Candidate{}, &Error{Kind: experience.ErrInvalidFormat, Field: FieldExperience, Index: i, Value: text, cause: err}
	}
	if value > MaxExperience {
		return Candidate{}, &Error{Kind: ErrOutOfRange, Field: FieldExperience, Index: i,
			Value: text + " exceeds " + strconv.FormatFloat(MaxExperience, 'f', -1, 64) + " years"}
	}
	return Candidate{Raw: text, Value: value}, nil
}

func checkCategory(e category.Enumeration, field string, i int, value string) (string, error) {
	n := category.Normalize(value)
	if !e.Contains(n) {
		return "", &Error{Kind: ErrUnknownCategory, Field: field, Index: i, Value: value}
	}
	return n, nil
}
