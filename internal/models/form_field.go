package models

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// FieldType is the kind of a form field
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRating   FieldType = "rating"
	FieldTypeNumber   FieldType = "number"
	FieldTypeCheckbox FieldType = "checkbox"
)

const (
	minRating = 1
	maxRating = 5
)

// FormField is one entry of an application form
type FormField struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Type      FieldType `json:"type"`
	Required  bool      `json:"required"`
	Options   []string  `json:"options,omitempty"`
	MaxPoints *int      `json:"max_points,omitempty"`
}

// fieldKind holds the per-type behaviour of a form field
type fieldKind interface {
	checkDefinition(f FormField) error
	isEmpty(value string) bool
	checkValue(f FormField, value string) error
}

var fieldKinds = map[FieldType]fieldKind{
	FieldTypeText:     textKind{},
	FieldTypeTextarea: textKind{},
	FieldTypeSelect:   selectKind{},
	FieldTypeRating:   ratingKind{},
	FieldTypeNumber:   numberKind{},
	FieldTypeCheckbox: checkboxKind{},
}

// Valid reports whether t is one of the supported field kinds
func (t FieldType) Valid() bool {
	_, ok := fieldKinds[t]
	return ok
}

// Validate checks the field definition itself
func (f FormField) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return errors.New("field id is required")
	}
	if strings.TrimSpace(f.Label) == "" {
		return fmt.Errorf("field %s: label is required", f.ID)
	}
	kind, ok := fieldKinds[f.Type]
	if !ok {
		return fmt.Errorf("field %s: unknown type %q", f.ID, f.Type)
	}
	if f.MaxPoints != nil && *f.MaxPoints < 0 {
		return fmt.Errorf("field %s: max_points must not be negative", f.ID)
	}
	return kind.checkDefinition(f)
}

// IsEmpty reports whether value counts as no answer for this field
func (f FormField) IsEmpty(value string) bool {
	kind, ok := fieldKinds[f.Type]
	if !ok {
		return strings.TrimSpace(value) == ""
	}
	return kind.isEmpty(value)
}

// ValidateValue checks a non-empty response against the field kind
func (f FormField) ValidateValue(value string) error {
	kind, ok := fieldKinds[f.Type]
	if !ok {
		return fmt.Errorf("unknown field type %q", f.Type)
	}
	return kind.checkValue(f, value)
}

// ScoreBound is the maximum score a reviewer may give on this field
func (f FormField) ScoreBound() int {
	if f.MaxPoints == nil {
		return 0
	}
	return *f.MaxPoints
}

type textKind struct{}

func (textKind) checkDefinition(FormField) error    { return nil }
func (textKind) isEmpty(v string) bool              { return strings.TrimSpace(v) == "" }
func (textKind) checkValue(FormField, string) error { return nil }

type selectKind struct{}

func (selectKind) checkDefinition(f FormField) error {
	if len(f.Options) == 0 {
		return fmt.Errorf("field %s: select requires at least one option", f.ID)
	}
	return nil
}

func (selectKind) isEmpty(v string) bool { return strings.TrimSpace(v) == "" }

func (selectKind) checkValue(f FormField, v string) error {
	if !slices.Contains(f.Options, v) {
		return fmt.Errorf("must be one of: %s", strings.Join(f.Options, ", "))
	}
	return nil
}

type ratingKind struct{}

func (ratingKind) checkDefinition(FormField) error { return nil }
func (ratingKind) isEmpty(v string) bool           { return strings.TrimSpace(v) == "" }

func (ratingKind) checkValue(_ FormField, v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < minRating || n > maxRating {
		return fmt.Errorf("must be a rating between %d and %d", minRating, maxRating)
	}
	return nil
}

type numberKind struct{}

func (numberKind) checkDefinition(FormField) error { return nil }
func (numberKind) isEmpty(v string) bool           { return strings.TrimSpace(v) == "" }

func (numberKind) checkValue(_ FormField, v string) error {
	if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
		return errors.New("must be a number")
	}
	return nil
}

// A required checkbox has to be ticked
type checkboxKind struct{}

func (checkboxKind) checkDefinition(FormField) error { return nil }
func (checkboxKind) isEmpty(v string) bool           { return v != "true" }

func (checkboxKind) checkValue(_ FormField, v string) error {
	if v != "true" && v != "false" {
		return errors.New("must be true or false")
	}
	return nil
}
