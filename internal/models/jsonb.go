package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// scanJSON decodes a jsonb column into dst
func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported type %T for jsonb column", src)
	}
}

// jsonValue encodes v for a jsonb column, writing empty for nil
func jsonValue(v any, isNil bool, empty string) (driver.Value, error) {
	if isNil {
		return empty, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Answers is the ordered answer list stored on a competition participation
type Answers []Answer

// Value implements driver.Valuer
func (a Answers) Value() (driver.Value, error) { return jsonValue([]Answer(a), a == nil, "[]") }

// Scan implements sql.Scanner
func (a *Answers) Scan(src any) error { return scanJSON(src, (*[]Answer)(a)) }

// FormFields is the ordered field list of an application form
type FormFields []FormField

// Value implements driver.Valuer
func (f FormFields) Value() (driver.Value, error) { return jsonValue([]FormField(f), f == nil, "[]") }

// Scan implements sql.Scanner
func (f *FormFields) Scan(src any) error { return scanJSON(src, (*[]FormField)(f)) }

// FieldResponses is the ordered response list of an application
type FieldResponses []FieldResponse

// Value implements driver.Valuer
func (r FieldResponses) Value() (driver.Value, error) {
	return jsonValue([]FieldResponse(r), r == nil, "[]")
}

// Scan implements sql.Scanner
func (r *FieldResponses) Scan(src any) error { return scanJSON(src, (*[]FieldResponse)(r)) }

// QuizAnswers is the answer list stored on a quiz attempt
type QuizAnswers []QuizAnswer

// Value implements driver.Valuer
func (q QuizAnswers) Value() (driver.Value, error) { return jsonValue([]QuizAnswer(q), q == nil, "[]") }

// Scan implements sql.Scanner
func (q *QuizAnswers) Scan(src any) error { return scanJSON(src, (*[]QuizAnswer)(q)) }

// Details is the free-form payload of an activity log entry
type Details map[string]any

// Value implements driver.Valuer
func (d Details) Value() (driver.Value, error) { return jsonValue(map[string]any(d), d == nil, "{}") }

// Scan implements sql.Scanner
func (d *Details) Scan(src any) error { return scanJSON(src, (*map[string]any)(d)) }
