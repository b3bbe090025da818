package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestAnswers_ValueScan(t *testing.T) {
	var nilAnswers Answers
	v, err := nilAnswers.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if v != "[]" {
		t.Errorf("nil answers should be stored as [], got %v", v)
	}

	qid := uuid.New()
	in := Answers{{QuestionID: qid, Answer: "B", Score: 2, MaxScore: 3}}
	v, err = in.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	var out Answers
	if err := out.Scan([]byte(v.(string))); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(out) != 1 || out[0].QuestionID != qid || out[0].Score != 2 {
		t.Errorf("unexpected scanned answers: %+v", out)
	}
}

func TestDetails_Scan(t *testing.T) {
	var d Details
	if err := d.Scan(`{"agent":"Smith","old":null}`); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if d["agent"] != "Smith" {
		t.Errorf("unexpected details: %v", d)
	}

	if err := d.Scan(42); err == nil {
		t.Error("expected error for unsupported source type")
	}
}
