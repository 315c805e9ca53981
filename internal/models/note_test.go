package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTagRefs_EmptyEncodesAsArray(t *testing.T) {
	var r TagRefs
	if r.String() != "[]" {
		t.Errorf("nil refs = %q, want []", r.String())
	}
	b, err := json.Marshal(struct {
		Tags TagRefs `json:"tags"`
	}{})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"tags":[]}` {
		t.Errorf("json = %s", b)
	}
}

func TestParseTagRefs_MalformedIsEmpty(t *testing.T) {
	if got := ParseTagRefs("not json"); len(got) != 0 {
		t.Errorf("malformed refs = %v, want empty", got)
	}
	got := ParseTagRefs(`["a","b","a",""]`)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("refs = %v, want [a b]", got)
	}
}

func TestNoteValidate(t *testing.T) {
	n := Note{Title: strings.Repeat("x", MaxTitleLen)}
	if err := n.Validate(); err != nil {
		t.Fatalf("max length title should pass: %v", err)
	}
	n.Title += "x"
	if err := n.Validate(); err == nil {
		t.Error("overlong title should fail")
	}

	daily := Note{IsDailyNote: true}
	if err := daily.Validate(); err == nil {
		t.Error("daily note without date should fail")
	}
	daily.DailyNoteDate = "2024-02-30"
	if err := daily.Validate(); err == nil {
		t.Error("invalid calendar date should fail")
	}
	daily.DailyNoteDate = "2024-02-29"
	if err := daily.Validate(); err != nil {
		t.Errorf("valid daily note: %v", err)
	}

	plain := Note{DailyNoteDate: "2024-01-01"}
	if err := plain.Validate(); err == nil {
		t.Error("date on a non-daily note should fail")
	}
}

func TestTagValidate(t *testing.T) {
	tag := Tag{Name: "work", Color: DefaultColor}
	if err := tag.Validate(); err != nil {
		t.Fatalf("valid tag: %v", err)
	}
	tag.Color = "blue"
	if err := tag.Validate(); err == nil {
		t.Error("non-hex color should fail")
	}
	tag = Tag{Name: strings.Repeat("n", MaxTagNameLen+1), Color: DefaultColor}
	if err := tag.Validate(); err == nil {
		t.Error("overlong name should fail")
	}
}
