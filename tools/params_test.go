package tools

import (
	"strings"
	"testing"
)

func TestParamsLookupAliases(t *testing.T) {
	p := Params{"project_description": "solar farm", "Keywords": "a, b;c\nd", "empty": "  "}

	if got := p.String("projectDescription"); got != "solar farm" {
		t.Errorf("String() = %q, want folded-key match", got)
	}
	if got := p.String("empty", "missing"); got != "" {
		t.Errorf("String() = %q, want empty for blank values", got)
	}
	got := p.StringList("keywords")
	want := []string{"a", "b", "c", "d"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("StringList() = %v, want %v", got, want)
	}
}

func TestParamsStringListFromArray(t *testing.T) {
	p := Params{"keywords": []any{" blockchain ", "", "fintech", 42.0}}
	got := p.StringList("keywords")
	if strings.Join(got, "|") != "blockchain|fintech|42" {
		t.Errorf("StringList() = %v", got)
	}
}

func TestParamsBool(t *testing.T) {
	tests := []struct {
		value   any
		want    bool
		wantSet bool
	}{
		{true, true, true},
		{"yes", true, true},
		{"false", false, true},
		{0.0, false, true},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		got, set := Params{"flag": tt.value}.Bool("flag")
		if got != tt.want || set != tt.wantSet {
			t.Errorf("Bool(%v) = (%v, %v), want (%v, %v)", tt.value, got, set, tt.want, tt.wantSet)
		}
	}
	if _, set := (Params{}).Bool("flag"); set {
		t.Error("Bool() on missing key reported set")
	}
}

func TestParamsObjectsWrapsStrings(t *testing.T) {
	p := Params{"calls": []any{"EIC Accelerator", map[string]any{"title": "LIFE"}}}
	objs := p.Objects("opportunities", "calls")
	if len(objs) != 2 {
		t.Fatalf("Objects() len = %d, want 2", len(objs))
	}
	if objs[0].String("description") != "EIC Accelerator" {
		t.Errorf("string item not wrapped: %v", objs[0])
	}
	if objs[1].String("title") != "LIFE" {
		t.Errorf("object item lost: %v", objs[1])
	}
}

func TestFlattenObject(t *testing.T) {
	got := FlattenObject(map[string]any{
		"callTitle": "Green Deal",
		"budget":    map[string]any{"total_amount": 2e6},
		"topics":    []any{"energy", "storage"},
		"empty":     "",
	})
	want := "Budget:\n  Total Amount: 2000000\nCall Title: Green Deal\nTopics:\n  - energy\n  - storage"
	if got != want {
		t.Errorf("FlattenObject() =\n%s\nwant\n%s", got, want)
	}
}

func TestParamsStringFlattensObjects(t *testing.T) {
	p := Params{"call": map[string]any{"title": "Call A"}}
	if got := p.String("call"); got != "Title: Call A" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams([]byte(`{"a":1}`))
	if err != nil || p["a"] != 1.0 {
		t.Fatalf("ParseParams() = %v, %v", p, err)
	}
	if p, err := ParseParams(nil); err != nil || len(p) != 0 {
		t.Errorf("ParseParams(nil) = %v, %v", p, err)
	}
	if _, err := ParseParams([]byte(`{bad`)); err == nil {
		t.Error("ParseParams() accepted invalid JSON")
	}
}
