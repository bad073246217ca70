package formutil_test

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"github.com/dalemusser/propertyhub/internal/app/system/formutil"
)

func TestDecodeJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"price": 100000, "title": "X"}`))
	p, err := formutil.DecodeJSON(r, 1<<20)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if _, ok := p["price"].(json.Number); !ok {
		t.Errorf("price should decode as json.Number, got %T", p["price"])
	}
	if !p.Has("title") || p.Has("status") {
		t.Error("Has mismatch")
	}

	r = httptest.NewRequest("POST", "/", strings.NewReader(""))
	p, err = formutil.DecodeJSON(r, 1<<20)
	if err != nil || len(p) != 0 {
		t.Errorf("empty body: got %v, %v", p, err)
	}

	r = httptest.NewRequest("POST", "/", strings.NewReader(`[1,2]`))
	if _, err := formutil.DecodeJSON(r, 1<<20); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("array body: got %v, want validation error", err)
	}
}

func TestFloat(t *testing.T) {
	tests := []struct {
		in      any
		want    float64
		wantErr bool
	}{
		{json.Number("120000"), 120000, false},
		{json.Number("12.5"), 12.5, false},
		{"450000", 450000, false},
		{" 99.9 ", 99.9, false},
		{"abc", 0, true},
		{true, 0, true},
		{nil, 0, true},
	}
	for _, tt := range tests {
		got, err := formutil.Float("price", tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Float(%v): err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("Float(%v): got %v, want %v", tt.in, got, tt.want)
		}
		if err != nil && !errors.Is(err, apierr.ErrValidation) {
			t.Errorf("Float(%v): expected validation error, got %v", tt.in, err)
		}
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		in      any
		want    int
		wantErr bool
	}{
		{json.Number("3"), 3, false},
		{json.Number("2.7"), 2, false},
		{"4", 4, false},
		{"2.5", 0, true},
		{"four", 0, true},
		{map[string]any{}, 0, true},
	}
	for _, tt := range tests {
		got, err := formutil.Int("bedrooms", tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Int(%v): err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("Int(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBool(t *testing.T) {
	tests := []struct {
		in      any
		want    bool
		wantErr bool
	}{
		{true, true, false},
		{"false", false, false},
		{"1", true, false},
		{json.Number("0"), false, false},
		{nil, false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		got, err := formutil.Bool("featured", tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Bool(%v): err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Bool(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPlain(t *testing.T) {
	in := map[string]any{"min_beds": json.Number("2"), "cities": []any{"Chicago", json.Number("1.5")}}
	out := formutil.Plain(in).(map[string]any)
	if out["min_beds"] != 2.0 {
		t.Errorf("min_beds: got %#v", out["min_beds"])
	}
	if out["cities"].([]any)[1] != 1.5 {
		t.Errorf("cities[1]: got %#v", out["cities"].([]any)[1])
	}
}
