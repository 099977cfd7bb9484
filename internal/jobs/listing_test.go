package jobs

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		expect Amount
	}{
		{input: "$130,000", expect: 130000},
		{input: " 95000 ", expect: 95000},
		{input: "120k", expect: 120000},
		{input: "$1,250.50", expect: 1250.5},
		{input: "competitive", expect: 0},
		{input: "", expect: 0},
		{input: "-5", expect: 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := ParseAmount(tt.input); got != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestDecodeNormalizesSalary(t *testing.T) {
	raw := map[string]any{
		"title":       "Senior Go Engineer",
		"company":     "Acme",
		"location":    "Remote",
		"description": "Build things",
		"salary": map[string]any{
			"min":      "$130,000",
			"max":      float64(180000),
			"currency": "USD",
		},
	}

	listing, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !listing.Salary.Known() {
		t.Fatalf("expected salary to be known")
	}

	lo, hi := listing.Salary.Range()
	if lo != 130000 || hi != 180000 {
		t.Fatalf("unexpected range %v-%v", lo, hi)
	}

	if listing.Salary.Currency != "USD" {
		t.Fatalf("unexpected currency %q", listing.Salary.Currency)
	}
}

func TestDecodeDropsUnusableSalary(t *testing.T) {
	listing, err := Decode(map[string]any{
		"title":  "Engineer",
		"salary": map[string]any{"min": "DOE", "max": ""},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if listing.Salary != nil {
		t.Fatalf("expected salary to be dropped, got %+v", listing.Salary)
	}
	if listing.Location != "" {
		t.Fatalf("expected empty location default, got %q", listing.Location)
	}
}

func TestSalaryRangeWithSingleBound(t *testing.T) {
	s := &Salary{Min: 100000}
	if lo, hi := s.Range(); lo != 100000 || hi != 100000 {
		t.Fatalf("expected min used for both bounds, got %v-%v", lo, hi)
	}

	s = &Salary{Max: 90000}
	if lo, hi := s.Range(); lo != 90000 || hi != 90000 {
		t.Fatalf("expected max used for both bounds, got %v-%v", lo, hi)
	}

	var missing *Salary
	if missing.Known() {
		t.Fatalf("nil salary must not be known")
	}
}

func TestDecodeSalaryText(t *testing.T) {
	tests := []struct {
		name     string
		salary   any
		wantNil  bool
		wantLo   float64
		wantHi   float64
		currency string
	}{
		{name: "symbol range", salary: "$120k - $150k", wantLo: 120000, wantHi: 150000, currency: "USD"},
		{name: "code suffix", salary: "90,000 to 110,000 EUR", wantLo: 90000, wantHi: 110000, currency: "EUR"},
		{name: "en dash", salary: "£50000–£60000", wantLo: 50000, wantHi: 60000, currency: "GBP"},
		{name: "single figure", salary: 140000, wantLo: 140000, wantHi: 140000},
		{name: "words only", salary: "Competitive", wantNil: true},
		{name: "list", salary: []any{"a", "b"}, wantNil: true},
		{name: "boolean", salary: true, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing, err := Decode(map[string]any{"title": "Engineer", "salary": tt.salary})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.wantNil {
				if listing.Salary != nil {
					t.Fatalf("expected unknown salary, got %+v", listing.Salary)
				}
				return
			}

			if listing.Salary == nil {
				t.Fatalf("expected salary")
			}
			if lo, hi := listing.Salary.Range(); lo != tt.wantLo || hi != tt.wantHi {
				t.Fatalf("expected %v-%v, got %v-%v", tt.wantLo, tt.wantHi, lo, hi)
			}
			if listing.Salary.Currency != tt.currency {
				t.Fatalf("expected currency %q, got %q", tt.currency, listing.Salary.Currency)
			}
		})
	}
}

func TestListingValidate(t *testing.T) {
	tests := []struct {
		name    string
		listing Listing
		wantErr bool
	}{
		{name: "complete", listing: Listing{Title: "Engineer", Description: "Go services"}},
		{name: "no location is fine", listing: Listing{Title: "Engineer", Description: "Go", Location: ""}},
		{name: "empty", listing: Listing{}, wantErr: true},
		{name: "blank title", listing: Listing{Title: "  ", Description: "Go"}, wantErr: true},
		{name: "no description", listing: Listing{Title: "Engineer"}, wantErr: true},
	}

	for _, tt := range tests {
		err := tt.listing.Validate()
		if tt.wantErr && !errors.Is(err, ErrInvalidListing) {
			t.Fatalf("%s: expected ErrInvalidListing, got %v", tt.name, err)
		}
		if !tt.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
	}
}
