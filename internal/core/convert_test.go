package core

import (
	"strings"
	"testing"
)

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "North", want: "North"},
		{name: "surrounding whitespace", input: "  North \t", want: "North"},
		{name: "quoted", input: `"North"`, want: "North"},
		{name: "quoted with inner spaces", input: `" North "`, want: "North"},
		{name: "only one pair stripped", input: `""North""`, want: `"North"`},
		{name: "lone quote kept", input: `"`, want: `"`},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLookupHeader(t *testing.T) {
	for _, h := range CSVHeaders {
		if lookupHeader(h) == nil {
			t.Errorf("export header %q is not recognised on import", h)
		}
		if lookupHeader(strings.ToUpper(h)) == nil {
			t.Errorf("header %q not matched case-insensitively", strings.ToUpper(h))
		}
	}

	if len(CSVHeaders) != len(headerFields) {
		t.Errorf("CSVHeaders has %d columns, dictionary has %d", len(CSVHeaders), len(headerFields))
	}

	for _, h := range []string{"Notes", "", "Customer"} {
		if lookupHeader(h) != nil {
			t.Errorf("lookupHeader(%q) recognised an unknown column", h)
		}
	}
}

func TestHeaderSetters(t *testing.T) {
	var r Record
	lookupHeader("Age")(&r, "35 years")
	lookupHeader("Quantity")(&r, "x")
	lookupHeader("Discount Percentage")(&r, "12.5%")
	lookupHeader(`"Customer Name"`)(&r, "Neha")

	if r.Age == nil || *r.Age != 35 {
		t.Errorf("Age = %v, want 35", r.Age)
	}
	if r.Quantity != 0 {
		t.Errorf("Quantity = %d, want 0 for unparseable cell", r.Quantity)
	}
	if r.DiscountPercentage.String() != "12.5" {
		t.Errorf("DiscountPercentage = %s, want 12.5", r.DiscountPercentage)
	}
	if r.CustomerName != "Neha" {
		t.Errorf("CustomerName = %q, want quoted header to match", r.CustomerName)
	}
}
