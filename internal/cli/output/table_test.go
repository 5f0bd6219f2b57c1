package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type holder struct {
	Account string `table:"account"`
	Balance string `table:"balance"`
	Shard   int    `table:"shard,wide"`
	Secret  string `table:"-"`
	hidden  string
}

type name string

func (n name) String() string { return "name:" + string(n) }

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestTableFormatter_Slice(t *testing.T) {
	rows := []holder{
		{Account: "alice", Balance: "1000", Shard: 0, Secret: "x"},
		{Account: "bob", Balance: "250", Shard: 1},
	}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	got := lines(buf.String())
	if len(got) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(got), buf.String())
	}
	if strings.Join(strings.Fields(got[0]), " ") != "ACCOUNT BALANCE" {
		t.Errorf("header = %q", got[0])
	}
	if strings.Join(strings.Fields(got[1]), " ") != "alice 1000" {
		t.Errorf("row = %q", got[1])
	}
	if strings.Contains(got[0], "SECRET") || strings.Contains(got[0], "HIDDEN") {
		t.Error("hidden fields should not be rendered")
	}
}

func TestTableFormatter_SliceWide(t *testing.T) {
	rows := []*holder{{Account: "alice", Balance: "1000", Shard: 1}}

	var buf bytes.Buffer
	if err := (&TableFormatter{Wide: true}).Format(&buf, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	got := lines(buf.String())
	if strings.Join(strings.Fields(got[0]), " ") != "ACCOUNT BALANCE SHARD" {
		t.Errorf("header = %q", got[0])
	}
	if strings.Join(strings.Fields(got[1]), " ") != "alice 1000 1" {
		t.Errorf("row = %q", got[1])
	}
}

func TestTableFormatter_EmptySlice(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, []holder{}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); strings.Join(strings.Fields(got), " ") != "ACCOUNT BALANCE" {
		t.Errorf("Format() = %q, want header only", got)
	}
}

func TestTableFormatter_Struct(t *testing.T) {
	var buf bytes.Buffer
	err := (&TableFormatter{NoHeaders: true}).Format(&buf, holder{Account: "carol", Balance: "7"})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	got := lines(buf.String())
	if len(got) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(got), buf.String())
	}
	if strings.Join(strings.Fields(got[0]), " ") != "ACCOUNT carol" {
		t.Errorf("line = %q", got[0])
	}
}

func TestTableFormatter_Table(t *testing.T) {
	table := &Table{}
	table.SetHeaders("ID", "SIZE")
	table.AddRow("01J", "120")

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, table); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "01J") {
		t.Errorf("Format() = %q", buf.String())
	}

	buf.Reset()
	if err := (&TableFormatter{}).Format(&buf, nil); err != nil || buf.Len() != 0 {
		t.Errorf("Format(nil) = %q, %v", buf.String(), err)
	}
}

func TestTableFormatter_FallbackToJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, 42); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "42" {
		t.Errorf("Format() = %q, want JSON fallback", buf.String())
	}
}

func TestFormatValue(t *testing.T) {
	var nilName *name
	n := name("x")
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	tests := []struct {
		label string
		in    any
		want  string
	}{
		{"string", "abc", "abc"},
		{"empty string", "", "-"},
		{"int", 42, "42"},
		{"bool", true, "yes"},
		{"float", 1.5, "1.50"},
		{"stringer", n, "name:x"},
		{"pointer to stringer", &n, "name:x"},
		{"nil pointer", nilName, "-"},
		{"time", ts, "2026-03-04 05:06:07"},
		{"zero time", time.Time{}, "-"},
		{"slice", []int{1, 2}, "[2 items]"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			type wrap struct{ V any }
			var buf bytes.Buffer
			(&TableFormatter{NoHeaders: true}).Format(&buf, wrap{V: tt.in})
			got := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(buf.String()), "V"))
			if got != tt.want {
				t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Account":     "account",
		"TotalSupply": "total_supply",
		"ID":          "i_d",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
