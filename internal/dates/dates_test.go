package dates

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2024-01-05", want: "2024-01-05"},
		{in: "2024-02-29", want: "2024-02-29"},
		{in: "2023-02-29", wantErr: true},
		{in: "2024-13-01", wantErr: true},
		{in: "2024-1-5", wantErr: true},
		{in: "", wantErr: true},
		{in: "yesterday", wantErr: true},
		{in: "2024-01-05T10:00:00Z", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) = %s, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tt.in, err)
		}
		if got.String() != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNewNormalizes(t *testing.T) {
	if got := New(2024, 1, 32).String(); got != "2024-02-01" {
		t.Errorf("got %s want 2024-02-01", got)
	}
	if got := New(2024, 3, 0).String(); got != "2024-02-29" {
		t.Errorf("got %s want 2024-02-29", got)
	}
}

func TestFromTimeIgnoresClockTime(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	late := time.Date(2024, 3, 10, 23, 59, 0, 0, loc)
	if got := FromTime(late).String(); got != "2024-03-10" {
		t.Errorf("got %s want 2024-03-10", got)
	}
}

func TestAddDaysAcrossBoundaries(t *testing.T) {
	tests := []struct {
		from string
		n    int
		want string
	}{
		{"2023-12-31", 1, "2024-01-01"},
		{"2024-01-01", -1, "2023-12-31"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2023-02-28", 1, "2023-03-01"},
		{"2024-03-31", 1, "2024-04-01"},
		{"2024-01-15", 0, "2024-01-15"},
	}
	for _, tt := range tests {
		if got := MustParse(tt.from).AddDays(tt.n).String(); got != tt.want {
			t.Errorf("%s + %d = %s, want %s", tt.from, tt.n, got, tt.want)
		}
	}
	if got := MustParse("2024-03-01").SubDays(1).String(); got != "2024-02-29" {
		t.Errorf("SubDays got %s", got)
	}
}

func TestAddMonthsClamps(t *testing.T) {
	tests := []struct {
		from string
		n    int
		want string
	}{
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-03-31", -1, "2024-02-29"},
		{"2024-11-15", 2, "2025-01-15"},
		{"2024-01-15", -13, "2022-12-15"},
	}
	for _, tt := range tests {
		if got := MustParse(tt.from).AddMonths(tt.n).String(); got != tt.want {
			t.Errorf("%s + %d months = %s, want %s", tt.from, tt.n, got, tt.want)
		}
	}
}

func TestStartOfWeekIsMonday(t *testing.T) {
	tests := map[string]string{
		"2024-01-01": "2024-01-01", // Monday
		"2024-01-03": "2024-01-01",
		"2024-01-07": "2024-01-01", // Sunday belongs to the week before it
		"2024-01-08": "2024-01-08",
		"2024-03-02": "2024-02-26",
	}
	for in, want := range tests {
		d := MustParse(in)
		if got := d.StartOfWeek().String(); got != want {
			t.Errorf("StartOfWeek(%s) = %s, want %s", in, got, want)
		}
		if got := d.StartOfWeek().Weekday(); got != time.Monday {
			t.Errorf("StartOfWeek(%s) is a %s", in, got)
		}
	}
	if got := MustParse("2024-01-03").EndOfWeek().String(); got != "2024-01-07" {
		t.Errorf("EndOfWeek got %s", got)
	}
}

func TestMonthBounds(t *testing.T) {
	d := MustParse("2024-02-14")
	if got := d.StartOfMonth().String(); got != "2024-02-01" {
		t.Errorf("StartOfMonth got %s", got)
	}
	if got := d.EndOfMonth().String(); got != "2024-02-29" {
		t.Errorf("EndOfMonth got %s", got)
	}
	if got := MustParse("2024-12-03").EndOfMonth().String(); got != "2024-12-31" {
		t.Errorf("EndOfMonth got %s", got)
	}
}

func TestDayDifference(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2024-01-02", "2024-01-01", 1},
		{"2024-01-01", "2024-01-02", -1},
		{"2024-03-31", "2024-03-30", 1}, // DST weekend in Europe
		{"2024-11-04", "2024-11-02", 2}, // DST weekend in the US
		{"2025-01-01", "2024-01-01", 366},
		{"2024-05-05", "2024-05-05", 0},
	}
	for _, tt := range tests {
		if got := DayDifference(MustParse(tt.a), MustParse(tt.b)); got != tt.want {
			t.Errorf("DayDifference(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	a, b := MustParse("2024-01-01"), MustParse("2024-01-02")
	if Compare(a, b) != -1 || Compare(b, a) != 1 || Compare(a, a) != 0 {
		t.Fatal("Compare ordering is wrong")
	}
}

func TestFixedClock(t *testing.T) {
	c := FixedClock{Day: MustParse("2024-01-05")}
	if got := c.Today().String(); got != "2024-01-05" {
		t.Fatalf("got %s", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	in := MustParse("2024-07-01")
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2024-07-01"` {
		t.Fatalf("got %s", b)
	}
	var out Day
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("got %s want %s", out, in)
	}
	if err := json.Unmarshal([]byte(`"2024-02-30"`), &out); err == nil {
		t.Fatal("expected error for impossible date")
	}
}
