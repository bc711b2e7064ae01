package duration

import "testing"

func TestParseToMinutes(t *testing.T) {
	tests := []struct {
		text   string
		want   float64
		wantOK bool
	}{
		{"1 - 2 hours", 90, true},
		{"30 - 60 minutes", 45, true},
		{"2 days", 2880, true},
		{"1.5 hours", 90, true},
		{"4-6 Hours", 300, true},
		{"45", 45, true},
		{"", 0, false},
		{"a while", 0, false},
		{"1-2 hours, up to 3 days", 120, true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseToMinutes(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ParseToMinutes(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseToMinutes(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseOptionalNil(t *testing.T) {
	if _, ok := ParseOptional(nil); ok {
		t.Error("nil text must not parse")
	}
	empty := ""
	if _, ok := ParseOptional(&empty); ok {
		t.Error("empty text must not parse")
	}
	text := "1 - 2 hours"
	if got, ok := ParseOptional(&text); !ok || got != 90 {
		t.Errorf("ParseOptional = %v, %v", got, ok)
	}
}

func TestRangeAndMidpointAgree(t *testing.T) {
	a, _ := ParseToMinutes("1 - 2 hours")
	b, _ := ParseToMinutes("1.5 hours")
	if a != b {
		t.Errorf("range %v and midpoint %v differ", a, b)
	}
}

func TestBuildTimeline(t *testing.T) {
	tl := BuildTimeline([]PhaseInput{
		{Name: "onset", Text: "30 - 60 minutes"},
		{Name: "duration", Text: "4 - 6 hours"},
		{Name: "after_effects", Text: "unknown"},
	})

	if len(tl.Phases) != 3 {
		t.Fatalf("got %d phases, want 3", len(tl.Phases))
	}
	if tl.TotalMinutes != 345 {
		t.Errorf("TotalMinutes = %v, want 345", tl.TotalMinutes)
	}
	if tl.Phases[0].Percent == nil || *tl.Phases[0].Percent != 13 {
		t.Errorf("onset percent = %v, want 13", tl.Phases[0].Percent)
	}
	if tl.Phases[1].Percent == nil || *tl.Phases[1].Percent != 87 {
		t.Errorf("duration percent = %v, want 87", tl.Phases[1].Percent)
	}
	if tl.Phases[2].Minutes != nil || tl.Phases[2].Percent != nil {
		t.Error("unparsed phase must carry no minutes or percent")
	}
}

func TestBuildTimelineNothingParsed(t *testing.T) {
	tl := BuildTimeline([]PhaseInput{{Name: "onset", Text: ""}})
	if tl.TotalMinutes != 0 || tl.Phases[0].Percent != nil {
		t.Errorf("unexpected timeline %+v", tl)
	}
}
