package stream

import (
	"testing"
)

func TestClassifyWelcome(t *testing.T) {
	raw := `{"type":"welcome","message":"Connected to NTP Time Stream","update_interval_ms":500,"max_duration_secs":300}`

	msg := Classify([]byte(raw))
	welcome, ok := msg.(Welcome)
	if !ok {
		t.Fatalf("Classify() = %T, want Welcome", msg)
	}
	if welcome.Text != "Connected to NTP Time Stream" {
		t.Errorf("Text = %q", welcome.Text)
	}
	if welcome.UpdateIntervalMS != 500 {
		t.Errorf("UpdateIntervalMS = %d, want 500", welcome.UpdateIntervalMS)
	}
	if welcome.MaxDurationSecs != 300 {
		t.Errorf("MaxDurationSecs = %d, want 300", welcome.MaxDurationSecs)
	}
}

func TestClassifyWelcomeMissingFields(t *testing.T) {
	msg := Classify([]byte(`{"type":"welcome"}`))
	welcome, ok := msg.(Welcome)
	if !ok {
		t.Fatalf("Classify() = %T, want Welcome", msg)
	}
	if welcome.Text != "" || welcome.UpdateIntervalMS != 0 || welcome.MaxDurationSecs != 0 {
		t.Errorf("missing fields should default to zero values, got %+v", welcome)
	}
}

func TestClassifyTick(t *testing.T) {
	raw := `{"type":"tick","epoch_ms":1700000000000,"iso8601":"2023-11-14T22:13:20Z","sequence":42,"is_stale":true,"staleness_secs":1.5}`

	msg := Classify([]byte(raw))
	tick, ok := msg.(Tick)
	if !ok {
		t.Fatalf("Classify() = %T, want Tick", msg)
	}
	if tick.EpochMS == nil || *tick.EpochMS != 1700000000000 {
		t.Errorf("EpochMS = %v, want 1700000000000", tick.EpochMS)
	}
	if tick.ISO8601 != "2023-11-14T22:13:20Z" {
		t.Errorf("ISO8601 = %q", tick.ISO8601)
	}
	if tick.Sequence != 42 {
		t.Errorf("Sequence = %d, want 42", tick.Sequence)
	}
	if !tick.IsStale {
		t.Error("IsStale = false, want true")
	}
	if tick.StalenessSecs != 1.5 {
		t.Errorf("StalenessSecs = %g, want 1.5", tick.StalenessSecs)
	}
}

func TestClassifyTickMissingEpochDistinctFromZero(t *testing.T) {
	missing := Classify([]byte(`{"type":"tick","sequence":1}`))
	tick, ok := missing.(Tick)
	if !ok {
		t.Fatalf("Classify() = %T, want Tick", missing)
	}
	if tick.EpochMS != nil {
		t.Errorf("EpochMS = %v, want nil for absent field", tick.EpochMS)
	}

	zero := Classify([]byte(`{"type":"tick","epoch_ms":0,"sequence":1}`))
	tick, ok = zero.(Tick)
	if !ok {
		t.Fatalf("Classify() = %T, want Tick", zero)
	}
	if tick.EpochMS == nil || *tick.EpochMS != 0 {
		t.Errorf("EpochMS = %v, want present zero", tick.EpochMS)
	}
}

func TestClassifyTickDefaults(t *testing.T) {
	msg := Classify([]byte(`{"type":"tick"}`))
	tick, ok := msg.(Tick)
	if !ok {
		t.Fatalf("Classify() = %T, want Tick", msg)
	}
	if tick.Sequence != 0 || tick.IsStale || tick.StalenessSecs != 0 {
		t.Errorf("defaults not applied: %+v", tick)
	}
}

func TestClassifyServerError(t *testing.T) {
	msg := Classify([]byte(`{"type":"error","message":"sync lost"}`))
	serverErr, ok := msg.(ServerError)
	if !ok {
		t.Fatalf("Classify() = %T, want ServerError", msg)
	}
	if serverErr.Text != "sync lost" {
		t.Errorf("Text = %q, want %q", serverErr.Text, "sync lost")
	}
}

func TestClassifyUnknownType(t *testing.T) {
	msg := Classify([]byte(`{"type":"heartbeat"}`))
	unknown, ok := msg.(Unknown)
	if !ok {
		t.Fatalf("Classify() = %T, want Unknown", msg)
	}
	if unknown.RawType != "heartbeat" {
		t.Errorf("RawType = %q, want %q", unknown.RawType, "heartbeat")
	}
}

func TestClassifyMissingTypeField(t *testing.T) {
	msg := Classify([]byte(`{"message":"hello"}`))
	unknown, ok := msg.(Unknown)
	if !ok {
		t.Fatalf("Classify() = %T, want Unknown", msg)
	}
	if unknown.RawType != "unknown" {
		t.Errorf("RawType = %q, want %q", unknown.RawType, "unknown")
	}
}

func TestClassifyMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"truncated object", `{not valid`},
		{"empty input", ``},
		{"bare scalar", `5`},
		{"bare string", `"tick"`},
		{"wrong field type", `{"type":"tick","epoch_ms":"soon"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Classify([]byte(tt.raw))
			malformed, ok := msg.(Malformed)
			if !ok {
				t.Fatalf("Classify(%q) = %T, want Malformed", tt.raw, msg)
			}
			if malformed.Raw != tt.raw {
				t.Errorf("Raw = %q, want original input %q", malformed.Raw, tt.raw)
			}
		})
	}
}

func TestCountsAddAndTotal(t *testing.T) {
	var counts Counts
	frames := []Message{
		Welcome{},
		Tick{}, Tick{}, Tick{},
		ServerError{},
		Unknown{RawType: "x"},
		Malformed{Raw: "{"},
	}
	for _, f := range frames {
		counts.Add(f)
	}

	if counts.Welcome != 1 || counts.Tick != 3 || counts.Error != 1 || counts.Unknown != 1 || counts.Malformed != 1 {
		t.Errorf("unexpected tallies: %+v", counts)
	}
	if got := counts.Total(); got != int64(len(frames)) {
		t.Errorf("Total() = %d, want %d", got, len(frames))
	}
}

func TestCountsMerge(t *testing.T) {
	a := Counts{Welcome: 1, Tick: 4, Malformed: 1}
	b := Counts{Tick: 2, Error: 1, Unknown: 3}
	a.Merge(b)

	want := Counts{Welcome: 1, Tick: 6, Error: 1, Unknown: 3, Malformed: 1}
	if a != want {
		t.Errorf("Merge() = %+v, want %+v", a, want)
	}
}
