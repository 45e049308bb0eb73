package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNew_ServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: DEBUG, Format: JSON, Output: &buf, Service: "availability"})

	log.Component("engine").With("business_id", "biz-1").Debug("slots listed", "count", 3)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not JSON: %v (%s)", err, buf.String())
	}

	want := map[string]any{
		SERVICE:       "availability",
		COMPONENT:     "engine",
		"business_id": "biz-1",
		"msg":         "slots listed",
		"count":       float64(3),
	}
	for k, v := range want {
		if record[k] != v {
			t.Errorf("record[%q] = %v, want %v", k, record[k], v)
		}
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		logged  bool
	}{
		{DEBUG, true},
		{INFO, false},
		{WARN, false},
		{"bogus", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Level: tt.level, Format: TEXT, Output: &buf})
			log.Debug("hidden unless debug")
			if got := buf.Len() > 0; got != tt.logged {
				t.Errorf("debug logged = %v, want %v", got, tt.logged)
			}
		})
	}
}
