package mqtt

import (
	"errors"
	"testing"
)

func TestTopics(t *testing.T) {
	topics := Topics{Site: "site-001"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"system status", topics.SystemStatus(), "acre/site-001/system/status"},
		{"area state", topics.AreaState("1"), "acre/site-001/area/1/state"},
		{"area set", topics.AreaSet("garage"), "acre/site-001/area/garage/set"},
		{"all area states", topics.AllAreaStates(), "acre/site-001/area/+/state"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestParseAreaState(t *testing.T) {
	topics := Topics{Site: "site-001"}

	tests := []struct {
		topic   string
		want    string
		wantErr bool
	}{
		{"acre/site-001/area/1/state", "1", false},
		{"acre/site-001/area/upstairs/state", "upstairs", false},
		{"acre/site-001/area/1/set", "", true},
		{"acre/site-002/area/1/state", "", true},
		{"acre/site-001/area//state", "", true},
		{"acre/site-001/area/a/b/state", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			got, err := topics.ParseAreaState(tt.topic)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTopic) {
					t.Fatalf("ParseAreaState(%q) error = %v, want ErrInvalidTopic", tt.topic, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAreaState(%q) error = %v", tt.topic, err)
			}
			if got != tt.want {
				t.Errorf("ParseAreaState(%q) = %q, want %q", tt.topic, got, tt.want)
			}
		})
	}
}
