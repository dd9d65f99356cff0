package server

import (
	"strings"
	"testing"
)

func TestValidateMystery(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(m *Mystery)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(m *Mystery) {},
		},
		{
			name:    "no suspects",
			mutate:  func(m *Mystery) { m.Suspects = nil },
			wantErr: "no suspects",
		},
		{
			name:    "no evidence",
			mutate:  func(m *Mystery) { m.Evidence = nil },
			wantErr: "no evidence",
		},
		{
			name:    "no rooms",
			mutate:  func(m *Mystery) { m.Rooms = nil },
			wantErr: "no rooms",
		},
		{
			name:    "missing murderer",
			mutate:  func(m *Mystery) { m.Murderer.SuspectID = "" },
			wantErr: "no murderer",
		},
		{
			name:    "murderer not a suspect",
			mutate:  func(m *Mystery) { m.Murderer.SuspectID = "suspect-99" },
			wantErr: "not a suspect",
		},
		{
			name:    "room references unknown evidence",
			mutate:  func(m *Mystery) { m.Rooms[0].Evidence = append(m.Rooms[0].Evidence, "evidence-99") },
			wantErr: "unknown evidence",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mystery := testMystery()
			tc.mutate(mystery)
			err := validateMystery(mystery)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("validateMystery() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("validateMystery() = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidateMysteryNil(t *testing.T) {
	if err := validateMystery(nil); err == nil {
		t.Fatal("validateMystery(nil) = nil, want error")
	}
}

func TestValidateUsername(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Ada", want: "Ada"},
		{in: "  Ada   Lovelace  ", want: "Ada Lovelace"},
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: strings.Repeat("a", maxUsernameLength+1), wantErr: true},
		{in: strings.Repeat("a", maxUsernameLength), want: strings.Repeat("a", maxUsernameLength)},
	}
	for _, tc := range cases {
		got, err := validateUsername(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("validateUsername(%q) = %q, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("validateUsername(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("validateUsername(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
