package model

import "testing"

func TestResponseStatus(t *testing.T) {
	tests := []struct {
		action string
		status string
		ok     bool
	}{
		{ActionAccept, DemandStatusAccepted, true},
		{ActionReject, DemandStatusRejected, true},
		{"cancel", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		status, ok := ResponseStatus(tt.action)
		if status != tt.status || ok != tt.ok {
			t.Errorf("ResponseStatus(%q) = %q, %v, want %q, %v", tt.action, status, ok, tt.status, tt.ok)
		}
	}
}

func TestTerminal(t *testing.T) {
	if Terminal(DemandStatusOpen) {
		t.Error("open must not be terminal")
	}
	for _, s := range []string{DemandStatusAccepted, DemandStatusRejected, DemandStatusCancelled} {
		if !Terminal(s) {
			t.Errorf("%s must be terminal", s)
		}
	}
}

func TestDemandPatchEmpty(t *testing.T) {
	if !(DemandPatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
	notes := ""
	if (DemandPatch{Notes: &notes}).Empty() {
		t.Error("patch with empty notes present should not be empty")
	}
	if (DemandPatch{ClearDesiredBy: true}).Empty() {
		t.Error("patch clearing desiredBy should not be empty")
	}
}
