package record

import (
	"testing"
	"time"
)

func TestMergeNewRecordWins(t *testing.T) {
	old := Set{
		"msg-1": {ID: "msg-1", CompanyName: "Acme", ApplicationStatus: StatusApplied},
	}

	merged := Merge(old, []ApplicationRecord{
		{ID: "msg-1", CompanyName: "Acme", ApplicationStatus: StatusInterview},
	})

	if got := merged["msg-1"].ApplicationStatus; got != StatusInterview {
		t.Errorf("got %s, want %s", got, StatusInterview)
	}
	if len(merged) != 1 {
		t.Errorf("got %d records, want 1", len(merged))
	}
}

func TestMergeDedupesWithinBatch(t *testing.T) {
	merged := Merge(Set{}, []ApplicationRecord{
		{ID: "msg-1", ApplicationStatus: StatusApplied},
		{ID: "msg-2", ApplicationStatus: StatusApplied},
		{ID: "msg-1", ApplicationStatus: StatusRejected},
	})

	if len(merged) != 2 {
		t.Fatalf("got %d records, want 2 (distinct ids)", len(merged))
	}
	if got := merged["msg-1"].ApplicationStatus; got != StatusRejected {
		t.Errorf("last record for msg-1 should win: got %s, want %s", got, StatusRejected)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	old := Set{
		"msg-1": {ID: "msg-1", ApplicationStatus: StatusApplied},
	}
	batch := []ApplicationRecord{
		{ID: "msg-1", ApplicationStatus: StatusOffer},
		{ID: "msg-2", ApplicationStatus: StatusApplied},
	}

	Merge(old, batch)

	if old["msg-1"].ApplicationStatus != StatusApplied {
		t.Error("merge mutated the old set")
	}
	if len(old) != 1 {
		t.Errorf("merge grew the old set to %d entries", len(old))
	}
}

func TestMergeKeepsUnrelatedRecords(t *testing.T) {
	now := time.Now()
	old := Set{
		"msg-1": {ID: "msg-1", CompanyName: "Acme", Date: &now},
		"msg-2": {ID: "msg-2", CompanyName: "Globex"},
	}

	merged := Merge(old, []ApplicationRecord{
		{ID: "msg-3", CompanyName: "Initech"},
	})

	if len(merged) != 3 {
		t.Fatalf("got %d records, want 3", len(merged))
	}
	if merged["msg-1"].CompanyName != "Acme" || merged["msg-2"].CompanyName != "Globex" {
		t.Error("existing records should survive a merge untouched")
	}
}

func TestValidStatus(t *testing.T) {
	tests := []struct {
		status string
		valid  bool
	}{
		{"Applied", true},
		{"Application Received", true},
		{"Interview", true},
		{"Rejected", true},
		{"Offer", true},
		{"", false},
		{"applied", false},
		{"Hired", false},
		{"In Progress", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := ValidStatus(tt.status); got != tt.valid {
				t.Errorf("ValidStatus(%q) = %v, want %v", tt.status, got, tt.valid)
			}
		})
	}
}
