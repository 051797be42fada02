package analytics

import (
	"testing"
)

func TestRankBranches_ByValue(t *testing.T) {
	dataset := makeDataset(
		makeTx(t, "TX1", "2023-01-10", "BR-A", "C1", 100),
		makeTx(t, "TX2", "2023-01-11", "BR-B", "C1", 250),
		makeTx(t, "TX3", "2023-01-12", "BR-C", "C1", 250),
	)

	entries := RankBranches(dataset, MetricValue)

	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// BR-B and BR-C tie on value; the tie breaks by branch id ascending
	wantOrder := []string{"BR-B", "BR-C", "BR-A"}
	for i, want := range wantOrder {
		if entries[i].BranchID != want {
			t.Errorf("position %d = %s, want %s", i, entries[i].BranchID, want)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("rank at position %d = %d, want %d", i, entries[i].Rank, i+1)
		}
	}
}

func TestRankBranches_ByVolume(t *testing.T) {
	dataset := makeDataset(
		makeTx(t, "TX1", "2023-01-10", "BR1", "C1", 1),
		makeTx(t, "TX2", "2023-01-11", "BR1", "C1", 1),
		makeTx(t, "TX3", "2023-01-12", "BR1", "C1", 1),
		makeTx(t, "TX4", "2023-01-13", "BR2", "C1", 9999),
	)

	entries := RankBranches(dataset, MetricVolume)

	if entries[0].BranchID != "BR1" || entries[0].Transactions != 3 {
		t.Errorf("top entry = %+v, want BR1 with 3 transactions", entries[0])
	}
	if entries[1].BranchID != "BR2" {
		t.Errorf("second entry = %+v, want BR2", entries[1])
	}
}

func TestRankBranches_CarriesBranchNames(t *testing.T) {
	dataset := makeDataset(makeTx(t, "TX1", "2023-01-10", "BR1", "C1", 10))

	entries := RankBranches(dataset, MetricValue)
	if entries[0].BranchName != "Branch BR1" {
		t.Errorf("BranchName = %q, want joined master name", entries[0].BranchName)
	}
}

func TestRankBranches_Empty(t *testing.T) {
	entries := RankBranches(makeDataset(), MetricValue)
	if len(entries) != 0 {
		t.Errorf("got %d entries for an empty dataset, want 0", len(entries))
	}
}

func TestTopN(t *testing.T) {
	dataset := makeDataset(
		makeTx(t, "TX1", "2023-01-10", "BR1", "C1", 30),
		makeTx(t, "TX2", "2023-01-11", "BR2", "C1", 20),
		makeTx(t, "TX3", "2023-01-12", "BR3", "C1", 10),
	)
	entries := RankBranches(dataset, MetricValue)

	tests := []struct {
		name     string
		n        int
		expected int
	}{
		{"Fewer than available", 2, 2},
		{"Exactly available", 3, 3},
		{"More than available", 10, 3},
		{"Zero", 0, 0},
		{"Negative clamps to zero", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(TopN(entries, tt.n)); got != tt.expected {
				t.Errorf("TopN(%d) returned %d entries, want %d", tt.n, got, tt.expected)
			}
		})
	}
}

func TestParseRankingMetric(t *testing.T) {
	tests := []struct {
		input     string
		expected  RankingMetric
		wantError bool
	}{
		{"volume", MetricVolume, false},
		{"value", MetricValue, false},
		{"revenue", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRankingMetric(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseRankingMetric(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if got != tt.expected {
				t.Errorf("ParseRankingMetric(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
