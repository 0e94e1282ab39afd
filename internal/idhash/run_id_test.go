package idhash

import (
	"testing"
)

func TestComputeRunID(t *testing.T) {
	got := ComputeRunID("p1", "actual", 10, "units-linear", "v3", "")

	if len(got) != 64 {
		t.Errorf("ComputeRunID() length = %d, want 64", len(got))
	}
	if again := ComputeRunID("p1", "actual", 10, "units-linear", "v3", ""); again != got {
		t.Errorf("ComputeRunID() not deterministic: %s vs %s", got, again)
	}
}

func TestComputeRunID_DistinctInputs(t *testing.T) {
	base := ComputeRunID("p1", "actual", 10, "m", "1", "")

	variants := map[string]string{
		"product":     ComputeRunID("p2", "actual", 10, "m", "1", ""),
		"competition": ComputeRunID("p1", "lower", 10, "m", "1", ""),
		"discount":    ComputeRunID("p1", "actual", 10.5, "m", "1", ""),
		"model":       ComputeRunID("p1", "actual", 10, "n", "1", ""),
		"version":     ComputeRunID("p1", "actual", 10, "m", "2", ""),
		"comparison":  ComputeRunID("p1", "actual", 10, "m", "1", "cmp"),
	}
	for name, id := range variants {
		if id == base {
			t.Errorf("changing %s did not change the run id", name)
		}
	}
}

func TestComputeRunID_NegativeZero(t *testing.T) {
	negZero := -1 * 0.0
	if ComputeRunID("p1", "actual", negZero, "m", "1", "") != ComputeRunID("p1", "actual", 0, "m", "1", "") {
		t.Error("-0 and 0 discounts must hash alike")
	}
}

func TestComputeComparisonID(t *testing.T) {
	all := []string{"actual", "lower", "higher"}
	a := ComputeComparisonID("p1", -20, "m", "1", all)
	b := ComputeComparisonID("p1", -20, "m", "1", all)
	c := ComputeComparisonID("p1", -20, "m", "1", []string{"actual", "lower"})

	if a != b {
		t.Errorf("ComputeComparisonID() not deterministic")
	}
	if a == c {
		t.Errorf("scenario set must be part of the comparison id")
	}
	if a == ComputeRunID("p1", "actual", -20, "m", "1", "") {
		t.Errorf("comparison id must differ from run id")
	}
}

func TestComputeRunID_SubMicroDiscounts(t *testing.T) {
	a := ComputeRunID("p1", "actual", 10, "m", "1", "")
	b := ComputeRunID("p1", "actual", 10+1e-9, "m", "1", "")
	if a == b {
		t.Error("discounts differing below 1e-6 must hash differently")
	}

	c := ComputeComparisonID("p1", 10, "m", "1", []string{"actual"})
	d := ComputeComparisonID("p1", 10.0000001, "m", "1", []string{"actual"})
	if c == d {
		t.Error("comparison ids must keep full discount precision")
	}
}
