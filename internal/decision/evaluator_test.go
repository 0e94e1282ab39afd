package decision

import (
	"errors"
	"strings"
	"testing"
)

func goInput() DecisionInput {
	return DecisionInput{
		ProductID:            "SKU-1",
		DiscountPct:          -10,
		ComparisonID:         "cmp-10",
		ActualUnits:          150,
		ActualRevenue:        1350, // +35% vs baseline
		LowerUnits:           140,
		LowerRevenue:         1260, // +40% vs lower baseline
		HigherRevenue:        1400,
		BaselineUnits:        100,
		BaselineRevenue:      1000,
		BaselineLowerRevenue: 900,
		ClampedDays:          0,
		DayCount:             30,
	}
}

func TestEvaluate_GO(t *testing.T) {
	result, err := NewEvaluator().Evaluate(goInput())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if result.Decision != DecisionGO {
		t.Errorf("Expected GO, got %s", result.Decision)
	}
	if len(result.GOCriteria) != 4 || len(result.NOGOChecks) != 3 {
		t.Fatalf("Expected 4 criteria and 3 triggers, got %d/%d", len(result.GOCriteria), len(result.NOGOChecks))
	}
	for i, c := range result.GOCriteria {
		if !c.Pass {
			t.Errorf("GO criterion %d (%s) should pass, got fail", i+1, c.Name)
		}
	}
	for i, c := range result.NOGOChecks {
		if !c.Pass {
			t.Errorf("NO-GO trigger %d (%s) should not be triggered", i+1, c.Name)
		}
	}
	if result.GOCriteria[0].Actual != "+35.00%" {
		t.Errorf("Expected uplift +35.00%%, got %s", result.GOCriteria[0].Actual)
	}
}

func TestEvaluate_NOGO_RevenueLoss(t *testing.T) {
	input := goInput()
	input.DiscountPct = 10
	input.ActualUnits = 60
	input.ActualRevenue = 660

	result, err := NewEvaluator().Evaluate(input)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if result.Decision != DecisionNOGO {
		t.Errorf("Expected NO-GO, got %s", result.Decision)
	}
	if result.GOCriteria[0].Pass || result.GOCriteria[1].Pass {
		t.Error("Uplift and units criteria should fail")
	}
	if result.NOGOChecks[0].Pass {
		t.Error("Revenue loss trigger should fire")
	}
}

func TestEvaluate_NOGO_GainDisappearsUnderCompetition(t *testing.T) {
	input := goInput()
	input.LowerRevenue = 850 // below the lower-scenario baseline

	result, err := NewEvaluator().Evaluate(input)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if result.Decision != DecisionNOGO {
		t.Errorf("Expected NO-GO, got %s", result.Decision)
	}
	if result.GOCriteria[2].Pass {
		t.Error("Robustness criterion should fail")
	}
	if result.NOGOChecks[1].Pass {
		t.Error("Gain-disappears trigger should fire")
	}
}

func TestEvaluate_NOGO_Clamping(t *testing.T) {
	input := goInput()
	input.ClampedDays = 5 // 16.7%: fails GO, below the NO-GO trigger

	result, err := NewEvaluator().Evaluate(input)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.Decision != DecisionNOGO {
		t.Errorf("Expected NO-GO, got %s", result.Decision)
	}
	if result.GOCriteria[3].Pass {
		t.Error("Model range criterion should fail")
	}
	if !result.NOGOChecks[2].Pass {
		t.Error("Clamping trigger should not fire at 5/30")
	}

	input.ClampedDays = 10
	result, _ = NewEvaluator().Evaluate(input)
	if result.NOGOChecks[2].Pass {
		t.Error("Clamping trigger should fire at 10/30")
	}
}

func TestEvaluate_InvalidInput(t *testing.T) {
	input := goInput()
	input.BaselineRevenue = 0

	_, err := NewEvaluator().Evaluate(input)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	input = goInput()
	input.DayCount = 0
	if _, err := NewEvaluator().Evaluate(input); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero days, got %v", err)
	}
}

func TestRecommend(t *testing.T) {
	mk := func(discount, revenue float64, d Decision) *DecisionResult {
		in := goInput()
		in.DiscountPct = discount
		in.ActualRevenue = revenue
		return &DecisionResult{Input: in, Decision: d}
	}

	results := []*DecisionResult{
		mk(-30, 2000, DecisionNOGO), // best revenue but failed the gate
		mk(-20, 1600, DecisionGO),
		mk(-10, 1600, DecisionGO), // tie, smaller discount wins
		mk(-5, 1100, DecisionGO),
	}

	best := Recommend(results)
	if best == nil || best.Input.DiscountPct != -10 {
		t.Fatalf("Expected -10 recommended, got %+v", best)
	}

	if Recommend([]*DecisionResult{mk(-30, 2000, DecisionNOGO)}) != nil {
		t.Error("Expected no recommendation when nothing passed")
	}
}

func TestRenderMarkdown(t *testing.T) {
	ev := NewEvaluator()
	good, _ := ev.Evaluate(goInput())
	badInput := goInput()
	badInput.DiscountPct = 10
	badInput.ActualRevenue = 660
	bad, _ := ev.Evaluate(badInput)

	report := &Report{ProductID: "SKU-1", Results: []*DecisionResult{good, bad}, Recommended: good}
	md := RenderMarkdown(report)

	for _, want := range []string{
		"# Discount Decision Report",
		"| -10% | 150.0 | 1350.00 | +35.00% | +40.00% | GO |",
		"## Discount +10%: NO-GO",
		"GO Criteria: 4/4 passed",
		"NO-GO Triggers: 1/3 triggered",
		"Recommended discount: -10% (revenue uplift +35.00%, comparison cmp-10).",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q", want)
		}
	}

	report.Recommended = nil
	if !strings.Contains(RenderMarkdown(report), "keep the base price") {
		t.Error("Expected keep-base-price summary")
	}
}
