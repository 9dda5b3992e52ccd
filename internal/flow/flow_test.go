package flow

import "testing"

func TestFourStepWalk(t *testing.T) {
	c := New(FourStep)
	if c.Current() != Assets || c.Progress() != "Step 1 of 4" || !c.IsFirst() {
		t.Fatalf("unexpected initial state %v %q", c.Current(), c.Progress())
	}

	want := []Step{Liabilities, MonthlyFinancials, Results}
	for _, w := range want {
		got, ok := c.Next()
		if !ok || got != w {
			t.Fatalf("Next = %v, %v; want %v", got, ok, w)
		}
	}
	if _, ok := c.Next(); ok {
		t.Fatalf("Next at Results should be a no-op")
	}
	if c.Current() != Results || !c.IsLast() || c.Progress() != "Step 4 of 4" {
		t.Fatalf("unexpected final state %v", c.Current())
	}

	if got, ok := c.Back(); !ok || got != MonthlyFinancials {
		t.Fatalf("Back = %v, %v", got, ok)
	}
}

func TestBackAtFirstStep(t *testing.T) {
	c := New(FourStep)
	if got, ok := c.Back(); ok || got != Assets {
		t.Fatalf("Back at Assets = %v, %v", got, ok)
	}
}

func TestThreeStepSkipsMonthly(t *testing.T) {
	c := New(ThreeStep)
	c.Next()
	got, _ := c.Next()
	if got != Results || c.Total() != 3 || c.Progress() != "Step 3 of 3" {
		t.Fatalf("unexpected three-step walk: %v %q", got, c.Progress())
	}
}

func TestResetAndTransitions(t *testing.T) {
	c := New(FourStep)
	var moves [][2]Step
	c.OnTransition = func(from, to Step) { moves = append(moves, [2]Step{from, to}) }

	c.Next()
	c.Next()
	c.Back()
	c.Back()
	c.Back() // already at Assets
	c.Next()
	if got := c.Reset(); got != Assets {
		t.Fatalf("Reset = %v", got)
	}
	c.Reset()

	want := [][2]Step{
		{Assets, Liabilities},
		{Liabilities, MonthlyFinancials},
		{MonthlyFinancials, Liabilities},
		{Liabilities, Assets},
		{Assets, Liabilities},
		{Liabilities, Assets},
	}
	if len(moves) != len(want) {
		t.Fatalf("got %d transitions, want %d: %v", len(moves), len(want), moves)
	}
	for i := range want {
		if moves[i] != want[i] {
			t.Fatalf("transition %d = %v, want %v", i, moves[i], want[i])
		}
	}
}

func TestStepLabels(t *testing.T) {
	if MonthlyFinancials.String() != "Monthly Financials" || MonthlyFinancials.Slug() != "monthly" {
		t.Fatalf("unexpected labels")
	}
	if Step(9).Slug() != "" {
		t.Fatalf("unknown step should have no slug")
	}
}
