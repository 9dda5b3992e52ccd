// Package flow sequences the calculator steps. Only adjacent moves are
// allowed; there is no jumping between steps.
package flow

import "fmt"

// Step is one page of the calculator.
type Step int

const (
	Assets Step = iota
	Liabilities
	MonthlyFinancials
	Results
)

func (s Step) String() string {
	switch s {
	case Assets:
		return "Assets"
	case Liabilities:
		return "Liabilities"
	case MonthlyFinancials:
		return "Monthly Financials"
	case Results:
		return "Results"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Slug returns the machine name of the step.
func (s Step) Slug() string {
	switch s {
	case Assets:
		return "assets"
	case Liabilities:
		return "liabilities"
	case MonthlyFinancials:
		return "monthly"
	case Results:
		return "results"
	default:
		return ""
	}
}

// Variant selects the step sequence.
type Variant int

const (
	// FourStep visits every step.
	FourStep Variant = iota
	// ThreeStep skips the monthly step.
	ThreeStep
)

// Steps returns the sequence for v.
func (v Variant) Steps() []Step {
	if v == ThreeStep {
		return []Step{Assets, Liabilities, Results}
	}
	return []Step{Assets, Liabilities, MonthlyFinancials, Results}
}

// Controller tracks the current step. It is not safe for concurrent use;
// the UI goroutine owns it.
type Controller struct {
	steps []Step
	idx   int

	// OnTransition, when set, runs after every effective move.
	OnTransition func(from, to Step)
}

// New returns a controller positioned on the first step.
func New(v Variant) *Controller {
	return &Controller{steps: v.Steps()}
}

func (c *Controller) Current() Step { return c.steps[c.idx] }

// Index is the zero-based position of the current step.
func (c *Controller) Index() int { return c.idx }

func (c *Controller) Total() int { return len(c.steps) }

func (c *Controller) IsFirst() bool { return c.idx == 0 }

func (c *Controller) IsLast() bool { return c.idx == len(c.steps)-1 }

// Steps returns a copy of the sequence.
func (c *Controller) Steps() []Step { return append([]Step(nil), c.steps...) }

// Progress renders "Step n of m".
func (c *Controller) Progress() string {
	return fmt.Sprintf("Step %d of %d", c.idx+1, len(c.steps))
}

// Next advances one step. At the last step it does nothing and reports
// false.
func (c *Controller) Next() (Step, bool) {
	if c.IsLast() {
		return c.Current(), false
	}
	return c.move(c.idx + 1), true
}

// Back returns one step. At the first step it does nothing and reports
// false.
func (c *Controller) Back() (Step, bool) {
	if c.IsFirst() {
		return c.Current(), false
	}
	return c.move(c.idx - 1), true
}

// Reset returns to the first step.
func (c *Controller) Reset() Step {
	if c.IsFirst() {
		return c.Current()
	}
	return c.move(0)
}

func (c *Controller) move(to int) Step {
	from := c.Current()
	c.idx = to
	if c.OnTransition != nil {
		c.OnTransition(from, c.Current())
	}
	return c.Current()
}
