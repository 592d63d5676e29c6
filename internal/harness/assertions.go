package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/santa/internal/notify"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		switch event.Type {
		case EventRequest:
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Participant, event.Kind)
		case EventDelivery:
			fmt.Fprintf(&buf, "  [%d] -> %s %s %s\n", event.Seq, event.Participant, event.Kind, event.Outcome)
		}
	}

	return buf.String()
}

// assertionContext carries state the trace alone does not show.
type assertionContext struct {
	participants []Participant
	deliveries   map[string]map[notify.Kind]int
}

// EvaluateAssertions checks every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *assertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err.Error()))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, actx *assertionContext) error {
	switch a.Type {
	case AssertDerangement:
		return assertDerangement(result, actx)
	case AssertAssignment:
		return assertAssignment(result, a)
	case AssertDeliveryCount:
		return assertDeliveryCount(result, a, actx)
	case AssertFailed:
		return assertFailed(result, a)
	case AssertJournalCount:
		return assertJournalCount(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertDerangement checks that every registered participant gives to
// exactly one other registered participant and receives from exactly one.
func assertDerangement(result *Result, actx *assertionContext) error {
	ids := make([]string, 0, len(actx.participants))
	for _, p := range actx.participants {
		ids = append(ids, p.ID)
	}
	slices.Sort(ids)

	var problems []string
	received := make(map[string]int, len(ids))
	for _, giver := range ids {
		target, ok := result.Assignments[giver]
		switch {
		case !ok:
			problems = append(problems, giver+" has no assignment")
		case target == giver:
			problems = append(problems, giver+" gives to themselves")
		case !slices.Contains(ids, target):
			problems = append(problems, fmt.Sprintf("%s gives to unknown %s", giver, target))
		default:
			received[target]++
		}
	}
	for _, id := range ids {
		if n := received[id]; n > 1 {
			problems = append(problems, fmt.Sprintf("%s receives %d gifts", id, n))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertDerangement,
		Expected: fmt.Sprintf("a derangement over %v", ids),
		Actual:   strings.Join(problems, "; "),
		Trace:    result.Trace,
	}
}

func assertAssignment(result *Result, a Assertion) error {
	actual, ok := result.Assignments[a.Participant]
	if ok && actual == a.Target {
		return nil
	}
	if !ok {
		actual = "(none)"
	}
	return &AssertionError{
		Type:     AssertAssignment,
		Expected: fmt.Sprintf("%s gives to %s", a.Participant, a.Target),
		Actual:   fmt.Sprintf("%s gives to %s", a.Participant, actual),
		Trace:    result.Trace,
	}
}

// assertDeliveryCount counts messages that actually reached the participant.
func assertDeliveryCount(result *Result, a Assertion, actx *assertionContext) error {
	byKind := actx.deliveries[a.Participant]
	actual := 0
	if a.Kind != "" {
		actual = byKind[notify.Kind(a.Kind)]
	} else {
		for _, n := range byKind {
			actual += n
		}
	}
	if actual == a.Count {
		return nil
	}
	what := "messages"
	if a.Kind != "" {
		what = a.Kind + " messages"
	}
	return &AssertionError{
		Type:     AssertDeliveryCount,
		Expected: fmt.Sprintf("%s received %d %s", a.Participant, a.Count, what),
		Actual:   fmt.Sprintf("%s received %d %s", a.Participant, actual, what),
		Trace:    result.Trace,
	}
}

// assertFailed compares the failure list of the most recent exchange,
// ignoring order.
func assertFailed(result *Result, a Assertion) error {
	summary, ok := result.lastSummary()
	if !ok {
		return &AssertionError{
			Type:     AssertFailed,
			Expected: fmt.Sprintf("failed participants %v", a.Participants),
			Actual:   "no exchange ran",
			Trace:    result.Trace,
		}
	}

	expected := slices.Clone(a.Participants)
	actual := summary.Failed()
	slices.Sort(expected)
	slices.Sort(actual)
	if slices.Equal(expected, actual) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFailed,
		Expected: fmt.Sprintf("failed participants %v", expected),
		Actual:   fmt.Sprintf("failed participants %v", actual),
		Trace:    result.Trace,
	}
}

func assertJournalCount(result *Result, a Assertion) error {
	if result.Journaled == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertJournalCount,
		Expected: fmt.Sprintf("%d journaled runs", a.Count),
		Actual:   fmt.Sprintf("%d journaled runs", result.Journaled),
		Trace:    result.Trace,
	}
}
