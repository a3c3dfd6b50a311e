package harness

import (
	"context"
	"fmt"

	"github.com/roach88/tally/internal/store"
)

// AssertionContext carries what assertion evaluation needs: the scenario
// store (still open) and the account the steps targeted.
type AssertionContext struct {
	Store   *store.Store
	Ctx     context.Context
	Account string
}

// EvaluateAssertions checks each assertion against the execution result
// and the store. Returns one message per failed assertion; an empty
// slice means all assertions hold.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string

	for i, a := range assertions {
		switch a.Type {
		case "final_counter":
			if result.FinalCounter != a.Counter {
				failures = append(failures,
					fmt.Sprintf("assertion %d (final_counter): expected %d, got %d", i, a.Counter, result.FinalCounter))
			}

		case "journal_count":
			n, err := actx.Store.JournalCount(actx.Ctx, actx.Account)
			if err != nil {
				failures = append(failures,
					fmt.Sprintf("assertion %d (journal_count): query failed: %v", i, err))
				continue
			}
			if n != a.Count {
				failures = append(failures,
					fmt.Sprintf("assertion %d (journal_count): expected %d entries, got %d", i, a.Count, n))
			}

		default:
			// Validate() rejects unknown types at load time; scenarios
			// constructed in code can still reach here.
			failures = append(failures,
				fmt.Sprintf("assertion %d: unknown type %q", i, a.Type))
		}
	}

	return failures
}
