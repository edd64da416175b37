package engine

import (
	"github.com/phiremock/phiremock/internal/matching"
	"github.com/phiremock/phiremock/pkg/expectation"
	"github.com/phiremock/phiremock/pkg/scenario"
)

// SelectWinner finds the winning expectation for a request among the given
// snapshot. Candidates must satisfy every declared matcher and, when a
// scenario precondition is present, the scenario's current state. Among
// candidates the highest priority wins; ties go to the oldest insertion.
//
// Returns nil when nothing matches. The error path is reserved for matcher
// evaluation failures (a stored pattern that no longer compiles).
func SelectWinner(snapshot []*expectation.Expectation, r *ParsedRequest, scenarios *scenario.Store) (*expectation.Expectation, error) {
	var winner *expectation.Expectation

	for _, e := range snapshot {
		if e == nil {
			continue
		}

		if e.ScenarioName != "" && e.ScenarioStateIs != "" {
			if scenarios.Get(e.ScenarioName) != e.ScenarioStateIs {
				continue
			}
		}

		ok, err := matching.Matches(e.Request, r)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		// Snapshot order is insertion order, so a strict priority win is
		// the only way a later expectation displaces an earlier one.
		if winner == nil || e.Priority > winner.Priority {
			winner = e
		}
	}

	return winner, nil
}
