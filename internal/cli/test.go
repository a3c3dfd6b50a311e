package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
}

// ScenarioOutcome summarizes one scenario run.
type ScenarioOutcome struct {
	Name         string   `json:"name"`
	Pass         bool     `json:"pass"`
	Steps        int      `json:"steps"`
	FinalCounter uint32   `json:"final_counter"`
	Errors       []string `json:"errors,omitempty"`
}

// TestReport holds the overall test command result.
type TestReport struct {
	Scenarios []ScenarioOutcome `json:"scenarios"`
	Total     int               `json:"total"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario.yaml|dir>",
		Short: "Run conformance scenarios",
		Long: `Run one scenario file or every *.yaml scenario in a directory.

Each scenario executes against a fresh in-memory database with a
deterministic clock and token, so runs are reproducible.

Exit codes:
  0 - all scenarios passed
  1 - one or more scenarios failed
  2 - command error (scenario not found, invalid yaml)

Examples:
  tally test scenarios/basic_flow.yaml
  tally test scenarios/ --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(opts, args[0], cmd)
		},
	}

	return cmd
}

func runTest(opts *TestOptions, path string, cmd *cobra.Command) error {
	scenarios, err := loadScenarios(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenarios", err)
	}

	report := TestReport{Total: len(scenarios)}
	for _, scenario := range scenarios {
		result, err := harness.Run(scenario)
		if err != nil {
			return WrapExitError(ExitCommandError,
				fmt.Sprintf("scenario %s failed to execute", scenario.Name), err)
		}

		outcome := ScenarioOutcome{
			Name:         scenario.Name,
			Pass:         result.Pass,
			Steps:        len(result.Trace),
			FinalCounter: result.FinalCounter,
			Errors:       result.Errors,
		}
		report.Scenarios = append(report.Scenarios, outcome)
		if result.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	if opts.Format == "json" {
		if err := opts.formatter(cmd).Success(report); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
	} else {
		w := cmd.OutOrStdout()
		for _, o := range report.Scenarios {
			status := "PASS"
			if !o.Pass {
				status = "FAIL"
			}
			fmt.Fprintf(w, "%s  %s (%d steps, counter=%d)\n", status, o.Name, o.Steps, o.FinalCounter)
			for _, msg := range o.Errors {
				fmt.Fprintf(w, "      %s\n", msg)
			}
		}
		fmt.Fprintf(w, "%d/%d scenarios passed\n", report.Passed, report.Total)
	}

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}
	return nil
}

// loadScenarios loads a single scenario file or a directory of them.
func loadScenarios(path string) ([]*harness.Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return harness.LoadScenarioDir(path)
	}

	s, err := harness.LoadScenario(path)
	if err != nil {
		return nil, err
	}
	return []*harness.Scenario{s}, nil
}
