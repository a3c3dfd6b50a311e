package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios drive a counter account through a sequence of instructions
// and assert on the journal and the final counter value.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Account is the counter account the steps target.
	// Defaults to "test-account" when empty.
	Account string `yaml:"account,omitempty"`

	// Token is an optional fixed submission token for deterministic
	// golden comparison. Defaults to "test-token-default".
	Token string `yaml:"token,omitempty"`

	// Steps is the instruction sequence to submit, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final journal and counter.
	// Supported types: final_counter, journal_count.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one instruction submission within a scenario.
//
// Either Op (with Value for operand-carrying operations) or Raw must be
// set. Raw supplies hex wire bytes directly and exists so scenarios can
// submit malformed buffers - an unknown opcode or truncated payload
// cannot be expressed as a well-formed Op.
type Step struct {
	// Op is the operation name: increment, decrement, update or reset.
	Op string `yaml:"op,omitempty"`

	// Value is the operand for increment/decrement/update.
	Value uint32 `yaml:"value,omitempty"`

	// Raw is a hex-encoded instruction buffer, overriding Op/Value.
	Raw string `yaml:"raw,omitempty"`

	// Expect validates the outcome of this step.
	// If nil, the step is assumed to apply successfully.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Counter is the expected counter value after the step applies.
	Counter *uint32 `yaml:"counter,omitempty"`

	// Error is the expected rejection code, e.g. "UNKNOWN_OPCODE" or
	// "TRUNCATED_PAYLOAD". When set, the step must fail and the counter
	// must remain unchanged.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the journal or the final state.
type Assertion struct {
	// Type specifies the assertion:
	// - "final_counter": the account's stored counter equals Counter
	// - "journal_count": the account's journal holds exactly Count entries
	Type string `yaml:"type"`

	// Counter is the expected value (final_counter).
	Counter uint32 `yaml:"counter,omitempty"`

	// Count is the expected number of entries (journal_count).
	Count int `yaml:"count,omitempty"`
}

// LoadScenario parses a scenario YAML file.
// Unknown fields are rejected so typos in scenario files fail loudly
// instead of silently skipping a validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	s.applyDefaults()
	return &s, nil
}

// LoadScenarioDir loads every *.yaml scenario in a directory, sorted by
// filename for deterministic execution order.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".yaml") || strings.HasSuffix(entry.Name(), ".yml") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// Validate checks structural requirements before execution.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario must have at least one step")
	}
	for i, step := range s.Steps {
		if step.Op == "" && step.Raw == "" {
			return fmt.Errorf("step %d: either op or raw is required", i)
		}
		if step.Op != "" && step.Raw != "" {
			return fmt.Errorf("step %d: op and raw are mutually exclusive", i)
		}
	}
	for i, a := range s.Assertions {
		switch a.Type {
		case "final_counter", "journal_count":
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
	}
	return nil
}

func (s *Scenario) applyDefaults() {
	if s.Account == "" {
		s.Account = "test-account"
	}
}
