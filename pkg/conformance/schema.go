package conformance

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Tests       []TestCase `yaml:"tests"`
}

// TestCase represents a single program run within a suite
type TestCase struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        interface{} `yaml:"skip,omitempty"` // bool or string
	Source      string      `yaml:"source"`
	Input       string      `yaml:"input,omitempty"`
	MaxSteps    uint64      `yaml:"max_steps,omitempty"` // 0 = run to completion
	Expect      Expectation `yaml:"expect"`
}

// Expectation defines what a run must produce. Unset fields are not checked.
type Expectation struct {
	Output      *string `yaml:"output,omitempty"`       // exact output as text
	OutputBytes []int   `yaml:"output_bytes,omitempty"` // exact output as byte values
	Error       string  `yaml:"error,omitempty"`        // unmatched_open, input_exhausted, ...
	Tape        []int   `yaml:"tape,omitempty"`         // tape prefix
	DP          *int    `yaml:"dp,omitempty"`
	Program     *string `yaml:"program,omitempty"`      // disassembled instruction sequence
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped(short bool) (bool, string) {
	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
	case string:
		if v == "short" {
			if short {
				return true, "skipped in short mode"
			}
			return false, ""
		}
		return true, v
	}
	return false, ""
}
