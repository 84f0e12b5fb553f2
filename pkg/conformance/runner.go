package conformance

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"gobf/pkg/asm"
	"gobf/pkg/cpu"
)

var log = commonlog.GetLogger("gobf.conformance")

// ErrStepLimit marks a run stopped by its max_steps budget.
var ErrStepLimit = errors.New("step limit reached")

var errorNames = map[string]error{
	"unmatched_open":         asm.ErrUnmatchedOpen,
	"unmatched_close":        asm.ErrUnmatchedClose,
	"data_pointer_underflow": cpu.ErrDataPointerUnderflow,
	"input_exhausted":        cpu.ErrInputExhausted,
	"step_limit":             ErrStepLimit,
}

// TestResult represents the outcome of running a single test
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
}

// Runner executes conformance tests
type Runner struct {
	// Short skips cases marked `skip: short`.
	Short bool
}

func NewRunner() *Runner {
	return &Runner{}
}

// outcome is what a single program run produced.
type outcome struct {
	program []cpu.Instruction
	output  []byte
	vm      *cpu.CPU
	err     error
}

func execute(tc TestCase) outcome {
	program, _, err := asm.Assemble(tc.Source)
	if err != nil {
		return outcome{err: err}
	}

	var out bytes.Buffer
	vm := cpu.NewCPU(program)
	vm.Input = strings.NewReader(tc.Input)
	vm.Output = &out

	if tc.MaxSteps == 0 {
		err = vm.Run()
	} else {
		_, err = vm.RunSteps(int(tc.MaxSteps))
		if err == nil && !vm.Halted {
			err = ErrStepLimit
		}
	}
	return outcome{program: program, output: out.Bytes(), vm: vm, err: err}
}

func (r *Runner) Run(test LoadedTest) TestResult {
	if skipped, reason := test.Test.IsSkipped(r.Short); skipped {
		return TestResult{
			Test:       test,
			Skipped:    true,
			SkipReason: reason,
		}
	}

	res := execute(test.Test)
	err := checkExpectation(test.Test.Expect, res)
	if err != nil {
		log.Debugf("%s/%s failed: %v", test.File, test.Test.Name, err)
	}
	return TestResult{
		Test:   test,
		Passed: err == nil,
		Error:  err,
	}
}

// RunAll executes all loaded tests
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, len(tests))
	for i, test := range tests {
		results[i] = r.Run(test)
	}
	return results
}

// SummaryStats computes statistics from test results
type SummaryStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats generates statistics from test results
func ComputeStats(results []TestResult) SummaryStats {
	stats := SummaryStats{Total: len(results)}
	for _, r := range results {
		if r.Skipped {
			stats.Skipped++
		} else if r.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}
	}
	return stats
}

// FormatStats returns a human-readable summary
func FormatStats(stats SummaryStats) string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped (%d total)",
		stats.Passed, stats.Failed, stats.Skipped, stats.Total)
}

func checkExpectation(expect Expectation, res outcome) error {
	if expect.Error == "" {
		if res.err != nil {
			return fmt.Errorf("unexpected error: %w", res.err)
		}
	} else {
		want, ok := errorNames[expect.Error]
		if !ok {
			return fmt.Errorf("unknown error name %q", expect.Error)
		}
		if !errors.Is(res.err, want) {
			return fmt.Errorf("expected error %s, got %v", expect.Error, res.err)
		}
	}

	if expect.Program != nil {
		if got := asm.Disassemble(res.program); got != *expect.Program {
			return fmt.Errorf("program: got %q, want %q", got, *expect.Program)
		}
	}

	if expect.Output != nil && string(res.output) != *expect.Output {
		return fmt.Errorf("output: got %q, want %q", res.output, *expect.Output)
	}

	if expect.OutputBytes != nil {
		want, err := toBytes(expect.OutputBytes)
		if err != nil {
			return fmt.Errorf("output_bytes: %w", err)
		}
		if !bytes.Equal(res.output, want) {
			return fmt.Errorf("output: got %v, want %v", res.output, want)
		}
	}

	if expect.Tape != nil || expect.DP != nil {
		if res.vm == nil {
			return errors.New("tape expectation on a program that did not assemble")
		}
	}

	if expect.Tape != nil {
		want, err := toBytes(expect.Tape)
		if err != nil {
			return fmt.Errorf("tape: %w", err)
		}
		got := make([]byte, len(want))
		for i := range got {
			got[i] = res.vm.Tape.At(i)
		}
		if !bytes.Equal(got, want) {
			return fmt.Errorf("tape: got %v, want %v", got, want)
		}
	}

	if expect.DP != nil && res.vm.DP != *expect.DP {
		return fmt.Errorf("dp: got %d, want %d", res.vm.DP, *expect.DP)
	}

	return nil
}

func toBytes(values []int) ([]byte, error) {
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("value %d at %d is not a byte", v, i)
		}
		out[i] = byte(v)
	}
	return out, nil
}
