package cpu

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("gobf.cpu")

type Op uint8

const (
	OpRight Op = iota
	OpLeft
	OpInc
	OpDec
	OpOut
	OpIn
	OpLoopStart
	OpLoopEnd
)

var opChars = [...]byte{
	OpRight:     '>',
	OpLeft:      '<',
	OpInc:       '+',
	OpDec:       '-',
	OpOut:       '.',
	OpIn:        ',',
	OpLoopStart: '[',
	OpLoopEnd:   ']',
}

// Char returns the source character for op.
func (op Op) Char() byte {
	if int(op) < len(opChars) {
		return opChars[op]
	}
	return '?'
}

func (op Op) String() string {
	return string(op.Char())
}

// IsLoop reports whether the op carries a jump target.
func (op Op) IsLoop() bool {
	return op == OpLoopStart || op == OpLoopEnd
}

// Instruction is one resolved program step. Target is the index of the paired
// bracket and is only meaningful for OpLoopStart and OpLoopEnd.
type Instruction struct {
	Op     Op  `cbor:"op"`
	Target int `cbor:"target,omitempty"`
}

func (in Instruction) String() string {
	if in.Op.IsLoop() {
		return fmt.Sprintf("%s %d", in.Op, in.Target)
	}
	return in.Op.String()
}

var (
	ErrDataPointerUnderflow = errors.New("data pointer moved left of cell 0")
	ErrInputExhausted       = errors.New("input exhausted")
	ErrBadJumpTarget        = errors.New("bad jump target")
)

// RuntimeError is returned when execution stops on a fatal condition.
type RuntimeError struct {
	Err error
	IP  int
	DP  int
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%v (ip=%d, dp=%d)", e.Err, e.IP, e.DP)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

type CPU struct {
	Program []Instruction
	Tape    Tape

	IP int
	DP int

	// Steps counts executed instructions.
	Steps uint64

	Halted bool

	// Waiting is set when Input reported ErrInputPending. The pending
	// instruction is retried on the next Step.
	Waiting bool

	// Input is read one byte at a time by ','.
	// If nil, os.Stdin is used.
	Input io.Reader

	// Output receives one byte per '.'.
	// If nil, os.Stdout is used.
	Output io.Writer

	// Err holds the error that halted the CPU, if any.
	Err error

	inBuf  [1]byte
	outBuf [1]byte
}

func NewCPU(program []Instruction) *CPU {
	return &CPU{Program: program}
}

// Execute runs program to completion reading from in and writing to out.
func Execute(program []Instruction, in io.Reader, out io.Writer) error {
	c := NewCPU(program)
	c.Input = in
	c.Output = out
	return c.Run()
}

func (c *CPU) input() io.Reader {
	if c.Input == nil {
		return os.Stdin
	}
	return c.Input
}

func (c *CPU) output() io.Writer {
	if c.Output == nil {
		return os.Stdout
	}
	return c.Output
}

// Cell returns the value under the data pointer without growing the tape.
func (c *CPU) Cell() byte {
	return c.Tape.At(c.DP)
}

func (c *CPU) fail(err error) error {
	c.Halted = true
	c.Waiting = false
	c.Err = &RuntimeError{Err: err, IP: c.IP, DP: c.DP}
	return c.Err
}

// Step executes the instruction at IP. It returns the error that halted the
// CPU, if this step halted it with one.
func (c *CPU) Step() error {
	if c.Halted {
		return nil
	}
	if c.IP >= len(c.Program) {
		c.Halted = true
		return nil
	}

	cell := c.Tape.Cell(c.DP)
	instr := c.Program[c.IP]

	switch instr.Op {
	case OpRight:
		c.DP++
	case OpLeft:
		if c.DP == 0 {
			return c.fail(ErrDataPointerUnderflow)
		}
		c.DP--
	case OpInc:
		*cell++
	case OpDec:
		*cell--
	case OpOut:
		c.outBuf[0] = *cell
		if _, err := c.output().Write(c.outBuf[:]); err != nil {
			return c.fail(fmt.Errorf("write output: %w", err))
		}
	case OpIn:
		_, err := io.ReadFull(c.input(), c.inBuf[:])
		switch {
		case err == nil:
			*cell = c.inBuf[0]
			c.Waiting = false
		case errors.Is(err, ErrInputPending):
			c.Waiting = true
			return nil
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return c.fail(ErrInputExhausted)
		default:
			return c.fail(fmt.Errorf("read input: %w", err))
		}
	case OpLoopStart:
		if *cell == 0 {
			c.IP = instr.Target
		}
	case OpLoopEnd:
		if *cell != 0 {
			c.IP = instr.Target
		}
	default:
		return c.fail(fmt.Errorf("unknown opcode %d", instr.Op))
	}

	c.IP++
	c.Steps++
	if c.IP >= len(c.Program) {
		c.Halted = true
	}
	return nil
}

// Run steps until the program ends or fails. A CPU left waiting on input
// keeps retrying, so Run is only suitable for blocking readers.
func (c *CPU) Run() error {
	for !c.Halted {
		if err := c.Step(); err != nil {
			log.Debugf("halted after %d steps: %v", c.Steps, err)
			return err
		}
	}
	log.Debugf("finished after %d steps, tape length %d", c.Steps, c.Tape.Len())
	return c.Err
}

// RunUntilDone steps until the program ends or fails, or until it waits for
// input again. A pending read is retried first.
func (c *CPU) RunUntilDone() error {
	c.Waiting = false
	for !c.Halted && !c.Waiting {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunSteps executes at most n instructions and reports how many ran. It stops
// early when the CPU halts or waits for input.
func (c *CPU) RunSteps(n int) (int, error) {
	ran := 0
	for ran < n && !c.Halted {
		before := c.Steps
		if err := c.Step(); err != nil {
			return ran, err
		}
		if c.Waiting {
			break
		}
		ran += int(c.Steps - before)
	}
	return ran, nil
}

// Validate checks that every loop instruction targets its partner and that
// the pairs nest.
func Validate(program []Instruction) error {
	var open []int
	for i, instr := range program {
		switch instr.Op {
		case OpRight, OpLeft, OpInc, OpDec, OpOut, OpIn:
		case OpLoopStart:
			open = append(open, i)
		case OpLoopEnd:
			if len(open) == 0 {
				return fmt.Errorf("%w: ']' at %d has no partner", ErrBadJumpTarget, i)
			}
			start := open[len(open)-1]
			open = open[:len(open)-1]
			if instr.Target != start || program[start].Target != i {
				return fmt.Errorf("%w: pair %d/%d points at %d/%d", ErrBadJumpTarget, start, i, program[start].Target, instr.Target)
			}
		default:
			return fmt.Errorf("unknown opcode %d at %d", instr.Op, i)
		}
	}
	if len(open) > 0 {
		return fmt.Errorf("%w: '[' at %d has no partner", ErrBadJumpTarget, open[len(open)-1])
	}
	return nil
}
