package asm

import (
	"errors"
	"fmt"
	"strings"

	"gobf/pkg/cpu"
)

var opcodes = map[rune]cpu.Op{
	'>': cpu.OpRight,
	'<': cpu.OpLeft,
	'+': cpu.OpInc,
	'-': cpu.OpDec,
	'.': cpu.OpOut,
	',': cpu.OpIn,
	'[': cpu.OpLoopStart,
	']': cpu.OpLoopEnd,
}

var (
	ErrUnmatchedOpen  = errors.New("unmatched '['")
	ErrUnmatchedClose = errors.New("unmatched ']'")
)

// Position is a 1-based line and column (in runes) in the source text.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// SourceMap maps each instruction index to the position it was read from.
type SourceMap []Position

// SyntaxError reports an unbalanced bracket.
type SyntaxError struct {
	Err error
	Pos Position
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v at %s", e.Err, e.Pos)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

type Assembler struct {
	// brackets pairs each bracket index with its partner, both ways.
	brackets map[int]int
}

type scannedOp struct {
	op  cpu.Op
	pos Position
}

func NewAssembler() *Assembler {
	return &Assembler{
		brackets: make(map[int]int),
	}
}

func Assemble(code string) ([]cpu.Instruction, SourceMap, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) ([]cpu.Instruction, SourceMap, error) {
	clear(a.brackets)

	ops, err := a.pass1(code)
	if err != nil {
		return nil, nil, err
	}

	return a.pass2(ops)
}

// pass1 collects the recognized characters and pairs the brackets. Indices
// count recognized characters only.
func (a *Assembler) pass1(code string) ([]scannedOp, error) {
	var ops []scannedOp
	var open []int

	line, col := 1, 0
	for _, r := range code {
		if r == '\n' {
			line++
			col = 0
			continue
		}
		col++

		op, ok := opcodes[r]
		if !ok {
			continue
		}
		idx := len(ops)
		pos := Position{Line: line, Column: col}

		switch op {
		case cpu.OpLoopStart:
			open = append(open, idx)
		case cpu.OpLoopEnd:
			if len(open) == 0 {
				return nil, &SyntaxError{Err: ErrUnmatchedClose, Pos: pos}
			}
			start := open[len(open)-1]
			open = open[:len(open)-1]
			a.brackets[start] = idx
			a.brackets[idx] = start
		}

		ops = append(ops, scannedOp{op: op, pos: pos})
	}

	if len(open) > 0 {
		return nil, &SyntaxError{Err: ErrUnmatchedOpen, Pos: ops[open[len(open)-1]].pos}
	}

	return ops, nil
}

func (a *Assembler) pass2(ops []scannedOp) ([]cpu.Instruction, SourceMap, error) {
	program := make([]cpu.Instruction, 0, len(ops))
	sourceMap := make(SourceMap, 0, len(ops))

	for i, s := range ops {
		instr := cpu.Instruction{Op: s.op}
		if s.op.IsLoop() {
			target, ok := a.brackets[i]
			if !ok {
				return nil, nil, &SyntaxError{Err: fmt.Errorf("bracket %d was not paired", i), Pos: s.pos}
			}
			instr.Target = target
		}
		program = append(program, instr)
		sourceMap = append(sourceMap, s.pos)
	}

	return program, sourceMap, nil
}

// Disassemble renders program back to source, one character per instruction.
func Disassemble(program []cpu.Instruction) string {
	var sb strings.Builder
	sb.Grow(len(program))
	for _, instr := range program {
		sb.WriteByte(instr.Op.Char())
	}
	return sb.String()
}

// Listing renders one instruction per line with its index, jump target and,
// when sourceMap covers it, the source position.
func Listing(program []cpu.Instruction, sourceMap SourceMap) string {
	var sb strings.Builder
	for i, instr := range program {
		fmt.Fprintf(&sb, "%5d  %-8s", i, instr)
		if i < len(sourceMap) {
			fmt.Fprintf(&sb, " ; %d:%d", sourceMap[i].Line, sourceMap[i].Column)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
