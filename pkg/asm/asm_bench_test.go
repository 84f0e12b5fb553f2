package asm

import (
	"strings"
	"testing"
)

// smallProgram moves cell 0 into cell 1 with a comment on each line.
const smallProgram = `
    ++++++++     set counter
    [            loop
      >+<-       move one unit
    ]
    >.           print
`

// nestedProgram nests loops deeply enough to exercise the bracket stack.
var nestedProgram = strings.Repeat("+[>", 64) + strings.Repeat("-]<", 64)

// largeProgram is a long listing with plenty of comment text to skip.
var largeProgram = strings.Repeat("# setup\n++++++++[>++++[>++>+++<<-]>+<<-]>>.>---.+++++++..+++.\n", 200)

func BenchmarkAssemble_Small(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := Assemble(smallProgram); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Nested(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := Assemble(nestedProgram); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Large(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(largeProgram)))
	for i := 0; i < b.N; i++ {
		if _, _, err := Assemble(largeProgram); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkAssemble_Reuse reuses one Assembler across runs.
func BenchmarkAssemble_Reuse(b *testing.B) {
	a := NewAssembler()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := a.Assemble(largeProgram); err != nil {
			b.Fatal(err)
		}
	}
}
