package cpu

import (
	"io"
	"testing"
)

// newSilentCPU creates a CPU that discards all output.
func newSilentCPU(prog []Instruction) *CPU {
	c := NewCPU(prog)
	c.Output = io.Discard
	return c
}

func repeat(op Op, n int) []Op {
	ops := make([]Op, n)
	for i := range ops {
		ops[i] = op
	}
	return ops
}

// BenchmarkCPU_Inc measures the raw dispatch overhead of the Step loop on a
// straight run of increments.
func BenchmarkCPU_Inc(b *testing.B) {
	prog := loop(repeat(OpInc, 1000)...)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c := newSilentCPU(prog)
		if err := c.Run(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCPU_TapeWalk measures tape growth while the data pointer moves right.
func BenchmarkCPU_TapeWalk(b *testing.B) {
	prog := loop(repeat(OpRight, 4096)...)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c := newSilentCPU(prog)
		if err := c.Run(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCPU_NestedLoop runs ++++++++[>++++++++[>++++<-]<-] which spins
// the inner body 64 times.
func BenchmarkCPU_NestedLoop(b *testing.B) {
	ops := append(repeat(OpInc, 8), OpLoopStart, OpRight)
	ops = append(ops, repeat(OpInc, 8)...)
	ops = append(ops, OpLoopStart, OpRight, OpInc, OpInc, OpInc, OpInc, OpLeft, OpDec, OpLoopEnd, OpLeft, OpDec, OpLoopEnd)
	prog := loop(ops...)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c := newSilentCPU(prog)
		if err := c.Run(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCPU_Output(b *testing.B) {
	prog := loop(append([]Op{OpInc}, repeat(OpOut, 1000)...)...)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c := newSilentCPU(prog)
		if err := c.Run(); err != nil {
			b.Fatal(err)
		}
	}
}
