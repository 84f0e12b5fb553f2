package asm

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"gobf/pkg/cpu"
)

func TestProgramImageRoundTrip(t *testing.T) {
	program, _, err := Assemble("++[>+++[>+<-]<-]>>.")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	data, err := MarshalProgram(program)
	if err != nil {
		t.Fatalf("MarshalProgram failed: %v", err)
	}
	got, err := UnmarshalProgram(data)
	if err != nil {
		t.Fatalf("UnmarshalProgram failed: %v", err)
	}
	if !reflect.DeepEqual(got, program) {
		t.Errorf("UnmarshalProgram() = %v; want %v", got, program)
	}

	again, err := MarshalProgram(got)
	if err != nil {
		t.Fatalf("MarshalProgram failed: %v", err)
	}
	if !reflect.DeepEqual(again, data) {
		t.Error("canonical encoding is not stable")
	}
}

func TestUnmarshalProgramRejects(t *testing.T) {
	badTargets, err := cbor.Marshal(image{
		Magic:   imageMagic,
		Version: imageVersion,
		Program: []cpu.Instruction{{Op: cpu.OpLoopStart, Target: 1}, {Op: cpu.OpLoopEnd, Target: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := UnmarshalProgram(badTargets); !errors.Is(err, cpu.ErrBadJumpTarget) {
		t.Errorf("bad targets: got %v, want ErrBadJumpTarget", err)
	}

	wrongMagic, err := cbor.Marshal(image{Magic: "elf", Version: imageVersion})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := UnmarshalProgram(wrongMagic); err == nil {
		t.Error("wrong magic: expected error")
	}

	wrongVersion, err := cbor.Marshal(image{Magic: imageMagic, Version: 99})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := UnmarshalProgram(wrongVersion); err == nil {
		t.Error("wrong version: expected error")
	}

	if _, err := UnmarshalProgram([]byte{0xff, 0x00}); err == nil {
		t.Error("garbage: expected error")
	}
}

func TestProgramImageLargeProgram(t *testing.T) {
	const n = 200000
	program, _, err := Assemble(strings.Repeat("+", n) + ".")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	data, err := MarshalProgram(program)
	if err != nil {
		t.Fatalf("MarshalProgram failed: %v", err)
	}
	got, err := UnmarshalProgram(data)
	if err != nil {
		t.Fatalf("UnmarshalProgram failed: %v", err)
	}
	if len(got) != n+1 {
		t.Fatalf("len = %d; want %d", len(got), n+1)
	}
	if got[n].Op != cpu.OpOut {
		t.Errorf("last op = %v; want .", got[n].Op)
	}
}
