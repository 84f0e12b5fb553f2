package asm

import (
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"

	"gobf/pkg/cpu"
)

const (
	imageMagic   = "gobf"
	imageVersion = 1
)

// image is the on-disk form of an assembled program.
type image struct {
	Magic   string            `cbor:"magic"`
	Version int               `cbor:"version"`
	Program []cpu.Instruction `cbor:"program"`
}

var (
	imageEncMode cbor.EncMode
	imageDecMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("asm: failed to create CBOR enc mode: %v", err))
	}
	imageEncMode = em

	// Programs have no length limit, so lift the default array cap.
	dm, err := cbor.DecOptions{MaxArrayElements: math.MaxInt32}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("asm: failed to create CBOR dec mode: %v", err))
	}
	imageDecMode = dm
}

// MarshalProgram serializes an assembled program to CBOR bytes.
func MarshalProgram(program []cpu.Instruction) ([]byte, error) {
	return imageEncMode.Marshal(image{
		Magic:   imageMagic,
		Version: imageVersion,
		Program: program,
	})
}

// UnmarshalProgram decodes a program image and checks its jump targets.
func UnmarshalProgram(data []byte) ([]cpu.Instruction, error) {
	var img image
	if err := imageDecMode.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("asm: unmarshal program: %w", err)
	}
	if img.Magic != imageMagic {
		return nil, fmt.Errorf("asm: not a program image (magic %q)", img.Magic)
	}
	if img.Version != imageVersion {
		return nil, fmt.Errorf("asm: unsupported image version %d", img.Version)
	}
	if err := cpu.Validate(img.Program); err != nil {
		return nil, fmt.Errorf("asm: %w", err)
	}
	return img.Program, nil
}
