package cpu

import (
	"fmt"
	"math"
	"os"

	"github.com/fxamacker/cbor/v2"
)

const snapshotVersion = 1

// snapshot is the serialisable run state of a CPU.
type snapshot struct {
	Version int           `cbor:"version"`
	Program []Instruction `cbor:"program"`
	Tape    []byte        `cbor:"tape"`
	IP      int           `cbor:"ip"`
	DP      int           `cbor:"dp"`
	Steps   uint64        `cbor:"steps"`
	Halted  bool          `cbor:"halted"`
}

var (
	snapshotEncMode cbor.EncMode
	snapshotDecMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cpu: failed to create CBOR enc mode: %v", err))
	}
	snapshotEncMode = em

	dm, err := cbor.DecOptions{MaxArrayElements: math.MaxInt32}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cpu: failed to create CBOR dec mode: %v", err))
	}
	snapshotDecMode = dm
}

// HibernateToBytes serialises the program and machine state. Input and
// output streams are not part of the snapshot.
func (c *CPU) HibernateToBytes() ([]byte, error) {
	state := snapshot{
		Version: snapshotVersion,
		Program: c.Program,
		Tape:    c.Tape.Bytes(),
		IP:      c.IP,
		DP:      c.DP,
		Steps:   c.Steps,
		Halted:  c.Halted && c.Err == nil,
	}
	data, err := snapshotEncMode.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// RestoreFromBytes replaces the CPU state with a snapshot produced by
// HibernateToBytes. A recorded error is not restored; the CPU resumes at the
// failing instruction.
func (c *CPU) RestoreFromBytes(data []byte) error {
	var state snapshot
	if err := snapshotDecMode.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if state.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", state.Version)
	}
	if err := Validate(state.Program); err != nil {
		return fmt.Errorf("snapshot program: %w", err)
	}
	if state.IP < 0 || state.IP > len(state.Program) {
		return fmt.Errorf("snapshot ip %d outside program of %d instructions", state.IP, len(state.Program))
	}
	// dp may sit one past the tape after '>' until the next step grows it.
	if state.DP < 0 || state.DP > len(state.Tape) {
		return fmt.Errorf("snapshot dp %d outside tape of %d cells", state.DP, len(state.Tape))
	}

	c.Program = state.Program
	c.Tape = Tape{cells: state.Tape}
	c.IP = state.IP
	c.DP = state.DP
	c.Steps = state.Steps
	c.Halted = state.Halted || state.IP == len(state.Program)
	c.Waiting = false
	c.Err = nil
	return nil
}

func (c *CPU) HibernateToFile(path string) error {
	data, err := c.HibernateToBytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *CPU) RestoreFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.RestoreFromBytes(data)
}
