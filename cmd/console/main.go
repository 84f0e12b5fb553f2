package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"gobf/pkg/asm"
	"gobf/pkg/config"
	"gobf/pkg/cpu"
	"gobf/pkg/utils"
)

var log = commonlog.GetLogger("gobf.console")

// chunkSteps is how many instructions run between interrupt checks.
const chunkSteps = 1 << 16

var errInterrupted = errors.New("interrupted")

type options struct {
	source  string
	showOps bool
	resume  string
	cfg     *config.Config
}

func main() {
	showOps := flag.Bool("show-ops", false, "print the resolved instruction listing to stderr")
	resume := flag.String("resume", "", "continue a run from a snapshot file")
	configDir := flag.String("config", "", "directory containing gobf.toml (default: search upward from the source file)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: console [-show-ops] [-resume snapshot] [-config dir] <program.bf>")
		os.Exit(2)
	}
	filename := flag.Arg(0)

	var cfg *config.Config
	var err error
	if *configDir != "" {
		cfg, err = config.Load(*configDir)
	} else {
		_, baseDir, perr := utils.GetPathInfo(filename)
		if perr != nil {
			fmt.Fprintln(os.Stderr, perr)
			os.Exit(1)
		}
		cfg, err = config.FindAndLoad(baseDir)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config failed: %v\n", err)
		os.Exit(1)
	}
	commonlog.Configure(cfg.Log.Verbosity, cfg.LogFile())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	code := run(options{
		source:  filename,
		showOps: *showOps,
		resume:  *resume,
		cfg:     cfg,
	}, os.Stdin, os.Stdout, os.Stderr, interrupt)
	os.Exit(code)
}

// run executes one console session and returns the process exit code.
func run(opts options, stdin io.Reader, stdout, stderr io.Writer, interrupt <-chan os.Signal) int {
	source, fullPath, err := utils.ReadSource(opts.source)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	log.Infof("running %s", fullPath)

	program, sourceMap, err := asm.Assemble(source)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", filepath.Base(fullPath), err)
		return 1
	}

	if opts.showOps {
		fmt.Fprint(stderr, asm.Listing(program, sourceMap))
	}

	vm := cpu.NewCPU(program)
	if opts.resume != "" {
		if err := vm.RestoreFromFile(opts.resume); err != nil {
			fmt.Fprintf(stderr, "restore failed: %v\n", err)
			return 1
		}
		if asm.Disassemble(vm.Program) != asm.Disassemble(program) {
			fmt.Fprintf(stderr, "snapshot %s was taken from a different program\n", opts.resume)
			return 1
		}
		log.Infof("resumed at ip=%d dp=%d after %d steps", vm.IP, vm.DP, vm.Steps)
	}
	if stdin == nil {
		stdin = os.Stdin
	}
	vm.Input = &interruptibleReader{r: stdin, interrupt: interrupt}
	vm.Output = stdout

	err = drive(vm, opts.cfg.Run.MaxSteps, interrupt)
	if err == nil {
		log.Infof("run complete: steps=%d tape=%d cells", vm.Steps, vm.Tape.Len())
		return 0
	}

	var rerr *cpu.RuntimeError
	if errors.As(err, &rerr) && rerr.IP < len(sourceMap) {
		fmt.Fprintf(stderr, "\nrun failed: %v at %s\n", err, sourceMap[rerr.IP])
	} else {
		fmt.Fprintf(stderr, "\nrun failed: %v\n", err)
	}

	if path := opts.cfg.Resolve(opts.cfg.Run.Snapshot); path != "" {
		if serr := vm.HibernateToFile(path); serr != nil {
			log.Errorf("snapshot failed: %v", serr)
		} else {
			fmt.Fprintf(stderr, "snapshot written to %s\n", path)
		}
	}

	if errors.Is(err, errInterrupted) {
		return 130
	}
	return 1
}

// drive runs vm in chunks so that the step budget and interrupts are checked
// between them.
func drive(vm *cpu.CPU, maxSteps uint64, interrupt <-chan os.Signal) error {
	for !vm.Halted {
		select {
		case <-interrupt:
			return errInterrupted
		default:
		}

		budget := chunkSteps
		if maxSteps > 0 {
			if vm.Steps >= maxSteps {
				return fmt.Errorf("step limit of %d reached", maxSteps)
			}
			if left := maxSteps - vm.Steps; left < uint64(budget) {
				budget = int(left)
			}
		}

		if _, err := vm.RunSteps(budget); err != nil {
			return err
		}
	}
	return nil
}

type readResult struct {
	data []byte
	err  error
}

// interruptibleReader lets an interrupt end a read that is blocked on a
// terminal. The abandoned read keeps running and its bytes are delivered by
// the next Read.
type interruptibleReader struct {
	r         io.Reader
	interrupt <-chan os.Signal

	pending chan readResult
	rest    []byte
}

func (ir *interruptibleReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(ir.rest) > 0 {
		n := copy(p, ir.rest)
		ir.rest = ir.rest[n:]
		return n, nil
	}

	if ir.pending == nil {
		ch := make(chan readResult, 1)
		buf := make([]byte, len(p))
		go func() {
			n, err := ir.r.Read(buf)
			ch <- readResult{data: buf[:n], err: err}
		}()
		ir.pending = ch
	}

	select {
	case res := <-ir.pending:
		ir.pending = nil
		n := copy(p, res.data)
		ir.rest = res.data[n:]
		if len(ir.rest) > 0 {
			return n, nil
		}
		return n, res.err
	case <-ir.interrupt:
		return 0, errInterrupted
	}
}
