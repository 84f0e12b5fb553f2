//go:build !js

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"gobf/pkg/asm"
	"gobf/pkg/cpu"
	"gobf/pkg/utils"
)

var log = commonlog.GetLogger("gobf")

func main() {
	inPath := flag.String("in", "", "input program source file path")
	outPath := flag.String("out", "", "output image file path (default: input with .bfo extension)")
	runProgram := flag.Bool("run", false, "run the generated image")
	runBinPath := flag.String("run-bin", "", "run an existing image file")
	verbosity := flag.Int("v", 0, "log verbosity (0 = errors only)")
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	if *runProgram && *runBinPath != "" {
		fmt.Fprintln(os.Stderr, "use either -run or -run-bin, not both")
		os.Exit(2)
	}

	assembledOutput := ""
	if *inPath != "" {
		source, fullPath, err := utils.ReadSource(*inPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		program, _, err := asm.Assemble(source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "assembly failed: %s: %v\n", fullPath, err)
			os.Exit(1)
		}

		image, err := asm.MarshalProgram(program)
		if err != nil {
			fmt.Fprintf(os.Stderr, "encoding failed: %v\n", err)
			os.Exit(1)
		}

		output := *outPath
		if output == "" {
			output = defaultOutputPath(*inPath)
		}

		if err := writeImage(output, image); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write image file %q: %v\n", output, err)
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "assembled %d instructions (%d bytes) -> %s\n", len(program), len(image), output)
		assembledOutput = output
	}

	if *inPath == "" && *runBinPath == "" && !*runProgram {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to assemble, -run to run assembled output, or -run-bin <file> to run an existing image")
		flag.Usage()
		os.Exit(2)
	}

	runTarget := ""
	switch {
	case *runBinPath != "":
		runTarget = *runBinPath
	case *runProgram:
		if assembledOutput == "" {
			fmt.Fprintln(os.Stderr, "-run requires -in, or use -run-bin <file>")
			os.Exit(2)
		}
		runTarget = assembledOutput
	default:
		return
	}

	if err := runImage(runTarget); err != nil {
		fmt.Fprintf(os.Stderr, "run failed for %q: %v\n", runTarget, err)
		os.Exit(1)
	}
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".bfo"
	}
	return strings.TrimSuffix(inPath, ext) + ".bfo"
}

func writeImage(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func loadImage(path string) ([]cpu.Instruction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return asm.UnmarshalProgram(data)
}

func runImage(path string) error {
	program, err := loadImage(path)
	if err != nil {
		return err
	}

	vm := cpu.NewCPU(program)
	vm.Input = os.Stdin
	vm.Output = os.Stdout
	if err := vm.Run(); err != nil {
		return err
	}

	log.Infof("run complete (%s): steps=%d ip=%d dp=%d tape=%d cells", path, vm.Steps, vm.IP, vm.DP, vm.Tape.Len())
	return nil
}
