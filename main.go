//go:build !js

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"emu16/pkg/asm"
	"emu16/pkg/cpu"
	"emu16/pkg/isa"
)

func main() {
	inPath := flag.String("in", "", "input assembly file path")
	outPath := flag.String("out", "", "output binary file path (default: input with .bin extension)")
	runProgram := flag.Bool("run", false, "run the generated binary file on the emulator")
	runBinPath := flag.String("run-bin", "", "run an existing binary file on the emulator")
	defsPath := flag.String("defs", "", "definitions file (default: vars.locations beside the source, then in the working directory)")
	flag.Parse()

	if *runProgram && *runBinPath != "" {
		fmt.Fprintln(os.Stderr, "use either -run or -run-bin, not both")
		os.Exit(2)
	}

	assembledOutput := ""
	if *inPath != "" {
		prog, _, err := asm.LoadProgram(*inPath, *defsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "assembly failed: %v\n", err)
			os.Exit(1)
		}

		if err := isa.WriteTrace(os.Stdout, prog); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write trace: %v\n", err)
			os.Exit(1)
		}

		output := *outPath
		if output == "" {
			output = defaultOutputPath(*inPath)
		}

		code := isa.EncodeProgram(prog)
		if err := writeBinary(output, code); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write binary file %q: %v\n", output, err)
			os.Exit(1)
		}

		fmt.Printf("assembled %d instructions (%d bytes) -> %s\n", len(prog), len(code), output)
		assembledOutput = output
	}

	if *inPath == "" && *runBinPath == "" && !*runProgram {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to assemble, -run to run assembled output, or -run-bin <file> to run an existing binary")
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

	vm, err := runBinary(runTarget)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed for %q: %v\n", runTarget, err)
		os.Exit(1)
	}
	fmt.Println(summary(runTarget, vm))
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".bin"
	}
	return strings.TrimSuffix(inPath, ext) + ".bin"
}

func writeBinary(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func readBinary(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// runBinary decodes an image and runs it until halt.
func runBinary(path string) (*cpu.CPU, error) {
	image, err := readBinary(path)
	if err != nil {
		return nil, err
	}

	if len(image) > asm.MaxProgram*isa.InstructionSize {
		return nil, fmt.Errorf("program too large: %d bytes > %d bytes", len(image), asm.MaxProgram*isa.InstructionSize)
	}

	prog, err := isa.DecodeProgram(image)
	if err != nil {
		return nil, err
	}

	vm := cpu.NewCPU(prog)
	if err := vm.Run(); err != nil {
		return vm, err
	}
	return vm, nil
}

func summary(path string, vm *cpu.CPU) string {
	return fmt.Sprintf(
		"run complete (%s): IP=0x%04X R0=%d R1=%d R2=%d R3=%d LED=0x%04X",
		path,
		vm.IP,
		vm.Regs[0],
		vm.Regs[1],
		vm.Regs[2],
		vm.Regs[3],
		uint16(vm.LED()),
	)
}
