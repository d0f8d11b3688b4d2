package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"emu16/pkg/asm"
	"emu16/pkg/cpu"
	"emu16/pkg/isa"
)

// run assembles path, prints the trace to out and executes until halt.
func run(path, defsPath, screenshot string, out io.Writer) error {
	prog, _, err := asm.LoadProgram(path, defsPath)
	if err != nil {
		return fmt.Errorf("assembly failed: %w", err)
	}
	if err := isa.WriteTrace(out, prog); err != nil {
		return err
	}

	vm := cpu.NewCPU(prog)
	vm.Output = out
	runErr := vm.Run()

	if screenshot != "" {
		if err := vm.SaveScreenshot(screenshot); err != nil {
			return fmt.Errorf("screenshot failed: %w", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("execution failed: %w", runErr)
	}
	return nil
}

func main() {
	defsPath := flag.String("defs", "", "definitions file (default: vars.locations beside the source, then in the working directory)")
	screenshot := flag.String("screenshot", "", "write the final framebuffer to this PNG file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: console [flags] <file.asm>")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *defsPath, *screenshot, os.Stdout); err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}
