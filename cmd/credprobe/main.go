package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/credprobe/internal/cli"
	"github.com/vvka-141/credprobe/internal/ui"
	"github.com/vvka-141/credprobe/pkg/credprobe"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(credprobe.ExitPanic)
		}
	}()

	if os.Getenv("CREDPROBE_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		ui.NewReporter(os.Stdout, os.Stderr).Failure(err)
		os.Exit(credprobe.ExitCodeForError(err))
	}
}
