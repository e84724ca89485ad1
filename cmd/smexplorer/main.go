// Command smexplorer inspects source maps and the files they link together.
//
// Usage:
//
//	smexplorer mappings <file.map>
//	smexplorer sources <paths...>
//	smexplorer check <paths...>
//	smexplorer show <paths...> --file <generated> [--source <name>]
//	smexplorer invert <paths...> --generated <name> --source <name>
//	smexplorer lookup <paths...> --file <generated> --line <n> [--column <n>]
//	smexplorer version
//
// Paths may be files or directories. Directories are walked recursively,
// honouring their .gitignore. Every file is registered under its base name,
// the way a browser drop would name it.
//
// Config file:
//
//	smexplorer looks for smexplorer.yaml, .smexplorerrc or .smexplorerrc.json
//	in the current directory and parent directories. SMEXPLORER_* environment
//	variables (also read from a .env file) override the config file, and
//	CLI flags override both.
//
// Example smexplorer.yaml:
//
//	strictIndices: false
//	mapSuffix: .map
//	stylesheetExtensions: [.css, .scss]
//	ignoreDiagnostics: [SM0201]
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"

	"github.com/HugoDaniel/smexplorer/pkg/api"
)

var (
	version = api.Version
	commit  = "dev"
)

// globalState carries everything a command touches outside the process, so
// tests can swap it.
type globalState struct {
	ctx       context.Context
	fs        afero.Fs
	stdout    io.Writer
	stderr    io.Writer
	getwd     func() (string, error)
	lookupEnv func(string) (string, bool)
	isTTY     bool
}

func newGlobalState() *globalState {
	fd := os.Stdout.Fd()
	return &globalState{
		ctx:       context.Background(),
		fs:        afero.NewOsFs(),
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		getwd:     os.Getwd,
		lookupEnv: os.LookupEnv,
		isTTY:     isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	if err := run(newGlobalState(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(gs *globalState, args []string) error {
	root := newRootCommand(gs)
	root.SetArgs(args)
	return root.ExecuteContext(gs.ctx)
}
