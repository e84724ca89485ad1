package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HugoDaniel/smexplorer/internal/config"
	"github.com/HugoDaniel/smexplorer/internal/diagnostic"
	"github.com/HugoDaniel/smexplorer/internal/registry"
	"github.com/HugoDaniel/smexplorer/internal/view"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configFile string
	noConfig   bool
	logLevel   string
	logFormat  string
	strict     bool
	noSniff    bool
	ignore     []string
	color      string
}

// settings is the effective configuration of a command run.
type settings struct {
	opts       registry.Options
	logger     *logrus.Logger
	filter     *diagnostic.Filter
	colorize   bool
	configPath string
}

func (s *settings) renderer(w io.Writer) *view.Renderer {
	return view.NewRenderer(w, s.colorize)
}

func newRootCommand(gs *globalState) *cobra.Command {
	ro := &rootOptions{}
	st := &settings{}

	root := &cobra.Command{
		Use:           "smexplorer",
		Short:         "Inspect source maps and the files they link together",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := ro.load(gs, cmd)
			if err != nil {
				return err
			}
			*st = *loaded
			return nil
		},
	}
	root.SetOut(gs.stdout)
	root.SetErr(gs.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&ro.configFile, "config", "", "use a specific config `file`")
	flags.BoolVar(&ro.noConfig, "no-config", false, "ignore config files")
	flags.StringVar(&ro.logLevel, "log-level", "", "log `level` (debug, info, warn, error)")
	flags.StringVar(&ro.logFormat, "log-format", "", "log `format` (text, json)")
	flags.BoolVar(&ro.strict, "strict", true, "fail on out-of-range source or name indexes")
	flags.BoolVar(&ro.noSniff, "no-sniff", false, "only recognize source maps by file name")
	flags.StringSliceVar(&ro.ignore, "ignore", nil, "diagnostic `codes` to leave out")
	flags.StringVar(&ro.color, "color", "auto", "colorize output (auto, always, never)")

	root.AddCommand(
		getCmdMappings(gs, st),
		getCmdSources(gs, st),
		getCmdCheck(gs, st),
		getCmdShow(gs, st),
		getCmdInvert(gs, st),
		getCmdLookup(gs, st),
		getCmdVersion(gs),
	)

	return root
}

// load resolves the config file, the environment and the flags, in
// increasing order of precedence.
func (ro *rootOptions) load(gs *globalState, cmd *cobra.Command) (*settings, error) {
	var cfg *config.Config
	var configPath string
	if !ro.noConfig {
		var err error
		if ro.configFile != "" {
			cfg, err = config.LoadFile(gs.fs, ro.configFile)
			if err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", ro.configFile, err)
			}
			configPath = ro.configFile
		} else {
			startDir, err := gs.getwd()
			if err != nil {
				return nil, err
			}
			cfg, configPath, err = config.Load(gs.fs, startDir)
			if err != nil {
				return nil, fmt.Errorf("loading config: %w", err)
			}
		}
	}

	env, err := config.FromEnv(gs.lookupEnv)
	if err != nil {
		return nil, err
	}
	cfg = cfg.Apply(env)

	if ro.logLevel != "" {
		cfg.LogLevel = &ro.logLevel
	}
	if ro.logFormat != "" {
		cfg.LogFormat = &ro.logFormat
	}

	cli := config.MergeOptions{NoSniff: ro.noSniff}
	if cmd.Flags().Changed("strict") {
		cli.Strict = &ro.strict
	}
	opts := cfg.Merge(cli)

	logger := logrus.New()
	logger.SetOutput(gs.stderr)
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	formatter, err := cfg.Formatter()
	if err != nil {
		return nil, err
	}
	logger.SetFormatter(formatter)

	colorize, err := ro.colorize(gs)
	if err != nil {
		return nil, err
	}

	if configPath != "" {
		logger.WithField("path", configPath).Debug("Using config file")
	}

	return &settings{
		opts:       opts,
		logger:     logger,
		filter:     cfg.DiagnosticFilter(ro.ignore...),
		colorize:   colorize,
		configPath: configPath,
	}, nil
}

func (ro *rootOptions) colorize(gs *globalState) (bool, error) {
	switch ro.color {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		if _, ok := gs.lookupEnv("NO_COLOR"); ok {
			return false, nil
		}
		return gs.isTTY, nil
	default:
		return false, fmt.Errorf("invalid --color value %q", ro.color)
	}
}
