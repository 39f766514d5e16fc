package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/checkparams/check"
	"github.com/dhamidi/checkparams/config"
	"github.com/dhamidi/checkparams/format"
	"github.com/dhamidi/checkparams/preproc"
	"github.com/dhamidi/checkparams/rd"
)

const version = "0.1.0"

var errMismatches = errors.New("parameter mismatches found")

type argsError struct {
	got int
}

func (e *argsError) Error() string {
	return fmt.Sprintf("wrong number of arguments (%d for 1)", e.got)
}

func exactlyOneFile(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return &argsError{got: len(args)}
	}
	return nil
}

type rootOptions struct {
	configPath string
	ruby       string
	strict     bool
	format     string
	fail       bool
	watch      bool
	verbose    int
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "checkparams [--ruby=VERSION] <filename>",
		Short: "Check that reference manual entries document every parameter",
		Long: `Check that every method entry of a reference manual source documents
each parameter of its signatures with a @param tag, and nothing else.

The file is preprocessed for the given Ruby version first. Every entry
whose parameters disagree with its tags is reported on stdout; unknown
metadata tags are reported on stderr.

Settings are read from checkparams.toml in the working directory, or
from the file given with --config. Flags override the file.`,
		Args:          exactlyOneFile,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose > 0 {
				commonlog.Configure(opts.verbose, nil)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}

			if opts.watch {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return watch(ctx, args[0], cfg, stdout, stderr)
			}

			n, err := checkFile(args[0], cfg, stdout, stderr)
			if err != nil {
				return err
			}
			if n > 0 && opts.fail {
				return errMismatches
			}
			return nil
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pflags := cmd.PersistentFlags()
	pflags.StringVar(&opts.ruby, "ruby", config.Default().RubyVersion, "Ruby version the manual is preprocessed for")
	pflags.Lookup("ruby").NoOptDefVal = config.Default().RubyVersion
	pflags.StringVar(&opts.configPath, "config", "", "path to a TOML config file (default ./"+config.DefaultFile+" if present)")
	pflags.BoolVar(&opts.strict, "strict", false, "treat headlines inside entries and unterminated literal blocks as errors")
	pflags.CountVarP(&opts.verbose, "verbose", "v", "log verbosity (repeat for more)")

	flags := cmd.Flags()
	flags.StringVar(&opts.format, "format", "text", "report format: "+strings.Join(format.Names(), ", "))
	flags.BoolVar(&opts.fail, "fail", false, "exit with status 2 when any mismatch is found")
	flags.BoolVar(&opts.watch, "watch", false, "check again whenever the file or its includes change")

	cmd.AddCommand(newLSPCmd(&opts))

	return cmd
}

// load reads the config file and applies flags given on the command line.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("ruby") {
		cfg.RubyVersion = o.ruby
	}
	if flags.Changed("strict") {
		cfg.Strict = o.strict
	}
	if flags.Changed("format") {
		cfg.Format = o.format
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parserOptions(path string, cfg *config.Config) []rd.Option {
	opts := []rd.Option{rd.WithFile(path), rd.WithTags(cfg.Tags.Param, cfg.Tags.Quiet)}
	if cfg.Strict {
		opts = append(opts, rd.WithStrict())
	}
	return opts
}

// checkFile preprocesses and checks path, returning the number of
// mismatches reported.
func checkFile(path string, cfg *config.Config, stdout, stderr io.Writer) (int, error) {
	src, err := preproc.Read(path, preproc.Params{"version": cfg.RubyVersion})
	if err != nil {
		return 0, err
	}

	enc, err := format.New(cfg.Format, stdout)
	if err != nil {
		return 0, err
	}

	h := &reportHandler{enc: enc, stderr: stderr}
	err = rd.Parse(src, h, parserOptions(path, cfg)...)
	return h.mismatches, err
}

type reportHandler struct {
	enc        format.Encoder
	stderr     io.Writer
	mismatches int
}

func (h *reportHandler) Mismatch(m *check.Mismatch) error {
	h.mismatches++
	return h.enc.Encode(m)
}

func (h *reportHandler) UnknownTag(line int, tag string) {
	fmt.Fprintf(h.stderr, "[UNKNOWN_META_INFO] %s\n", tag)
}
