// Package cli turns a Tool description into a cobra command with the shared
// option handling, logging setup and exit-status policy of every asrtools binary.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Exit statuses.
const (
	ExitOK     = 0
	ExitFailed = 1  // the run completed but did not produce acceptable output
	ExitUsage  = 2  // bad arguments or option values; nothing was processed
	ExitFatal  = -1 // unexpected error while processing
)

var (
	// ErrUsage marks argument and option errors.
	ErrUsage = errors.New("usage error")
	// ErrFailed marks runs that finished without acceptable output.
	ErrFailed = errors.New("run failed")
)

// Usagef returns an error wrapping ErrUsage.
func Usagef(format string, args ...any) error {
	return errors.Wrapf(ErrUsage, format, args...)
}

// Failedf returns an error wrapping ErrFailed.
func Failedf(format string, args ...any) error {
	return errors.Wrapf(ErrFailed, format, args...)
}

// Env is what a running tool gets besides its positional arguments.
type Env struct {
	Config *viper.Viper
	Log    *logrus.Entry
	Stdout io.Writer
	Stderr io.Writer
}

// Tool describes one binary.
type Tool struct {
	Name    string
	Short   string
	Long    string
	Usage   string // positional-argument synopsis
	Example string
	Args    cobra.PositionalArgs
	Flags   func(fs *pflag.FlagSet)
	Run     func(ctx context.Context, env *Env, args []string) error
}

// Command builds the cobra command for t. The returned Env is filled in
// before t.Run is called.
func Command(t Tool) (*cobra.Command, *Env) {
	env := &Env{Config: viper.New()}
	var configFile, logFormat string
	var verbose int

	cmd := &cobra.Command{
		Use:           t.Name + " [options] " + t.Usage,
		Short:         t.Short,
		Long:          t.Long,
		Example:       t.Example,
		Args:          t.Args,
		SilenceErrors: true,
		SilenceUsage:  true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			env.Stdout = cmd.OutOrStdout()
			env.Stderr = cmd.ErrOrStderr()
			log, err := newLogger(env.Stderr, verbose, logFormat)
			if err != nil {
				return err
			}
			env.Log = log.WithField("tool", t.Name)
			return bindConfig(env.Config, cmd.Flags(), configFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return t.Run(cmd.Context(), env, args)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return Usagef("%v", err)
	})

	fs := cmd.Flags()
	fs.SortFlags = false
	if t.Flags != nil {
		t.Flags(fs)
	}
	fs.StringVar(&configFile, "config", "", "YAML file with option values")
	fs.IntVarP(&verbose, "verbose", "v", 0, "verbosity: 0 info, 1 debug, 2 trace")
	fs.StringVar(&logFormat, "log-format", "text", "log format: text or json")
	return cmd, env
}

func newLogger(w io.Writer, verbose int, format string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(w)
	switch {
	case verbose >= 2:
		log.SetLevel(logrus.TraceLevel)
	case verbose == 1:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
	switch format {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, Usagef("unknown --log-format %q", format)
	}
	return log, nil
}

// bindConfig layers flags over ASRTOOLS_* environment variables over the
// optional config file.
func bindConfig(v *viper.Viper, fs *pflag.FlagSet, configFile string) error {
	if err := v.BindPFlags(fs); err != nil {
		return errors.Wrap(err, "bind flags")
	}
	v.SetEnvPrefix("ASRTOOLS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Usagef("reading config %s: %v", configFile, err)
		}
	}
	return nil
}

// Execute runs t with args and returns the process exit status.
func Execute(ctx context.Context, t Tool, args []string, stdout, stderr io.Writer) int {
	cmd, env := Command(t)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		fmt.Fprintf(stderr, "%s: %v\n\n", t.Name, err)
		cmd.Usage()
		return ExitUsage
	case errors.Is(err, ErrFailed):
		if env.Log != nil {
			env.Log.Warn(err)
		} else {
			fmt.Fprintf(stderr, "%s: %v\n", t.Name, err)
		}
		return ExitFailed
	default:
		if env.Log != nil {
			env.Log.WithError(err).Error("fatal")
		} else {
			fmt.Fprintf(stderr, "%s: %v\n", t.Name, err)
		}
		return ExitFatal
	}
}

// Main runs t with the process arguments and exits.
func Main(t Tool) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := Execute(ctx, t, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
