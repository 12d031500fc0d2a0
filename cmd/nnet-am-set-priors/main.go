package main

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/ieee0824/asrtools/acoustic"
	"github.com/ieee0824/asrtools/internal/cli"
	"github.com/ieee0824/asrtools/table"
)

var tool = cli.Tool{
	Name:    "nnet-am-set-priors",
	Short:   "Set the priors of a neural network acoustic model from pdf counts",
	Usage:   "nnet-in counts-rxfilename nnet-out",
	Example: "  nnet-am-set-priors 1.nnet pdf_counts 2.nnet",
	Args:    cli.ArgsBetween(3, 3),
	Flags: func(fs *pflag.FlagSet) {
		fs.Bool("binary", true, "write output in binary mode")
		fs.Float64("prior-floor", 5e-6, "floor for priors, to avoid generating NaNs upon inversion")
	},
	Run: run,
}

func run(_ context.Context, env *cli.Env, args []string) error {
	nnetIn, countsIn, nnetOut := args[0], args[1], args[2]
	floor := env.Config.GetFloat64("prior-floor")
	if !(floor > 0 && floor < 1) {
		return cli.Usagef("--prior-floor must be in (0, 1), got %g", floor)
	}
	am, err := acoustic.ReadAmNnet(nnetIn)
	if err != nil {
		return err
	}
	counts, err := table.ReadVector(countsIn)
	if err != nil {
		return err
	}
	priors, err := acoustic.PriorsFromCounts(counts, floor)
	if err != nil {
		return err
	}
	if err := am.Nnet.SetPriors(priors); err != nil {
		return err
	}
	if err := am.Write(nnetOut, env.Config.GetBool("binary")); err != nil {
		return err
	}
	env.Log.Infof("read counts for %d pdfs and set priors; model written to %s", len(counts), nnetOut)
	return nil
}

func main() {
	cli.Main(tool)
}
