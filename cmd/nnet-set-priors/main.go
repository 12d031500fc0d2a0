package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/ieee0824/asrtools/acoustic"
	"github.com/ieee0824/asrtools/internal/cli"
)

var tool = cli.Tool{
	Name:    "nnet-set-priors",
	Short:   "Set the priors of a neural network acoustic model from example labels",
	Usage:   "nnet-in egs-rspecifier nnet-out",
	Example: "  nnet-set-priors 1.nnet ark:egs.1.ark 2.nnet",
	Args:    cli.ArgsBetween(3, 3),
	Flags: func(fs *pflag.FlagSet) {
		fs.Bool("binary", true, "write output in binary mode")
		fs.Float64("prior-floor", 5e-6, "floor for priors, to avoid generating NaNs upon inversion")
	},
	Run: run,
}

func run(ctx context.Context, env *cli.Env, args []string) error {
	nnetIn, egsSpec, nnetOut := args[0], args[1], args[2]
	floor := env.Config.GetFloat64("prior-floor")
	if !(floor > 0 && floor < 1) {
		return cli.Usagef("--prior-floor must be in (0, 1), got %g", floor)
	}
	am, err := acoustic.ReadAmNnet(nnetIn)
	if err != nil {
		return err
	}
	egs, err := acoustic.OpenExampleSequential(egsSpec)
	if err != nil {
		return err
	}
	defer egs.Close()

	counts := make([]float64, am.NumPdfs())
	read := 0
	for egs.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, l := range egs.Value().Labels {
			if l.Label < 0 || int(l.Label) >= len(counts) {
				return errors.Errorf("example %s: label %d out of range [0, %d)", egs.Key(), l.Label, len(counts))
			}
			counts[l.Label] += l.Weight
		}
		read++
	}
	if err := egs.Err(); err != nil {
		return err
	}

	priors, err := acoustic.PriorsFromCounts(counts, floor)
	if err != nil {
		return errors.Wrapf(err, "after %d examples", read)
	}
	if err := am.Nnet.SetPriors(priors); err != nil {
		return err
	}
	if err := am.Write(nnetOut, env.Config.GetBool("binary")); err != nil {
		return err
	}
	env.Log.Infof("read %d examples and set priors; model written to %s", read, nnetOut)
	return nil
}

func main() {
	cli.Main(tool)
}
