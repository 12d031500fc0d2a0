package main

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/ieee0824/asrtools/acoustic"
	"github.com/ieee0824/asrtools/internal/cli"
	"github.com/ieee0824/asrtools/table"
)

var tool = cli.Tool{
	Name:    "gmm-get-occs",
	Short:   "Write per-pdf occupation counts from GMM statistics",
	Usage:   "model-in stats-in occs-out",
	Example: "  gmm-get-occs 1.mdl 1.acc 1.occs",
	Args:    cli.ArgsBetween(3, 3),
	Flags: func(fs *pflag.FlagSet) {
		fs.Bool("binary", true, "accepted for compatibility; occupancies are always written as text")
	},
	Run: run,
}

func run(_ context.Context, env *cli.Env, args []string) error {
	modelIn, statsIn, occsOut := args[0], args[1], args[2]
	model, err := acoustic.ReadModel(modelIn)
	if err != nil {
		return err
	}
	stats, err := acoustic.ReadStats(statsIn)
	if err != nil {
		return err
	}
	if n := stats.Gmm.NumAccs(); n != model.Am.NumPdfs() {
		env.Log.Warnf("stats have %d pdfs, model has %d", n, model.Am.NumPdfs())
	}
	if err := table.WriteVector(occsOut, stats.Gmm.Occupancies()); err != nil {
		return err
	}
	env.Log.Infof("written occs to %s", occsOut)
	return nil
}

func main() {
	cli.Main(tool)
}
