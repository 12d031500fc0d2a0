package main

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/ieee0824/asrtools/acoustic"
	"github.com/ieee0824/asrtools/internal/cli"
)

var tool = cli.Tool{
	Name:    "nnet-remove-components",
	Short:   "Copy a raw neural network, optionally removing leading or trailing layers",
	Usage:   "nnet-in nnet-out",
	Example: "  nnet-remove-components --remove-last-layers=1 1.nnet 1.new.nnet",
	Args:    cli.ArgsBetween(2, 2),
	Flags: func(fs *pflag.FlagSet) {
		fs.Bool("binary", true, "write output in binary mode")
		fs.Int("remove-first-layers", 0, "remove the N first layers")
		fs.Int("remove-last-layers", 0, "remove the N last layers")
	},
	Run: run,
}

func run(_ context.Context, env *cli.Env, args []string) error {
	first := env.Config.GetInt("remove-first-layers")
	last := env.Config.GetInt("remove-last-layers")
	if first < 0 || last < 0 {
		return cli.Usagef("layer counts must not be negative")
	}
	d, err := acoustic.ReadDNN(args[0])
	if err != nil {
		return err
	}
	if first+last >= len(d.Layers) {
		return cli.Usagef("cannot remove %d of %d layers", first+last, len(d.Layers))
	}
	if err := d.RemoveLastLayers(last); err != nil {
		return err
	}
	if err := d.RemoveFirstLayers(first); err != nil {
		return err
	}
	if err := acoustic.WriteDNN(args[1], env.Config.GetBool("binary"), d); err != nil {
		return err
	}
	env.Log.Infof("copied neural net from %s to %s (%d layers)", args[0], args[1], len(d.Layers))
	return nil
}

func main() {
	cli.Main(tool)
}
