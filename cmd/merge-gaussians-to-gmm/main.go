package main

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/ieee0824/asrtools/acoustic"
	"github.com/ieee0824/asrtools/internal/cli"
)

var tool = cli.Tool{
	Name:  "merge-gaussians-to-gmm",
	Short: "Merge the Gaussians of the listed phones' pdfs into one GMM",
	Long: "Merge a list of specified Gaussians in a diagonal-GMM acoustic model\n" +
		"to a full-covariance or diagonal-covariance GMM.",
	Usage:   "model-in stats-in phone-list gmm-out",
	Example: "  merge-gaussians-to-gmm --gmm-num-gauss=64 final.mdl final.acc 1:2:3 sil.gmm",
	Args:    cli.ArgsBetween(4, 4),
	Flags: func(fs *pflag.FlagSet) {
		fs.Bool("binary", true, "write output in binary mode")
		fs.Bool("fullcov-gmm", false, "write out a full-covariance GMM")
		acoustic.DefaultGaussianMergingOptions().Register(fs)
	},
	Run: run,
}

func mergingOptions(env *cli.Env) acoustic.GaussianMergingOptions {
	return acoustic.GaussianMergingOptions{
		MaxNumGauss:          env.Config.GetInt("max-num-gauss"),
		IntermediateNumGauss: env.Config.GetInt("intermediate-num-gauss"),
		GmmNumGauss:          env.Config.GetInt("gmm-num-gauss"),
		ReduceStateFactor:    env.Config.GetFloat64("reduce-state-factor"),
		ClusterVarFloor:      env.Config.GetFloat64("cluster-varfloor"),
	}
}

func run(_ context.Context, env *cli.Env, args []string) error {
	modelIn, statsIn, phoneList, gmmOut := args[0], args[1], args[2], args[3]
	opts := mergingOptions(env)
	if err := opts.Check(); err != nil {
		return cli.Usagef("%v", err)
	}
	phones, err := cli.ParseIntList(phoneList)
	if err != nil {
		return err
	}
	if len(phones) == 0 {
		return cli.Usagef("empty phone list")
	}

	model, err := acoustic.ReadModel(modelIn)
	if err != nil {
		return err
	}
	pdfs, exclusive := model.Trans.PdfsForPhones(phones)
	if !exclusive {
		env.Log.Warn("the pdfs for the listed phones may be shared by other phones (note: this probably does not matter)")
	}
	stats, err := acoustic.ReadStats(statsIn)
	if err != nil {
		return err
	}

	gmm, err := acoustic.MergeGaussiansInPdfs(model.Am, stats.Gmm, pdfs, opts, env.Log)
	if err != nil {
		return err
	}
	binary := env.Config.GetBool("binary")
	if env.Config.GetBool("fullcov-gmm") {
		err = acoustic.WriteFullGMM(gmmOut, binary, acoustic.FullFromDiag(gmm))
	} else {
		err = acoustic.WriteGMM(gmmOut, binary, gmm)
	}
	if err != nil {
		return err
	}
	env.Log.Infof("written GMM with %d Gaussians from %d pdfs to %s", gmm.NumGauss(), len(pdfs), gmmOut)
	return nil
}

func main() {
	cli.Main(tool)
}
