package main

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/ieee0824/asrtools/acoustic"
	"github.com/ieee0824/asrtools/internal/cli"
	"github.com/ieee0824/asrtools/table"
)

var tool = cli.Tool{
	Name:  "gmm-classify-on-likes",
	Short: "Label each frame with the pdf of highest log-likelihood",
	Long: "Do frame classification based on the pdf in a GMM-based model that has\n" +
		"the highest log-likelihood for the corresponding frame, and output a\n" +
		"per-frame pdf alignment.",
	Usage:   "model-in features-rspecifier alignments-wspecifier",
	Example: "  gmm-classify-on-likes --scale=0.5 --phones-list=1:2 1.mdl ark:feats.ark ark:1.ali",
	Args:    cli.ArgsBetween(3, 3),
	Flags: func(fs *pflag.FlagSet) {
		fs.Float64("scale", 1, "factor by which to scale the likelihoods of the listed phones")
		fs.String("phones-list", "", "colon-separated phones whose likelihoods are scaled")
	},
	Run: run,
}

func run(ctx context.Context, env *cli.Env, args []string) error {
	scale := env.Config.GetFloat64("scale")
	if !(scale > 0) {
		return cli.Usagef("--scale must be positive, got %g", scale)
	}
	phones, err := cli.ParseIntList(env.Config.GetString("phones-list"))
	if err != nil {
		return err
	}
	model, err := acoustic.ReadModel(args[0])
	if err != nil {
		return err
	}

	offset := make([]float64, model.Am.NumPdfs())
	if len(phones) > 0 {
		pdfs, exclusive := model.Trans.PdfsForPhones(phones)
		if !exclusive {
			env.Log.Warn("the pdfs for the phones may be shared by other phones (note: this probably does not matter)")
		}
		for _, pdf := range pdfs {
			offset[pdf] = math.Log(scale)
		}
	} else {
		env.Log.Warn("no phones specified, no scaling done")
	}

	feats, err := table.OpenMatrixSequential(args[1])
	if err != nil {
		return err
	}
	defer feats.Close()
	out, err := table.OpenInt32VectorWriter(args[2])
	if err != nil {
		return err
	}
	defer out.Close()

	done := 0
	for feats.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key, feat := feats.Key(), feats.Value()
		if len(feat) > 0 && len(feat[0]) != model.Am.Dim() {
			return errors.Errorf("utterance %s: feature dimension %d, model has %d", key, len(feat[0]), model.Am.Dim())
		}
		if err := out.Write(key, classify(model.Am, offset, feat)); err != nil {
			return err
		}
		done++
	}
	if err := feats.Err(); err != nil {
		return err
	}
	env.Log.Infof("classified frames in %d utterances based on likelihoods", done)
	return out.Close()
}

// classify returns, per frame, the pdf maximizing loglike + offset; the
// lowest pdf wins ties.
func classify(am *acoustic.AmDiagGmm, offset []float64, feat [][]float64) []int32 {
	ali := make([]int32, len(feat))
	if len(feat) == 0 {
		return ali
	}
	best := make([]float64, len(feat))
	for pdf, g := range am.Pdfs {
		ll := g.LogProbFrames(feat)
		for t, v := range ll {
			v += offset[pdf]
			if pdf == 0 || v > best[t] {
				best[t] = v
				ali[t] = int32(pdf)
			}
		}
	}
	return ali
}

func main() {
	cli.Main(tool)
}
