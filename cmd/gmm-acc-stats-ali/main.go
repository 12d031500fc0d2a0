package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/ieee0824/asrtools/acoustic"
	"github.com/ieee0824/asrtools/internal/cli"
	"github.com/ieee0824/asrtools/table"
)

var tool = cli.Tool{
	Name:    "gmm-acc-stats-ali",
	Short:   "Accumulate GMM statistics from pdf alignments",
	Usage:   "model-in features-rspecifier alignments-rspecifier stats-out",
	Example: "  gmm-acc-stats-ali 1.mdl ark:feats.ark ark:1.ali 1.acc",
	Args:    cli.ArgsBetween(4, 4),
	Flags: func(fs *pflag.FlagSet) {
		fs.Bool("binary", true, "write output in binary mode")
	},
	Run: run,
}

func run(ctx context.Context, env *cli.Env, args []string) error {
	modelIn, featSpec, aliSpec, statsOut := args[0], args[1], args[2], args[3]
	model, err := acoustic.ReadModel(modelIn)
	if err != nil {
		return err
	}
	feats, err := table.OpenMatrixSequential(featSpec)
	if err != nil {
		return err
	}
	defer feats.Close()
	alis, err := table.OpenInt32VectorRandomAccess(aliSpec)
	if err != nil {
		return err
	}

	stats := &acoustic.Stats{
		FrameCounts: make([]float64, model.Am.NumPdfs()),
		Gmm:         acoustic.NewAccumAmDiagGmm(model.Am),
	}
	var done, missing, otherErr int
	for feats.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key, feat := feats.Key(), feats.Value()
		log := env.Log.WithField("key", key)
		if !alis.HasKey(key) {
			log.Warn("no alignment")
			missing++
			continue
		}
		ali, _ := alis.Value(key)
		if len(ali) != len(feat) {
			log.WithFields(logrus.Fields{"alignment": len(ali), "frames": len(feat)}).Warn("alignment has wrong length")
			otherErr++
			continue
		}
		if err := accumulate(model.Am, stats, feat, ali); err != nil {
			log.WithError(err).Warn("skipping utterance")
			otherErr++
			continue
		}
		done++
	}
	if err := feats.Err(); err != nil {
		return err
	}

	env.Log.WithFields(logrus.Fields{"done": done, "missing": missing, "errors": otherErr}).Info("accumulated stats")
	if frames := stats.Gmm.TotalFrames; frames > 0 {
		env.Log.Infof("overall avg like per frame = %g over %g frames", stats.Gmm.TotalLogLike/frames, frames)
	}
	if done == 0 {
		return cli.Failedf("no utterances accumulated")
	}
	return stats.Write(statsOut, env.Config.GetBool("binary"))
}

// accumulate adds one utterance; the stats are left untouched on error.
func accumulate(am *acoustic.AmDiagGmm, stats *acoustic.Stats, feats [][]float64, ali []int32) error {
	for _, pdf := range ali {
		if pdf < 0 || int(pdf) >= am.NumPdfs() {
			return errors.Errorf("pdf %d out of range [0, %d)", pdf, am.NumPdfs())
		}
	}
	if len(feats) > 0 && len(feats[0]) != am.Dim() {
		return errors.Errorf("feature dimension %d, model has %d", len(feats[0]), am.Dim())
	}
	for t, pdf := range ali {
		if _, err := stats.Gmm.AccumulateForPdf(am, int(pdf), feats[t], 1); err != nil {
			return err
		}
		stats.FrameCounts[pdf]++
	}
	return nil
}

func main() {
	cli.Main(tool)
}
