package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/floats"

	"github.com/ieee0824/asrtools/internal/cli"
	"github.com/ieee0824/asrtools/lattice"
	"github.com/ieee0824/asrtools/posterior"
	"github.com/ieee0824/asrtools/table"
)

var tool = cli.Tool{
	Name:  "lattice-best-path-post",
	Short: "Best path through lattices, with the lattice posterior of each best-path label",
	Long: `Generate the 1-best path through each lattice; write it as an alignment and
write the forward-backward posterior of each best-path label at its frame as
weights (or their average with --get-average-post).`,
	Usage:   "lattice-rspecifier alignments-wspecifier weights-wspecifier",
	Example: "  lattice-best-path-post --acoustic-scale=0.1 ark:1.lats ark:1.ali ark:1.weights",
	Args:    cli.ArgsBetween(3, 3),
	Flags: func(fs *pflag.FlagSet) {
		fs.Float64("acoustic-scale", 1, "scaling factor for acoustic likelihoods")
		fs.Float64("lm-scale", 1, "scaling factor for graph costs; only the ratio acoustic-scale/lm-scale matters")
		fs.Bool("get-average-post", false, "write the average posterior over the utterance instead of per-frame posteriors")
	},
	Run: run,
}

func run(ctx context.Context, env *cli.Env, args []string) error {
	acScale := env.Config.GetFloat64("acoustic-scale")
	lmScale := env.Config.GetFloat64("lm-scale")
	if acScale == 0 {
		return cli.Usagef("do not use a zero acoustic scale (cannot be inverted)")
	}
	average := env.Config.GetBool("get-average-post")

	lats, err := lattice.OpenSequential(args[0])
	if err != nil {
		return err
	}
	defer lats.Close()
	aliOut, err := table.OpenInt32VectorWriter(args[1])
	if err != nil {
		return err
	}
	defer aliOut.Close()
	weightSpec, avgSpec := args[2], ""
	if average {
		weightSpec, avgSpec = "", args[2]
	}
	weightOut, err := table.OpenFloatVectorWriter(weightSpec)
	if err != nil {
		return err
	}
	defer weightOut.Close()
	avgOut, err := table.OpenFloatWriter(avgSpec)
	if err != nil {
		return err
	}
	defer avgOut.Close()

	var done, failed, frames int
	var totLike, totAcLike float64
	totWeight := lattice.One
	for lats.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key, lat := lats.Key(), lats.Value()
		log := env.Log.WithField("key", key)
		lat.Scale(lmScale, acScale)

		best, err := lat.BestPath()
		if errors.Is(err, lattice.ErrNoPath) {
			log.Warn("best-path failed")
			failed++
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "utterance %s", key)
		}
		if err := lat.TopSort(); err != nil {
			return errors.Wrapf(err, "utterance %s", key)
		}
		post, like, acLike, err := lat.ForwardBackward()
		if err != nil {
			return errors.Wrapf(err, "utterance %s", key)
		}
		totLike += like
		totAcLike += acLike
		if n := len(post); n > 0 {
			log.Debugf("%d states and %d arcs; average log-likelihood %g over %d frames, acoustic %g per frame",
				len(lat.States), lat.NumArcs(), like/float64(n), n, acLike/float64(n))
		}
		log.Debugf("best cost %g + %g = %g", best.Weight.Graph, best.Weight.Acoustic, best.Weight.Cost())

		weights, _, err := posterior.OfAlignment(post, best.Alignment)
		if err != nil {
			return errors.Wrapf(err, "utterance %s", key)
		}
		if err := aliOut.Write(key, best.Alignment); err != nil {
			return err
		}
		if err := weightOut.Write(key, weights); err != nil {
			return err
		}
		avg := 0.0
		if len(weights) > 0 {
			avg = floats.Sum(weights) / float64(len(weights))
		}
		if err := avgOut.Write(key, avg); err != nil {
			return err
		}
		done++
		frames += len(best.Alignment)
		totWeight = totWeight.Times(best.Weight)
	}
	if err := lats.Err(); err != nil {
		return err
	}

	if frames > 0 {
		n := float64(frames)
		env.Log.Infof("overall average log-like/frame is %g over %d frames; average acoustic like/frame is %g",
			totLike/n, frames, totAcLike/n)
		env.Log.Infof("overall score per frame is %g = %g [graph] + %g [acoustic] over %d frames",
			totWeight.Cost()/n, totWeight.Graph/n, totWeight.Acoustic/n, frames)
	}
	env.Log.Infof("done %d lattices, failed for %d", done, failed)
	for _, w := range []interface{ Close() error }{aliOut, weightOut, avgOut} {
		if err := w.Close(); err != nil {
			return err
		}
	}
	if done == 0 {
		return cli.Failedf("no lattices processed")
	}
	return nil
}

func main() {
	cli.Main(tool)
}
