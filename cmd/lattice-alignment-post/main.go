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
	Name:  "lattice-alignment-post",
	Short: "Lattice posteriors of given alignments",
	Long: `Run forward-backward on each lattice and write the posterior of the aligned
label at every frame, as a one-entry-per-frame posterior and optionally as a
weight vector and the utterance average.`,
	Usage:   "lattice-rspecifier alignments-rspecifier post-wspecifier [weights-wspecifier [avg-weights-wspecifier]]",
	Example: "  lattice-alignment-post --acoustic-scale=0.1 ark:1.lats ark:1.ali ark:1.post ark:/dev/null ark:1.avg_weights",
	Args:    cli.ArgsBetween(3, 5),
	Flags: func(fs *pflag.FlagSet) {
		fs.Float64("acoustic-scale", 1, "scaling factor for acoustic likelihoods")
		fs.Float64("lm-scale", 1, "scaling factor for graph costs; only the ratio acoustic-scale/lm-scale matters")
	},
	Run: run,
}

func run(ctx context.Context, env *cli.Env, args []string) error {
	acScale := env.Config.GetFloat64("acoustic-scale")
	lmScale := env.Config.GetFloat64("lm-scale")
	if acScale == 0 {
		return cli.Usagef("do not use a zero acoustic scale (cannot be inverted)")
	}

	lats, err := lattice.OpenSequential(args[0])
	if err != nil {
		return err
	}
	defer lats.Close()
	alis, err := table.OpenInt32VectorRandomAccess(args[1])
	if err != nil {
		return err
	}
	postOut, err := posterior.OpenWriter(args[2])
	if err != nil {
		return err
	}
	defer postOut.Close()
	weightOut, err := table.OpenFloatVectorWriter(cli.Arg(args, 3))
	if err != nil {
		return err
	}
	defer weightOut.Close()
	avgOut, err := table.OpenFloatWriter(cli.Arg(args, 4))
	if err != nil {
		return err
	}
	defer avgOut.Close()

	var done, noAli, errs, frames int
	var totLike, totAcLike float64
	for lats.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key, lat := lats.Key(), lats.Value()
		log := env.Log.WithField("key", key)
		lat.Scale(lmScale, acScale)
		if lat.Empty() {
			log.Warn("empty lattice")
			errs++
			continue
		}
		if err := lat.TopSort(); err != nil {
			return errors.Wrapf(err, "utterance %s", key)
		}
		post, like, acLike, err := lat.ForwardBackward()
		if errors.Is(err, lattice.ErrNoPath) {
			log.Warn("lattice has no successful path")
			errs++
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "utterance %s", key)
		}
		totLike += like
		totAcLike += acLike
		frames += len(post)
		if n := len(post); n > 0 {
			log.Debugf("%d states and %d arcs; average log-likelihood %g over %d frames, acoustic %g per frame",
				len(lat.States), lat.NumArcs(), like/float64(n), n, acLike/float64(n))
		}

		if !alis.HasKey(key) {
			log.Warn("no alignment for utterance")
			noAli++
			continue
		}
		ali, _ := alis.Value(key)
		weights, _, err := posterior.OfAlignment(post, ali)
		if err != nil {
			return errors.Wrapf(err, "utterance %s", key)
		}
		if err := postOut.Write(key, posterior.FromAlignment(ali, weights)); err != nil {
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
	}
	if err := lats.Err(); err != nil {
		return err
	}

	if frames > 0 {
		env.Log.Infof("overall average log-like/frame is %g over %d frames; average acoustic like/frame is %g",
			totLike/float64(frames), frames, totAcLike/float64(frames))
	}
	env.Log.Infof("done %d lattices, missing alignments for %d, other errors on %d", done, noAli, errs)
	for _, w := range []interface{ Close() error }{postOut, weightOut, avgOut} {
		if err := w.Close(); err != nil {
			return err
		}
	}
	if done == 0 {
		return cli.Failedf("nothing written")
	}
	return nil
}

func main() {
	cli.Main(tool)
}
