package main

import (
	"context"
	"math/rand"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/ieee0824/asrtools/acoustic"
	"github.com/ieee0824/asrtools/internal/cli"
	"github.com/ieee0824/asrtools/table"
)

var tool = cli.Tool{
	Name:  "nnet-relabel-egs-ensemble",
	Short: "Relabel examples with the averaged posteriors of an ensemble of networks",
	Long: "Forward one set of examples through an ensemble of networks and use the\n" +
		"averaged posteriors as the new soft labels of a second, paired set of\n" +
		"examples (which may be the same as the first).",
	Usage:   "model-in-1 ... model-in-n egs-gen-post-rspecifier egs-relabel-rspecifier egs-wspecifier",
	Example: "  nnet-relabel-egs-ensemble 1.mdl 2.mdl ark:egs.gen-post.ark ark:egs.relabel.ark ark:egs.relabeled.ark",
	Args:    cli.ArgsAtLeast(4),
	Flags: func(fs *pflag.FlagSet) {
		fs.Int("minibatch-size", 512, "number of examples forwarded together")
		fs.Float64("min-post", 0.01, "posteriors below this are kept stochastically, with this value")
		fs.Int64("srand", 0, "seed for the stochastic label inclusion")
	},
	Run: run,
}

type relabeler struct {
	nnets   []*acoustic.DNN
	minPost float64
	rng     *rand.Rand
	out     *table.Writer[acoustic.Example]
	written int
}

// flush relabels one minibatch and writes it under running example indices.
func (r *relabeler) flush(genPost, relabel []acoustic.Example) error {
	if len(genPost) == 0 {
		return nil
	}
	avg, err := acoustic.AveragePosteriors(r.nnets, genPost)
	if err != nil {
		return err
	}
	for i := range relabel {
		eg := relabel[i]
		eg.Labels = acoustic.Relabel(avg.RawRowView(i), r.minPost, r.rng)
		if err := r.out.Write(strconv.Itoa(r.written), eg); err != nil {
			return err
		}
		r.written++
	}
	return nil
}

func run(ctx context.Context, env *cli.Env, args []string) error {
	batch := env.Config.GetInt("minibatch-size")
	if batch <= 0 {
		return cli.Usagef("--minibatch-size must be positive, got %d", batch)
	}
	minPost := env.Config.GetFloat64("min-post")
	if !(minPost > 0 && minPost <= 1) {
		return cli.Usagef("--min-post must be in (0, 1], got %g", minPost)
	}
	numNnets := len(args) - 3
	genSpec, relabelSpec, outSpec := args[numNnets], args[numNnets+1], args[numNnets+2]

	r := &relabeler{minPost: minPost, rng: rand.New(rand.NewSource(env.Config.GetInt64("srand")))}
	for _, name := range args[:numNnets] {
		am, err := acoustic.ReadAmNnet(name)
		if err != nil {
			return err
		}
		r.nnets = append(r.nnets, am.Nnet)
	}

	gen, err := acoustic.OpenExampleSequential(genSpec)
	if err != nil {
		return err
	}
	defer gen.Close()
	rel, err := acoustic.OpenExampleSequential(relabelSpec)
	if err != nil {
		return err
	}
	defer rel.Close()
	if r.out, err = acoustic.OpenExampleWriter(outSpec); err != nil {
		return err
	}
	defer r.out.Close()

	var genBuf, relBuf []acoustic.Example
	processed := 0
	for gen.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !rel.Next() {
			if err := rel.Err(); err != nil {
				return err
			}
			return errors.Errorf("%s ended before %s at example %s", relabelSpec, genSpec, gen.Key())
		}
		if gen.Key() != rel.Key() {
			return errors.Errorf("example keys differ: %s in %s, %s in %s", gen.Key(), genSpec, rel.Key(), relabelSpec)
		}
		genBuf = append(genBuf, gen.Value())
		relBuf = append(relBuf, rel.Value())
		processed++
		if len(genBuf) == batch {
			if err := r.flush(genBuf, relBuf); err != nil {
				return err
			}
			genBuf, relBuf = genBuf[:0], relBuf[:0]
		}
	}
	if err := gen.Err(); err != nil {
		return err
	}
	if len(genBuf) > 0 {
		env.Log.Infof("doing partial minibatch of size %d", len(genBuf))
		if err := r.flush(genBuf, relBuf); err != nil {
			return err
		}
	}

	env.Log.Infof("finished re-labeling, processed %d examples", processed)
	if processed == 0 {
		return cli.Failedf("no examples processed")
	}
	return r.out.Close()
}

func main() {
	cli.Main(tool)
}
