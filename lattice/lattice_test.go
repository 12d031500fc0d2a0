package lattice

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/ieee0824/asrtools/table"
)

// twoFrames builds a lattice with two competing labels per frame followed
// by an epsilon arc into the final state:
//
//	0 -1/10 (1,1)-> 1 -3 (0,1)-> 2 -eps (0.5,0)-> 3 final
//	0 -2/20 (1,2)-> 1 -4 (0,2)-> 2
func twoFrames() *Lattice {
	l := New()
	for i := 0; i < 4; i++ {
		l.AddState()
	}
	l.Start = 0
	l.AddArc(0, Arc{ILabel: 1, OLabel: 10, Weight: Weight{1, 1}, Next: 1})
	l.AddArc(0, Arc{ILabel: 2, OLabel: 20, Weight: Weight{1, 2}, Next: 1})
	l.AddArc(1, Arc{ILabel: 3, Weight: Weight{0, 1}, Next: 2})
	l.AddArc(1, Arc{ILabel: 4, Weight: Weight{0, 2}, Next: 2})
	l.AddArc(2, Arc{Weight: Weight{0.5, 0}, Next: 3})
	l.SetFinal(3, One)
	return l
}

func TestForwardBackward(t *testing.T) {
	l := twoFrames()
	post, logLike, acLike, err := l.ForwardBackward()
	if err != nil {
		t.Fatal(err)
	}
	if len(post) != 2 {
		t.Fatalf("len(post) = %d, want 2 frames", len(post))
	}
	p := 1 / (1 + math.Exp(-1))
	want := [][]float64{{p, 1 - p}, {p, 1 - p}}
	labels := [][]int32{{1, 2}, {3, 4}}
	for f := range post {
		if len(post[f]) != 2 {
			t.Fatalf("frame %d = %v", f, post[f])
		}
		for j, pr := range post[f] {
			if pr.Label != labels[f][j] || math.Abs(pr.Weight-want[f][j]) > 1e-9 {
				t.Errorf("frame %d entry %d = %+v, want label %d weight %f", f, j, pr, labels[f][j], want[f][j])
			}
		}
	}
	wantLike := -3.5 + 2*math.Log1p(math.Exp(-1))
	if math.Abs(logLike-wantLike) > 1e-9 {
		t.Errorf("logLike = %f, want %f", logLike, wantLike)
	}
	if wantAc := -2 * (2 - p); math.Abs(acLike-wantAc) > 1e-9 {
		t.Errorf("acLogLike = %f, want %f", acLike, wantAc)
	}
}

func TestBestPath(t *testing.T) {
	p, err := twoFrames().BestPath()
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Alignment) != 2 || p.Alignment[0] != 1 || p.Alignment[1] != 3 {
		t.Errorf("Alignment = %v, want [1 3]", p.Alignment)
	}
	if len(p.Words) != 1 || p.Words[0] != 10 {
		t.Errorf("Words = %v, want [10]", p.Words)
	}
	if p.Weight != (Weight{1.5, 2}) {
		t.Errorf("Weight = %+v, want {1.5 2}", p.Weight)
	}
}

func TestScale(t *testing.T) {
	l := twoFrames()
	l.SetFinal(3, Weight{2, 4})
	l.Scale(0.5, 0.25)
	if w := l.States[0].Arcs[1].Weight; w != (Weight{0.5, 0.5}) {
		t.Errorf("scaled arc weight = %+v, want {0.5 0.5}", w)
	}
	if w := l.States[3].Final; w != (Weight{1, 1}) {
		t.Errorf("scaled final weight = %+v, want {1 1}", w)
	}
	if l.States[0].IsFinal() {
		t.Error("scaling made a non-final state final")
	}
}

func TestTopSort(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		l.AddState()
	}
	l.Start = 2
	l.AddArc(2, Arc{ILabel: 5, Weight: Weight{0, 1}, Next: 0})
	l.AddArc(0, Arc{ILabel: 6, Weight: Weight{0, 1}, Next: 1})
	l.SetFinal(1, One)

	if l.IsTopSorted() {
		t.Fatal("IsTopSorted() = true before sorting")
	}
	if err := l.TopSort(); err != nil {
		t.Fatal(err)
	}
	if !l.IsTopSorted() || l.Start != 0 {
		t.Errorf("after TopSort: sorted %v, start %d", l.IsTopSorted(), l.Start)
	}
	if !l.States[2].IsFinal() {
		t.Error("final state not renumbered")
	}
	post, _, _, err := l.ForwardBackward()
	if err != nil || len(post) != 2 || post[1][0].Label != 6 {
		t.Errorf("ForwardBackward after TopSort = %v, %v", post, err)
	}
}

func TestCycles(t *testing.T) {
	l := New()
	l.AddState()
	l.AddState()
	l.Start = 0
	l.AddArc(0, Arc{ILabel: 1, Next: 1})
	l.AddArc(1, Arc{ILabel: 1, Next: 0})
	l.SetFinal(1, One)
	if err := l.TopSort(); !errors.Is(err, ErrCycle) {
		t.Errorf("TopSort error = %v, want ErrCycle", err)
	}
	if _, err := l.BestPath(); !errors.Is(err, ErrCycle) {
		t.Errorf("BestPath error = %v, want ErrCycle", err)
	}
}

func TestNoPath(t *testing.T) {
	l := New()
	l.AddState()
	l.AddState()
	l.Start = 0
	l.AddArc(0, Arc{ILabel: 1, Next: 1})
	if _, err := l.BestPath(); !errors.Is(err, ErrNoPath) {
		t.Errorf("BestPath error = %v, want ErrNoPath", err)
	}
	if _, _, _, err := l.ForwardBackward(); !errors.Is(err, ErrNoPath) {
		t.Errorf("ForwardBackward error = %v, want ErrNoPath", err)
	}
	if _, err := New().BestPath(); !errors.Is(err, ErrNoPath) {
		t.Errorf("BestPath on empty lattice error = %v, want ErrNoPath", err)
	}
}

func TestInconsistentTimes(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		l.AddState()
	}
	l.Start = 0
	l.AddArc(0, Arc{ILabel: 1, Next: 1})
	l.AddArc(0, Arc{Next: 2})
	l.AddArc(1, Arc{Next: 2})
	l.SetFinal(2, One)
	if _, _, err := l.StateTimes(); err == nil {
		t.Error("StateTimes accepted a state reached at two different frames")
	}
}

func TestCodec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lat.ark")
	w, err := OpenWriter("ark,t:" + path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write("utt1", twoFrames()); err != nil {
		t.Fatal(err)
	}
	if err := w.Write("utt2", New()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "utt1\n0\t1\t1\t10\t1,1\n") {
		t.Errorf("archive starts %q", data)
	}

	r, err := OpenSequential("ark:" + path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	var lats []*Lattice
	for r.Next() {
		lats = append(lats, r.Value())
	}
	if err := r.Err(); err != nil {
		t.Fatal(err)
	}
	if len(lats) != 2 {
		t.Fatalf("read %d lattices, want 2", len(lats))
	}
	got := lats[0]
	if got.Start != 0 || len(got.States) != 4 || got.NumArcs() != 5 || got.States[3].Final != One {
		t.Errorf("utt1 = %+v", got)
	}
	if !lats[1].Empty() {
		t.Errorf("utt2 = %+v, want empty", lats[1])
	}
}

func TestDecodeWeightsAndErrors(t *testing.T) {
	l, err := Codec{}.Decode("3 4 7 0\n4\n")
	if err != nil {
		t.Fatal(err)
	}
	if l.Start != 3 || len(l.States) != 5 || l.States[3].Arcs[0].Weight != One || !l.States[4].IsFinal() {
		t.Errorf("Decode = %+v", l)
	}
	for _, body := range []string{"0 1 2\n", "0 1 x 0 1,1\n", "0 1 2 3 1;1\n", "-1 0,0\n"} {
		if _, err := (Codec{}).Decode(body); !errors.Is(err, table.ErrFormat) {
			t.Errorf("Decode(%q) error = %v, want ErrFormat", body, err)
		}
	}
}
