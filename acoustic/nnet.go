package acoustic

import (
	"github.com/pkg/errors"

	"github.com/ieee0824/asrtools/internal/kio"
)

// AmNnet is a transition model followed by the network that scores its
// pdfs, the layout of nnet model files.
type AmNnet struct {
	Trans *TransitionModel
	Nnet  *DNN
}

// NumPdfs is the network output dimension.
func (am *AmNnet) NumPdfs() int { return am.Nnet.OutputDim() }

// Write stores the model in name.
func (am *AmNnet) Write(name string, binary bool) error {
	return kio.WriteObjects(name, binary, am.Trans.serialize(), am.Nnet)
}

// ReadAmNnet loads and checks a model written by AmNnet.Write.
func ReadAmNnet(name string) (*AmNnet, error) {
	var st serializedTransitionModel
	d := &DNN{}
	if err := kio.ReadObjects(name, &st, d); err != nil {
		return nil, err
	}
	am := &AmNnet{Trans: st.model(), Nnet: d}
	if err := am.Trans.Check(); err != nil {
		return nil, errors.Wrapf(err, "model %s", name)
	}
	if err := d.Check(); err != nil {
		return nil, errors.Wrapf(err, "model %s", name)
	}
	if n := am.Trans.NumPdfs(); n > d.OutputDim() {
		return nil, errors.Errorf("model %s: transition model uses %d pdfs, network has %d outputs", name, n, d.OutputDim())
	}
	return am, nil
}
