package acoustic

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/ieee0824/asrtools/internal/mathutil"
)

// Each phone is a left-to-right HMM.
// States: [0]=entry (non-emitting), [1..3]=emitting, [4]=exit (non-emitting).
const (
	NumStatesPerPhone = 5
	NumEmittingStates = 3
)

// PhoneHMM is the topology of one phone: the pdf of each emitting state and
// the log transition matrix between all states.
type PhoneHMM struct {
	Phone    int32
	Pdfs     []int       // [NumEmittingStates] pdf id of emitting state i+1
	TransLog [][]float64 // [NumStatesPerPhone][NumStatesPerPhone]
}

// NewPhoneHMM creates a left-to-right HMM whose emitting states use pdfs.
// Self-loop and forward transitions start at 0.5 each.
func NewPhoneHMM(phone int32, pdfs []int) *PhoneHMM {
	h := &PhoneHMM{
		Phone:    phone,
		Pdfs:     append([]int(nil), pdfs...),
		TransLog: mathutil.NewMat(NumStatesPerPhone, NumStatesPerPhone),
	}
	for i := range h.TransLog {
		for j := range h.TransLog[i] {
			h.TransLog[i][j] = mathutil.LogZero
		}
	}
	h.TransLog[0][1] = 0.0

	logHalf := math.Log(0.5)
	for i := 1; i <= NumEmittingStates; i++ {
		h.TransLog[i][i] = logHalf
		h.TransLog[i][i+1] = logHalf
	}
	return h
}

// IsEmitting returns true if the state index corresponds to an emitting state.
func IsEmitting(stateIdx int) bool {
	return stateIdx >= 1 && stateIdx <= NumEmittingStates
}

// TransitionModel maps phones to the pdfs of their emitting states.
// Phones are numbered from 1; 0 is reserved for epsilon.
type TransitionModel struct {
	Phones []*PhoneHMM
}

// NewTransitionModel builds a model in which phone p+1 uses topology[p] as
// the pdfs of its emitting states.
func NewTransitionModel(topology [][]int) (*TransitionModel, error) {
	tm := &TransitionModel{Phones: make([]*PhoneHMM, len(topology))}
	for p, pdfs := range topology {
		tm.Phones[p] = NewPhoneHMM(int32(p+1), pdfs)
	}
	return tm, tm.Check()
}

// Check validates phone numbering, state counts and pdf ids.
func (tm *TransitionModel) Check() error {
	for i, h := range tm.Phones {
		if h == nil || h.Phone != int32(i+1) {
			return errors.Errorf("transition model: phone slot %d is not phone %d", i, i+1)
		}
		if len(h.Pdfs) != NumEmittingStates {
			return errors.Errorf("transition model: phone %d has %d emitting states, want %d", h.Phone, len(h.Pdfs), NumEmittingStates)
		}
		for _, pdf := range h.Pdfs {
			if pdf < 0 {
				return errors.Errorf("transition model: phone %d has negative pdf %d", h.Phone, pdf)
			}
		}
		if mathutil.Cols(h.TransLog) != NumStatesPerPhone || len(h.TransLog) != NumStatesPerPhone {
			return errors.Errorf("transition model: phone %d transition matrix is not %dx%d", h.Phone, NumStatesPerPhone, NumStatesPerPhone)
		}
	}
	return nil
}

// NumPhones returns the number of phones.
func (tm *TransitionModel) NumPhones() int { return len(tm.Phones) }

// NumPdfs returns one more than the largest pdf id in use.
func (tm *TransitionModel) NumPdfs() int {
	n := 0
	for _, h := range tm.Phones {
		for _, pdf := range h.Pdfs {
			if pdf+1 > n {
				n = pdf + 1
			}
		}
	}
	return n
}

// PdfsForPhones returns the sorted pdfs used by the given phones. exclusive
// is false when one of them is also used by a phone outside the list.
func (tm *TransitionModel) PdfsForPhones(phones []int) (pdfs []int, exclusive bool) {
	listed := make(map[int]bool, len(phones))
	for _, p := range phones {
		listed[p] = true
	}
	inList := make(map[int]bool)
	outside := make(map[int]bool)
	for _, h := range tm.Phones {
		for _, pdf := range h.Pdfs {
			if listed[int(h.Phone)] {
				inList[pdf] = true
			} else {
				outside[pdf] = true
			}
		}
	}
	exclusive = true
	for pdf := range inList {
		pdfs = append(pdfs, pdf)
		if outside[pdf] {
			exclusive = false
		}
	}
	sort.Ints(pdfs)
	return pdfs, exclusive
}
