package confidence

import "github.com/sirupsen/logrus"

// Stats are the run-level counters shared by both modes.
type Stats struct {
	Utterances       int // records in the sequential stream
	SystemUtterances int // utterance x system pairs matched, stream system included
	Succeeded        int // utterances written
	Missing          int
	Mismatched       int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Utterances += o.Utterances
	s.SystemUtterances += o.SystemUtterances
	s.Succeeded += o.Succeeded
	s.Missing += o.Missing
	s.Mismatched += o.Mismatched
}

// Healthy reports whether the run produced output and the failures stay
// below the clean successes.
func (s Stats) Healthy() bool {
	bad := s.Missing + s.Mismatched
	return s.Succeeded > 0 && bad < s.Succeeded-bad
}

// fail counts a non-matched fetch.
func (s *Stats) fail(st Status) {
	switch st {
	case MissingKey:
		s.Missing++
	case LengthMismatch:
		s.Mismatched++
	}
}

// Log writes the run summary.
func (s Stats) Log(log logrus.FieldLogger, numSystems int) {
	log.WithFields(logrus.Fields{
		"utterances": s.Utterances,
		"pairs":      s.SystemUtterances,
		"systems":    numSystems,
	}).Info("processed utterances")
	log.WithFields(logrus.Fields{
		"written":    s.Succeeded,
		"missing":    s.Missing,
		"mismatched": s.Mismatched,
	}).Info("produced output")
}
