package pipeline

import (
	"os"

	"github.com/mgpai22/captionkit/internal/logging"
)

type StageStats struct {
	Done     int
	Skipped  int
	Failed   int
	Warnings int
}

// Summary counts stage outcomes for one run.
type Summary struct {
	RunID           string
	Videos          int
	Ready           int
	Stages          map[string]*StageStats
	ManifestPath    string
	AssignmentsPath string
}

func newSummary(runID string) *Summary {
	s := &Summary{RunID: runID, Stages: make(map[string]*StageStats, len(Stages))}
	for _, name := range Stages {
		s.Stages[name] = &StageStats{}
	}
	return s
}

// Failed is the number of failed stage invocations across all videos.
func (s *Summary) Failed() int {
	n := 0
	for _, st := range s.Stages {
		n += st.Failed
	}
	return n
}

func (s *Summary) record(logger *logging.Logger, stage string, err error, skipped bool, warnings int) {
	st := s.Stages[stage]
	st.Warnings += warnings
	switch {
	case err != nil:
		st.Failed++
		logger.Errorw("stage failed", "stage", stage, "error", err)
	case skipped:
		st.Skipped++
		logger.Debugw("stage skipped", "stage", stage)
	default:
		st.Done++
		logger.Infow("stage done", "stage", stage)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
