package sequencer

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownStage = errors.New("unknown stage")
	ErrNotRunning   = errors.New("no presentation is running")
)

// Stage is one step of the presentation script.
type Stage int

const (
	StageIntro Stage = iota
	StageBefore
	StageAnimatePath
	StageAnimateFade
	StageAfter
)

// Stages lists the script in order.
var Stages = []Stage{StageIntro, StageBefore, StageAnimatePath, StageAnimateFade, StageAfter}

var stageNames = map[Stage]string{
	StageIntro:       "intro",
	StageBefore:      "before",
	StageAnimatePath: "animate-path",
	StageAnimateFade: "animate-fade",
	StageAfter:       "after",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// ParseStage looks a stage up by name.
func ParseStage(name string) (Stage, error) {
	for s, n := range stageNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStage, name)
}

// From returns the script starting at s.
func From(s Stage) ([]Stage, error) {
	if _, ok := stageNames[s]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStage, int(s))
	}
	return Stages[s:], nil
}
