package fixture

import "time"

// Window is the predictability state of a fixture relative to kickoff.
type Window string

const (
	WindowOpen     Window = "OPEN"
	WindowLocked   Window = "LOCKED"
	WindowFinished Window = "FINISHED"
)

// Classify maps kickoff, status and the caller's wall clock to a Window.
// It has no side effects and must be re-evaluated on every tick: the lock
// transition happens exactly at kickoff without any server push.
func Classify(kickoff time.Time, status Status, now time.Time) Window {
	if status.IsTerminal() {
		return WindowFinished
	}
	if now.Before(kickoff) && status == StatusNotStarted {
		return WindowOpen
	}
	return WindowLocked
}
