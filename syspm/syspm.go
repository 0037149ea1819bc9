// Package syspm sequences low-power mode transitions across the drivers
// that need to take part in them.
package syspm

// Phase of a power-mode transition delivered to each callback
type Phase uint8

const (
	CheckReady       Phase = iota // May the transition proceed?
	CheckFail                     // A later callback refused, undo CheckReady
	BeforeTransition              // Last chance before the mode change
	AfterTransition               // Back in active mode
)

var phaseNames = [...]string{"check_ready", "check_fail", "before_transition", "after_transition"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "phase?"
}

type Status uint8

const (
	Success Status = iota
	Fail
)

func (s Status) String() string {
	if s == Success {
		return "success"
	}
	return "fail"
}

// Callback reacts to one phase of a transition.
type Callback func(Phase) Status

// Chain is an ordered set of callbacks for one power mode. The zero value
// is an empty chain.
type Chain struct {
	callbacks []Callback
}

// Register appends cb to the chain. Callbacks are checked in registration
// order and resumed in reverse.
func (c *Chain) Register(cb Callback) {
	if cb != nil {
		c.callbacks = append(c.callbacks, cb)
	}
}

// Len returns the number of registered callbacks.
func (c *Chain) Len() int { return len(c.callbacks) }

// Transition runs one complete mode change. Every callback must accept
// CheckReady; if one refuses, those that already accepted see CheckFail in
// reverse order and Fail is returned without calling enter. Otherwise all
// callbacks see BeforeTransition, enter is called (it blocks for the time
// spent in the low-power mode), and AfterTransition is delivered in reverse.
func (c *Chain) Transition(enter func()) Status {
	for i, cb := range c.callbacks {
		if cb(CheckReady) != Success {
			for j := i - 1; j >= 0; j-- {
				c.callbacks[j](CheckFail)
			}
			return Fail
		}
	}

	for _, cb := range c.callbacks {
		cb(BeforeTransition)
	}
	if enter != nil {
		enter()
	}
	for i := len(c.callbacks) - 1; i >= 0; i-- {
		c.callbacks[i](AfterTransition)
	}
	return Success
}

// Notify delivers a single phase to every callback in registration order
// and returns Fail if any of them failed.
func (c *Chain) Notify(p Phase) Status {
	st := Success
	for _, cb := range c.callbacks {
		if cb(p) != Success {
			st = Fail
		}
	}
	return st
}
