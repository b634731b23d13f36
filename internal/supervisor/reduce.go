package supervisor

// EventKind identifies what a supervised process just did.
type EventKind int

const (
	// EventStdout is one line of standard output.
	EventStdout EventKind = iota

	// EventStderr is one line of diagnostic output.
	EventStderr

	// EventTerminated means the process exited. Code is nil when no exit
	// code is available (signal, stop).
	EventTerminated

	// EventError means waiting on the process failed.
	EventError
)

// Event is one input to the supervision loop.
type Event struct {
	Kind    EventKind
	Line    string
	Code    *int
	Signal  string
	Message string
}

// NotificationKind says what, if anything, the loop should deliver.
type NotificationKind int

const (
	NotifyNone NotificationKind = iota
	NotifyProgress
	NotifyTerminal
)

// Notification is the output of one reducer step.
type Notification struct {
	Kind NotificationKind

	// Line is set for NotifyProgress.
	Line string

	// Outcome is set for NotifyTerminal.
	Outcome Outcome
}

// LoopState is the state carried between reducer steps.
type LoopState struct {
	lastLine string
	hasLast  bool

	// Done is true once a terminal notification has been produced.
	Done bool

	// Outcome is valid once Done is true.
	Outcome Outcome
}

// Reduce applies one event. It never produces anything after the first
// terminal notification, so feeding it the whole event stream yields zero
// or more progress notifications followed by at most one terminal.
func Reduce(s LoopState, e Event) (LoopState, Notification) {
	if s.Done {
		return s, Notification{}
	}

	switch e.Kind {
	case EventStderr:
		if s.hasLast && e.Line == s.lastLine {
			return s, Notification{}
		}
		s.lastLine = e.Line
		s.hasLast = true
		return s, Notification{Kind: NotifyProgress, Line: e.Line}

	case EventTerminated:
		var o Outcome
		switch {
		case e.Code == nil:
			o = Outcome{Kind: OutcomeUnknownTermination, Signal: e.Signal}
		case *e.Code == 0:
			o = Outcome{Kind: OutcomeSuccess}
		default:
			o = Outcome{Kind: OutcomeNonZeroExit, Code: *e.Code}
		}
		return finish(s, o)

	case EventError:
		return finish(s, Outcome{Kind: OutcomeSpawnOrRuntimeError, Err: e.Message})
	}

	// stdout is retained for diagnostics only
	return s, Notification{}
}

// Finish closes the loop when the event stream ended. If no terminal event
// was seen it produces an unknown-termination notification.
func Finish(s LoopState) (LoopState, Notification) {
	if s.Done {
		return s, Notification{}
	}
	return finish(s, Outcome{Kind: OutcomeUnknownTermination})
}

func finish(s LoopState, o Outcome) (LoopState, Notification) {
	s.Done = true
	s.Outcome = o
	return s, Notification{Kind: NotifyTerminal, Outcome: o}
}
