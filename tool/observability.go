package tool

// CallObservation captures one dispatched tool call.
type CallObservation struct {
	CallID     string
	ToolName   string
	Direct     bool
	DurationMS int64
	// Success is false when the envelope carries an error or the tool output
	// reports success=false.
	Success   bool
	ErrorCode string
	Error     string
}

// CommandObservation captures one external command execution.
type CommandObservation struct {
	Argv       []string
	Background bool
	DurationMS int64
	Succeeded  bool
	ExitCode   int
	PID        int
}

// Observer receives tool-level observability events.
type Observer interface {
	ObserveCall(observation CallObservation)
	ObserveCommand(observation CommandObservation)
}

// NopObserver discards all observations.
type NopObserver struct{}

func (NopObserver) ObserveCall(CallObservation)       {}
func (NopObserver) ObserveCommand(CommandObservation) {}

type multiObserver []Observer

func (m multiObserver) ObserveCall(observation CallObservation) {
	for _, observer := range m {
		observer.ObserveCall(observation)
	}
}

func (m multiObserver) ObserveCommand(observation CommandObservation) {
	for _, observer := range m {
		observer.ObserveCommand(observation)
	}
}

// MultiObserver fans observations out to every non-nil observer.
func MultiObserver(observers ...Observer) Observer {
	active := make(multiObserver, 0, len(observers))
	for _, observer := range observers {
		if observer != nil {
			active = append(active, observer)
		}
	}
	switch len(active) {
	case 0:
		return NopObserver{}
	case 1:
		return active[0]
	default:
		return active
	}
}

// ObserverOrNop returns observer, or NopObserver when it is nil.
func ObserverOrNop(observer Observer) Observer {
	if observer == nil {
		return NopObserver{}
	}
	return observer
}
