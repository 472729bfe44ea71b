package session

import "time"

// TransitionConfig drives the cross-fade between the podcast info page and the
// live session view.
type TransitionConfig struct {
	Duration time.Duration
	Delay    time.Duration
}

func DefaultTransition() TransitionConfig {
	return TransitionConfig{Duration: 500 * time.Millisecond, Delay: 500 * time.Millisecond}
}

type PageVisibility struct {
	Visible  bool
	Opacity  float64
	Duration time.Duration
	Delay    time.Duration
}

type Layout struct {
	Info    PageVisibility
	Session PageVisibility
}

// Visibility maps the started flag to which page is shown. Only the incoming
// page waits for the delay.
func Visibility(started bool, t TransitionConfig) Layout {
	outgoing := PageVisibility{Visible: false, Opacity: 0, Duration: t.Duration}
	incoming := PageVisibility{Visible: true, Opacity: 1, Duration: t.Duration, Delay: t.Delay}
	if started {
		return Layout{Info: outgoing, Session: incoming}
	}
	return Layout{Info: incoming, Session: outgoing}
}
