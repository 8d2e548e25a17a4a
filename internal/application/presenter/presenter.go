package presenter

import "github.com/turtacn/molview/internal/application/analysis"

// Presenter subscribes progress and notifications to one orchestrator.
type Presenter struct {
	Progress *Progress
	Notifier *Notifier
}

func New(notifier *Notifier) *Presenter {
	return &Presenter{Progress: NewProgress(), Notifier: notifier}
}

// OnEvent implements analysis.Listener.
func (p *Presenter) OnEvent(e analysis.Event) {
	p.Progress.OnEvent(e)
	p.Notifier.OnEvent(e)
}
