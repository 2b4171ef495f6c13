package metrics

import "time"

// Mode labels the rewrite mode of a page.
type Mode string

const (
	ModeStatic  Mode = "static"
	ModeDynamic Mode = "dynamic"
)

// Recorder defines observability hooks for page rewrites and item sources.
type Recorder interface {
	ObservePageRewrite(mode Mode, d time.Duration, success bool)
	AddLinkOutcome(outcome string, n int)
	AddClones(n int)
	IncItemFetch(source string, success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePageRewrite(Mode, time.Duration, bool) {}
func (NoopRecorder) AddLinkOutcome(string, int)                   {}
func (NoopRecorder) AddClones(int)                                {}
func (NoopRecorder) IncItemFetch(string, bool)                    {}
