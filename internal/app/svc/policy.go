package svc

import (
	"github.com/maroux/heroku-deployer/internal/app"
	"time"
)

const (
	// WindowOffset is the fixed UTC offset the promotion window is evaluated in.
	WindowOffset = -8 * 60 * 60
	// WindowEnd is the time of day the staging promotion stops being accepted.
	WindowEnd = 14 * time.Hour
)

// Window is a half-open time-of-day interval [Start, End) in a fixed zone.
type Window struct {
	Zone  *time.Location
	Start time.Duration
	End   time.Duration
}

// NewWindow returns the staging promotion window: [00:00, 14:00) UTC-08:00.
func NewWindow() Window {
	return Window{
		Zone:  time.FixedZone("UTC-8", WindowOffset),
		Start: 0,
		End:   WindowEnd,
	}
}

// Contains reports whether the time of day of t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	lt := t.In(w.Zone)
	sinceMidnight := time.Duration(lt.Hour())*time.Hour +
		time.Duration(lt.Minute())*time.Minute +
		time.Duration(lt.Second())*time.Second +
		time.Duration(lt.Nanosecond())
	return sinceMidnight >= w.Start && sinceMidnight < w.End
}

// NewPolicy creates a new instance of the promotion policy.
func NewPolicy(window Window) app.PolicySvc {
	return Policy{window: window}
}

// Policy decides which stage an event triggers.
type Policy struct {
	window Window
}

// Decide maps the event onto a stage. Unrelated events and staging events outside the window are no-ops.
func (p Policy) Decide(t app.Target, e app.Event) app.Decision {
	switch t.Variant {
	case app.TargetVariantSingle:
		if e.Ref == app.RefPrefix+t.Branches.Deploy {
			return app.Decision{Stage: app.StageDirect, Eligible: true}
		}
	case app.TargetVariantPipeline:
		if e.Ref == app.RefPrefix+t.Branches.Next {
			if !p.window.Contains(e.At) {
				return app.Decision{Stage: app.StageStaging, Reason: "outside of the promotion window"}
			}
			return app.Decision{Stage: app.StageStaging, Eligible: true}
		}
	}
	return app.Decision{Reason: "ref is not tracked"}
}
