package browser

import (
	"homework-backend/lib/scrapers/portal"
)

// the engine discovers optional capabilities through type assertions,
// so losing one of these is a silent behavior change
var (
	_ portal.Session         = (*Session)(nil)
	_ portal.Adapter         = (*Adapter)(nil)
	_ portal.FailureReporter = (*Adapter)(nil)
)
