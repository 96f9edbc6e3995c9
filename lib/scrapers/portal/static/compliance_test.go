package static

import (
	"homework-backend/lib/scrapers/portal"
)

var (
	_ portal.Session        = session{}
	_ portal.Adapter        = (*Client)(nil)
	_ portal.StatePersister = (*Client)(nil)
)
