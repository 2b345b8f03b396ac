package providers

import "time"

const (
	// shutdownTimeout bounds each handle's graceful shutdown.
	shutdownTimeout = 30 * time.Second
)
