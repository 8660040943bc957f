// SPDX-License-Identifier: MIT
package transport

import (
	applog "specmon/internal/log"
)

// LoggingTransport implements Transport by logging a one-line summary of
// every frame at debug level.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the loudest band of a Frame, or the raw value of anything else.
func (lt *LoggingTransport) Send(data any) error {
	frame, ok := data.(Frame)
	if !ok {
		applog.Debugf("LOG_TRANSPORT: received (%T): %+v", data, data)
		return nil
	}

	loudest := 0
	for i, v := range frame.Bands {
		if v > frame.Bands[loudest] {
			loudest = i
		}
	}
	applog.Debugf("LOG_TRANSPORT: frame %d running=%t loudest band %d (%.2f)",
		frame.Sequence, frame.Running, loudest, frame.Bands[loudest])
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("LOG_TRANSPORT: Close called")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
