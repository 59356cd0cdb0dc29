package driver

import log "github.com/sirupsen/logrus"

// LogrusSink backs xp3.DiagSink with logrus, exactly the way server/base.go
// routes every warning through a package-level logrus logger rather than
// printing directly.
type LogrusSink struct{}

// Warn implements xp3.DiagSink.
func (LogrusSink) Warn(format string, args ...interface{}) {
	log.Warnf(format, args...)
}
