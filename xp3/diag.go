package xp3

// DiagSink receives non-fatal diagnostics produced while parsing or
// extracting an archive: protected-archive notices, skipped items missing a
// required sub-chunk, and oversized-chunk recoveries. The core never logs
// directly; callers supply an implementation (package driver backs this
// with logrus).
type DiagSink interface {
	Warn(format string, args ...interface{})
}

// nopDiagSink discards every warning. Used when a caller passes a nil sink.
type nopDiagSink struct{}

func (nopDiagSink) Warn(format string, args ...interface{}) {}

func diagOrNop(d DiagSink) DiagSink {
	if d == nil {
		return nopDiagSink{}
	}
	return d
}

// warnf is a small helper so call sites read like fmt.Sprintf calls.
func warnf(d DiagSink, format string, args ...interface{}) {
	diagOrNop(d).Warn(format, args...)
}
