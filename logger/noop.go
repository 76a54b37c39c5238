package logger

import "time"

// NewNop returns a logger that discards everything. It is the default for
// clients constructed without an explicit logger and is convenient in tests.
func NewNop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

var _ Logger = nopLogger{}

func (nopLogger) Info() LogEvent                     { return nopEvent{} }
func (nopLogger) Error() LogEvent                    { return nopEvent{} }
func (nopLogger) Debug() LogEvent                    { return nopEvent{} }
func (nopLogger) Warn() LogEvent                     { return nopEvent{} }
func (nopLogger) WithFields(_ map[string]any) Logger { return nopLogger{} }

type nopEvent struct{}

func (nopEvent) Msg(string)                         {}
func (nopEvent) Msgf(string, ...any)                {}
func (nopEvent) Err(error) LogEvent                 { return nopEvent{} }
func (nopEvent) Str(string, string) LogEvent        { return nopEvent{} }
func (nopEvent) Int(string, int) LogEvent           { return nopEvent{} }
func (nopEvent) Int64(string, int64) LogEvent       { return nopEvent{} }
func (nopEvent) Dur(string, time.Duration) LogEvent { return nopEvent{} }
func (nopEvent) Interface(string, any) LogEvent     { return nopEvent{} }
func (nopEvent) Bytes(string, []byte) LogEvent      { return nopEvent{} }
