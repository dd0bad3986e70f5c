package logging

import "github.com/vvka-141/credprobe/pkg/credprobe"

var (
	_ credprobe.Logger = (*ConsoleLogger)(nil)
	_ credprobe.Logger = (*NullLogger)(nil)
)

// NullLogger discards every message. Tests use it when log output is not
// under assertion.
type NullLogger struct{}

func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Verbose(string, ...interface{}) {}

func (l *NullLogger) Info(string, ...interface{}) {}

func (l *NullLogger) Error(string, ...interface{}) {}
