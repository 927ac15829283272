package core

// Logger is any leveled logging backend.
// Extra args may include an error, a map of extra context or the acting User;
// backends decide what to do with them.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
