package core

// Logger is the app wide logger.
// args may contain errors, extra data (map[string]interface{}) and the acting user.Identity.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
