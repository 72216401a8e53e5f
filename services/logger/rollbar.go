package logsvc

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/user"
)

// RollbarLogger writes structured lines through zap and reports them to Rollbar when enabled.
type RollbarLogger struct {
	zl *zap.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(zl *zap.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{zl: zl}
}

// NewZap returns a development logger in debug mode, a JSON production logger otherwise.
func NewZap(conf *core.Config, name string) (*zap.Logger, error) {
	var zl *zap.Logger
	var err error
	if conf.Debug {
		zl, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		zl, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return nil, err
	}
	return zl.Named(name).With(zap.String("env", conf.Env), zap.String("build", conf.Build)), nil
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Sync flushes buffered log lines and pending Rollbar items.
func (l RollbarLogger) Sync() {
	rollbar.Wait()
	_ = l.zl.Sync()
}

// expected fmt: msg | error, map[string]interface{}, user.Identity
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []zap.Field) {
	var idSet bool
	rbArgs := make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	fields := make([]zap.Field, 0, len(args))

	for _, arg := range args {
		switch a := arg.(type) {
		case user.Identity:
			// set logged in User; only one
			if !idSet {
				rollbar.SetPerson(a.Username, a.Username, "")
				fields = append(fields, zap.String("username", a.Username), zap.String("role", string(a.Role)))
				idSet = true
			}
		case error:
			rbArgs = append(rbArgs, a)
			fields = append(fields, zap.Error(a))
		case map[string]interface{}:
			rbArgs = append(rbArgs, a)
			fields = append(fields, zap.Any("extra", a))
		default:
			rbArgs = append(rbArgs, a)
			fields = append(fields, zap.Any("arg", a))
		}
	}
	if !idSet {
		rollbar.ClearPerson()
	}
	return rbArgs, fields
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Debug(rbArgs...)
	l.zl.Debug(msg, fields...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Info(rbArgs...)
	l.zl.Info(msg, fields...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Warning(rbArgs...)
	l.zl.Warn(msg, fields...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Error(rbArgs...)
	l.zl.Error(msg, fields...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Critical(rbArgs...)
	rollbar.Wait()
	l.zl.Fatal(msg, fields...)
}
