package logsvc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/user"
)

func TestRollbarLogger_fields(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	l := NewRollbarLogger(zap.New(obs), &core.Config{Env: "TEST", Build: "test"})
	l.Enable(false)

	boom := errors.New("boom")
	l.Error("request failed", boom, user.Identity{Username: "ada", Role: user.RoleTeacher}, map[string]interface{}{"path": "/v1/projects"})
	l.Info("started")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "request failed", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, "ada", ctx["username"])
	assert.Equal(t, "Teacher", ctx["role"])
	assert.Equal(t, map[string]interface{}{"path": "/v1/projects"}, ctx["extra"])

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Empty(t, entries[1].Context)
}
