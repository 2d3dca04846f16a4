package logsvc

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elearn/core"
	"github.com/trezcool/elearn/core/session"
)

func TestRollbarLogger(t *testing.T) {
	out := new(bytes.Buffer)
	logger := NewRollbarLogger(log.New(out, "", 0), core.NewTestConfig())

	idt := session.Identity{UserID: "u1", Name: "Ann"}
	logger.Error("saving session", errors.New("redis down"), idt, map[string]interface{}{"path": "/login"})
	logger.Info("started")

	got := out.String()
	assert.True(t, strings.HasPrefix(got, "[error] saving session\nredis down\n"), got)
	assert.Contains(t, got, "map[path:/login]\n")
	assert.True(t, strings.HasSuffix(got, "[info] started\n"), got)
	assert.NotContains(t, got, "Ann")
}

func Test_splitArgs(t *testing.T) {
	first := session.Identity{UserID: "u1"}
	second := session.Identity{UserID: "u2"}
	err := errors.New("boom")

	idt, rest := splitArgs([]interface{}{err, first, second, 42})
	require.NotNil(t, idt)
	assert.Equal(t, first, *idt)
	assert.Equal(t, []interface{}{err, 42}, rest)

	idt, rest = splitArgs(nil)
	assert.Nil(t, idt)
	assert.Empty(t, rest)
}
