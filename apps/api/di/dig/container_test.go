package dig_container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dig_container "github.com/trezcool/elearn/apps/api/di/dig"
	echoapi "github.com/trezcool/elearn/apps/api/echo"
	"github.com/trezcool/elearn/core"
	"github.com/trezcool/elearn/core/session"
	"github.com/trezcool/elearn/core/user"
	"github.com/trezcool/elearn/storage"
	"github.com/trezcool/elearn/storage/files"
)

func TestNew(t *testing.T) {
	newConfig := func() *core.Config {
		conf := core.NewTestConfig()
		conf.Uploads.Dir = t.TempDir()
		return conf
	}
	c := dig_container.New(newConfig)

	err := c.Invoke(func(
		conf *core.Config,
		repos *storage.Repositories,
		mgr *session.Manager,
		fileStore core.FileStore,
		usrSvc *user.Service,
		server *echoapi.Server,
		dbLogger dig_container.DBLoggerParam,
	) {
		assert.Equal(t, storage.EngineMemory, conf.Database.Engine)
		assert.NotNil(t, repos.Users)
		assert.NotNil(t, repos.Courses)
		assert.NotNil(t, repos.Enrollments)
		assert.Equal(t, conf.Server.SessionTTL, mgr.TTL())
		assert.IsType(t, &files.LocalStore{}, fileStore)
		assert.NotNil(t, usrSvc)
		assert.NotNil(t, server)
		assert.NotNil(t, dbLogger.Logger)
		assert.NoError(t, repos.Close(t.Context()))
	})
	require.NoError(t, err)
}
