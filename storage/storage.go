package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core"
	"github.com/trezcool/elearn/core/course"
	"github.com/trezcool/elearn/core/enrollment"
	"github.com/trezcool/elearn/core/user"
	"github.com/trezcool/elearn/storage/database"
	inmemdb "github.com/trezcool/elearn/storage/database/inmem"
	mongorepos "github.com/trezcool/elearn/storage/database/mongo"
	sqlxrepos "github.com/trezcool/elearn/storage/database/sqlx"
)

// database engines
const (
	EngineMemory   = "memory"
	EnginePostgres = "postgres"
	EngineMongo    = "mongo"
)

var ErrUnknownEngine = errors.New("unknown database engine")

// Repositories groups the repositories of one database engine.
type Repositories struct {
	Users       user.Repository
	Courses     course.Repository
	Enrollments enrollment.Repository

	close func(ctx context.Context) error
}

// Close releases the underlying connections.
func (r *Repositories) Close(ctx context.Context) error {
	if r.close == nil {
		return nil
	}
	return r.close(ctx)
}

// Open connects to the engine set in conf.Database.Engine and prepares it (migrations, indexes).
func Open(ctx context.Context, conf *core.Config) (*Repositories, error) {
	switch conf.Database.Engine {
	case EngineMemory, "":
		db := inmemdb.Open()
		return &Repositories{
			Users:       inmemdb.NewUserRepository(db),
			Courses:     inmemdb.NewCourseRepository(db),
			Enrollments: inmemdb.NewEnrollmentRepository(db),
		}, nil

	case EnginePostgres:
		sqlDB, err := database.Setup(ctx, conf)
		if err != nil {
			return nil, errors.Wrap(err, "setting up postgres")
		}
		db := sqlxrepos.NewDB(sqlDB)
		return &Repositories{
			Users:       sqlxrepos.NewUserRepository(db),
			Courses:     sqlxrepos.NewCourseRepository(db),
			Enrollments: sqlxrepos.NewEnrollmentRepository(db),
			close:       func(context.Context) error { return db.Close() },
		}, nil

	case EngineMongo:
		db, err := mongorepos.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err = mongorepos.EnsureIndexes(ctx, db); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, err
		}
		return &Repositories{
			Users:       mongorepos.NewUserRepository(db),
			Courses:     mongorepos.NewCourseRepository(db),
			Enrollments: mongorepos.NewEnrollmentRepository(db),
			close:       func(ctx context.Context) error { return db.Client().Disconnect(ctx) },
		}, nil

	default:
		return nil, errors.Wrap(ErrUnknownEngine, conf.Database.Engine)
	}
}
