package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

// Pool bounds the connection pool; zero fields take the package defaults.
type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

func (p Pool) withDefaults() Pool {
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = 20
	}
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = 5
	}
	if p.MaxIdleConns > p.MaxOpenConns {
		p.MaxIdleConns = p.MaxOpenConns
	}
	if p.ConnMaxIdleTime <= 0 {
		p.ConnMaxIdleTime = 5 * time.Minute
	}
	if p.PingTimeout <= 0 {
		p.PingTimeout = 2 * time.Second
	}
	return p
}

type PgDB struct {
	db          *sqlx.DB
	log         logger.Logger
	pingTimeout time.Duration
}

func NewPostgresDB(ctx context.Context, log logger.Logger, dsn string, pool Pool) (*PgDB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	pool = pool.withDefaults()
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	pgDB := &PgDB{
		db:          db,
		log:         log,
		pingTimeout: pool.PingTimeout,
	}

	if err = pgDB.pingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return pgDB, nil
}

func (pg *PgDB) GetDB() *sqlx.DB {
	return pg.db
}

func (pg *PgDB) Close() error {
	return pg.db.Close()
}

func (pg *PgDB) pingContext(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pg.pingTimeout)
	defer cancel()

	status := "up"
	if err := pg.db.PingContext(ctx); err != nil {
		status = "down"
		pg.log.Error("database status", logger.String("status", status), logger.Err(err))
		return err
	}

	pg.log.Info("database status", logger.String("status", status))
	return nil
}
