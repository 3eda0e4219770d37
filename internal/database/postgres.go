package database

import (
	"database/sql"
	"log"

	"github.com/counselhub/counselhub/internal/stats"
)

// PgCounselRepository holds two connection pools: conn authenticates as the
// application role and is subject to row policies, priv authenticates as the
// service role and bypasses them. When no privileged DSN is configured both
// point at the same pool.
type PgCounselRepository struct {
	log    *log.Logger
	conn   *sql.DB
	priv   *sql.DB
	writer *ResilientWriter
}

func NewPgCounselRepository(logger *log.Logger, dsn, privilegedDSN string, st stats.StatsProvider) (*PgCounselRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	priv := db
	if privilegedDSN != "" && privilegedDSN != dsn {
		priv, err = sql.Open("postgres", privilegedDSN)
		if err != nil {
			return nil, err
		}
		if err := priv.Ping(); err != nil {
			return nil, err
		}
	}

	if st != nil {
		st.RegisterMetric(FallbackMetric)
	}

	return &PgCounselRepository{
		log:    logger,
		conn:   db,
		priv:   priv,
		writer: NewResilientWriter(logger, st),
	}, nil
}

func (db *PgCounselRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgCounselRepository) Close() error {
	if db.priv != nil && db.priv != db.conn {
		db.priv.Close()
	}
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
