package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/observa/core"
	appfs "github.com/trezcool/observa/fs"
)

// Engines
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite3"
)

var (
	errUnknownEngine = errors.New("unknown database engine")

	gooseRunFunc = goose.Run // mockable
)

func dsn(dbName string, admin bool, conf *core.Config) (string, error) {
	dbc := conf.Database
	usr, pwd := dbc.User, dbc.Password
	if admin && dbc.AdminUser != "" {
		usr, pwd = dbc.AdminUser, dbc.AdminPassword
	}

	switch dbc.Engine {
	case Postgres:
		sslMode := "require"
		if dbc.DisableTLS {
			sslMode = "disable"
		}
		q := make(url.Values)
		q.Set("sslmode", sslMode)
		q.Set("timezone", "utc")

		u := url.URL{
			Scheme:   Postgres,
			User:     url.UserPassword(usr, pwd),
			Host:     dbc.Address(),
			Path:     dbName,
			RawQuery: q.Encode(),
		}
		return u.String(), nil

	case MySQL:
		mc := mysql.NewConfig()
		mc.User = usr
		mc.Passwd = pwd
		mc.Net = "tcp"
		mc.Addr = dbc.Address()
		mc.DBName = dbName
		mc.ParseTime = true
		mc.ClientFoundRows = true // matched rows, not changed ones
		mc.Loc = time.UTC
		if !dbc.DisableTLS {
			mc.TLSConfig = "true"
		}
		return mc.FormatDSN(), nil

	case SQLite:
		q := make(url.Values)
		q.Set("_foreign_keys", "1")
		q.Set("_busy_timeout", "5000")
		q.Set("_loc", "UTC")
		return fmt.Sprintf("file:%s?%s", dbc.Path, q.Encode()), nil
	}
	return "", errors.Wrap(errUnknownEngine, dbc.Engine)
}

func open(dbName string, admin bool, conf *core.Config) (*sqlx.DB, error) {
	source, err := dsn(dbName, admin, conf)
	if err != nil {
		return nil, err
	}
	return sqlx.Open(conf.Database.Engine, source)
}

// Open opens the application database of the configured engine.
func Open(conf *core.Config) (*sqlx.DB, error) {
	db, err := open(conf.Database.Name, false, conf)
	if err != nil {
		return nil, err
	}
	if conf.Database.Engine == SQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func exists(db *sqlx.DB, query, name string) (bool, error) {
	var found bool
	err := db.QueryRowx(query, name).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return found, err
}

func createAppUser(db *sqlx.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}

	found, err := exists(db, "SELECT true FROM pg_roles WHERE rolname = $1", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if !found {
		q := fmt.Sprintf(
			"CREATE USER %s CREATEDB ENCRYPTED PASSWORD '%s'",
			quoteIdent(conf.Database.User), conf.Database.Password,
		)
		if _, err = db.Exec(q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(db *sqlx.DB, conf *core.Config) error {
	found, err := exists(db, "SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !found {
		if _, err = db.Exec("CREATE DATABASE " + quoteIdent(conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist provisions the postgres app user and database. Other engines are left as is.
func CreateIfNotExist(conf *core.Config) error {
	if conf.Database.Engine != Postgres {
		return nil
	}

	// connect as admin
	db, err := open("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = ping(db); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(db, conf); err != nil {
		return errors.Wrap(err, "creating app user")
	}

	// create DB as app user
	appDB, err := open("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = appDB.Close() }()

	return errors.Wrap(createDB(appDB, conf), "creating database")
}

func quoteIdent(s string) string {
	return `"` + s + `"`
}

// Migrate runs a goose command ("up", "down", "status", ...) with the embedded migrations.
func Migrate(db *sqlx.DB, command string, args ...string) error {
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect(db.DriverName()); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	if err := gooseRunFunc(command, db.DB, "migrations", args...); err != nil {
		return errors.Wrapf(err, "running migrations %q", command)
	}
	return nil
}
