package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	appfs "github.com/saadqamar22/LMS-2.0-sub000/fs"
)

func dsn(dbName string, admin bool, conf *core.Config) string {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func open(dbName string, admin bool, conf *core.Config) (*sqlx.DB, error) {
	return sqlx.Open(conf.Database.Engine, dsn(dbName, admin, conf))
}

// Open connects to the app database and waits for it to be ready.
func Open(conf *core.Config) (*sqlx.DB, error) {
	db, err := open(conf.Database.Name, false, conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
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

func exists(db *sqlx.DB, query string, args ...interface{}) (bool, error) {
	var found bool
	if err := db.Get(&found, "SELECT EXISTS ("+query+")", args...); err != nil {
		return false, err
	}
	return found, nil
}

// createAppUser creates the login role the API connects with. It may create the LMS database.
func createAppUser(db *sqlx.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}
	found, err := exists(db, "SELECT 1 FROM pg_roles WHERE rolname = $1", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if found {
		return nil
	}
	q := fmt.Sprintf("CREATE ROLE %s LOGIN CREATEDB PASSWORD %s",
		pq.QuoteIdentifier(conf.Database.User), pq.QuoteLiteral(conf.Database.Password))
	if _, err = db.Exec(q); err != nil {
		return errors.Wrap(err, "creating app user")
	}
	return nil
}

func createDB(db *sqlx.DB, conf *core.Config) error {
	found, err := exists(db, "SELECT 1 FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if found {
		return nil
	}
	if _, err = db.Exec("CREATE DATABASE " + pq.QuoteIdentifier(conf.Database.Name)); err != nil {
		return errors.Wrap(err, "creating database")
	}
	return nil
}

// grantAppUser runs on the LMS database. Attendance days and deadlines are compared in UTC.
// With a separate admin user, only the app user may create objects in the public schema.
func grantAppUser(db *sqlx.DB, conf *core.Config) error {
	dbName := pq.QuoteIdentifier(conf.Database.Name)
	stmts := []string{
		fmt.Sprintf("ALTER DATABASE %s SET timezone TO 'UTC'", dbName),
		"REVOKE CREATE ON SCHEMA public FROM PUBLIC",
	}
	if conf.Database.User == "" || conf.Database.AdminUser == "" {
		return runAll(db, stmts[:1])
	}
	appUser := pq.QuoteIdentifier(conf.Database.User)
	stmts = append(stmts,
		fmt.Sprintf("GRANT CONNECT, TEMPORARY ON DATABASE %s TO %s", dbName, appUser),
		fmt.Sprintf("GRANT USAGE, CREATE ON SCHEMA public TO %s", appUser),
	)
	return runAll(db, stmts)
}

func runAll(db *sqlx.DB, stmts []string) error {
	for _, q := range stmts {
		if _, err := db.Exec(q); err != nil {
			return errors.Wrapf(err, "running %q", q)
		}
	}
	return nil
}

// CreateIfNotExist bootstraps the app role and the LMS database, then grants the role what the
// migrations and the API need. Safe to run on every start.
func CreateIfNotExist(conf *core.Config) error {
	admin, err := open("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = admin.Close() }()
	if err = ping(admin.DB); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(admin, conf); err != nil {
		return err
	}

	// the app user owns the database
	app, err := open("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = app.Close() }()
	if err = createDB(app, conf); err != nil {
		return err
	}

	lms, err := open(conf.Database.Name, true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = lms.Close() }()
	return errors.Wrap(grantAppUser(lms, conf), "granting app user")
}

// Migrate applies every pending embedded migration.
func Migrate(db *sqlx.DB) error {
	if err := goose.RunFS("up", db.DB, appfs.FS, "migrations"); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
