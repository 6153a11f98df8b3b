package repos

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// OpenDB connects to the backend, pings it and makes sure the products
// table exists. A failure here is meant to stop the process.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch driver {
	case DriverMySQL:
		dsn, err = mysqlDSN(dsn)
		if err != nil {
			return nil, err
		}
		db, err = sqlx.Open(DriverMySQL, dsn)
	case DriverSQLite, "":
		driver = DriverSQLite
		db, err = sqlx.Open(DriverSQLite, dsn)
		if err == nil {
			// one writer; also keeps ":memory:" databases on a single connection
			db.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := ensureSchema(db, driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

// mysqlDSN forces clientFoundRows so that UPDATE reports matched rows rather
// than changed rows; an update that rewrites identical values is not a 404.
func mysqlDSN(dsn string) (string, error) {
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	mc.ClientFoundRows = true
	return mc.FormatDSN(), nil
}

func ensureSchema(db *sqlx.DB, driver string) error {
	schema := `
CREATE TABLE IF NOT EXISTS products(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  store TEXT NOT NULL,
  picture TEXT NOT NULL DEFAULT ''
);`
	if driver == DriverMySQL {
		schema = `
CREATE TABLE IF NOT EXISTS products(
  id INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  name VARCHAR(255) NOT NULL,
  email VARCHAR(255) NOT NULL,
  store VARCHAR(255) NOT NULL,
  picture VARCHAR(512) NOT NULL DEFAULT ''
)`
	}
	_, err := db.Exec(schema)
	return err
}
