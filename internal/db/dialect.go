package db

import (
	"context"
	"fmt"

	"github.com/go-ports/spaccount/internal/config"
)

// dialect holds the SQL fragments that differ between drivers. Only these
// fixed fragments are spliced into statement text.
type dialect struct {
	name string
	// now is the current-timestamp expression.
	now string
	// unixTime converts a DATETIME column to unix seconds.
	unixTime func(col string) string
	// fromUnix converts a bound unix-seconds parameter to DATETIME.
	fromUnix string
	// upsertUserIP is the conflict clause of the userip upsert.
	upsertUserIP string
	schema       []string
}

var dialects = map[string]*dialect{
	config.DriverMySQL: {
		name:         config.DriverMySQL,
		now:          "NOW()",
		unixTime:     func(col string) string { return "UNIX_TIMESTAMP(" + col + ")" },
		fromUnix:     "FROM_UNIXTIME(?)",
		upsertUserIP: "ON DUPLICATE KEY UPDATE last_show_up_date = NOW()",
		schema: []string{
			"CREATE TABLE IF NOT EXISTS user (" +
				"id INT NOT NULL AUTO_INCREMENT PRIMARY KEY," +
				"name VARCHAR(32) NOT NULL," +
				"password VARCHAR(64) NOT NULL," +
				"is_male TINYINT(1) NOT NULL DEFAULT 1," +
				"is_deleted TINYINT(1) NOT NULL DEFAULT 0," +
				"auth INT NOT NULL DEFAULT 0," +
				"default_character INT NOT NULL DEFAULT 0," +
				"`rank` INT NOT NULL DEFAULT 0," +
				"rank_record INT NOT NULL DEFAULT 0," +
				"points INT NOT NULL DEFAULT 0," +
				"code INT NOT NULL DEFAULT 0," +
				"creation_ip VARCHAR(45) NULL," +
				"creation_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP," +
				"last_login_date DATETIME NULL," +
				"last_loginserver_online_date DATETIME NULL," +
				"last_gameserver_online_date DATETIME NULL," +
				"UNIQUE KEY uq_user_name (name)" +
				") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
			"CREATE TABLE IF NOT EXISTS userban (" +
				"id INT NOT NULL AUTO_INCREMENT PRIMARY KEY," +
				"user_id INT NOT NULL," +
				"expiration_date DATETIME NULL," +
				"creation_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP," +
				"KEY ix_userban_user (user_id)" +
				") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
			"CREATE TABLE IF NOT EXISTS ipban (" +
				"id INT NOT NULL AUTO_INCREMENT PRIMARY KEY," +
				"ip VARCHAR(45) NOT NULL," +
				"expiration_date DATETIME NULL," +
				"creation_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP," +
				"KEY ix_ipban_ip (ip)" +
				") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
			"CREATE TABLE IF NOT EXISTS userip (" +
				"user_id INT NOT NULL," +
				"ip VARCHAR(45) NOT NULL," +
				"first_show_up_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP," +
				"last_show_up_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP," +
				"PRIMARY KEY (user_id, ip)" +
				") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		},
	},
	config.DriverSQLite: {
		name:         config.DriverSQLite,
		now:          "datetime('now')",
		unixTime:     func(col string) string { return "CAST(strftime('%s', " + col + ") AS INTEGER)" },
		fromUnix:     "datetime(?, 'unixepoch')",
		upsertUserIP: "ON CONFLICT(user_id, ip) DO UPDATE SET last_show_up_date = datetime('now')",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS user (
				id                INTEGER PRIMARY KEY AUTOINCREMENT,
				name              TEXT NOT NULL UNIQUE,
				password          TEXT NOT NULL,
				is_male           INTEGER NOT NULL DEFAULT 1,
				is_deleted        INTEGER NOT NULL DEFAULT 0,
				auth              INTEGER NOT NULL DEFAULT 0,
				default_character INTEGER NOT NULL DEFAULT 0,
				` + "`rank`" + `     INTEGER NOT NULL DEFAULT 0,
				rank_record       INTEGER NOT NULL DEFAULT 0,
				points            INTEGER NOT NULL DEFAULT 0,
				code              INTEGER NOT NULL DEFAULT 0,
				creation_ip       TEXT,
				creation_date     TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
				last_login_date   TEXT,
				last_loginserver_online_date TEXT,
				last_gameserver_online_date  TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS userban (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id         INTEGER NOT NULL,
				expiration_date TEXT,
				creation_date   TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS ix_userban_user ON userban (user_id)`,
			`CREATE TABLE IF NOT EXISTS ipban (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				ip              TEXT NOT NULL,
				expiration_date TEXT,
				creation_date   TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS ix_ipban_ip ON ipban (ip)`,
			`CREATE TABLE IF NOT EXISTS userip (
				user_id            INTEGER NOT NULL,
				ip                 TEXT NOT NULL,
				first_show_up_date TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
				last_show_up_date  TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (user_id, ip)
			)`,
		},
	},
}

// CreateSchema creates the account tables if they do not exist.
func (d *DB) CreateSchema(ctx context.Context) error {
	for _, s := range d.dialect.schema {
		if _, err := d.exec(ctx, s); err != nil {
			return fmt.Errorf("CreateSchema: %w", err)
		}
	}
	return nil
}
