package redaction_test

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/go-sql-driver/mysql"

	"github.com/go-ports/spaccount/internal/redaction"
)

func TestRedact_PlainText(t *testing.T) {
	c := qt.New(t)
	got := redaction.Redact("SELECT id FROM user WHERE name = ?")
	c.Assert(got, qt.Equals, "SELECT id FROM user WHERE name = ?")
}

func TestSecret(t *testing.T) {
	c := qt.New(t)
	c.Assert(redaction.Secret(""), qt.Equals, "")
	c.Assert(redaction.Secret("hunter2"), qt.Equals, "[REDACTED]")
}

func mysqlDSN(password string) string {
	mc := mysql.NewConfig()
	mc.User = "sp"
	mc.Passwd = password
	mc.Net = "tcp"
	mc.Addr = "localhost:3306"
	mc.DBName = "sp"
	return mc.FormatDSN()
}

func TestDSN_MasksAnyPassword(t *testing.T) {
	c := qt.New(t)

	for _, pw := range []string{"hunter2", "a/b", "p@ss", "x y", "c:o:l", "tail/@/"} {
		c.Run(pw, func(c *qt.C) {
			got := redaction.DSN(mysqlDSN(pw))
			c.Assert(strings.Contains(got, pw), qt.IsFalse, qt.Commentf("redacted: %s", got))
			c.Assert(strings.HasPrefix(got, "sp:[REDACTED]@tcp(localhost:3306)/sp"), qt.IsTrue,
				qt.Commentf("redacted: %s", got))
		})
	}
}

func TestDSN_Unchanged(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name string
		dsn  string
	}{
		{name: "empty password", dsn: mysqlDSN("")},
		{name: "sqlite path", dsn: "/var/lib/spdb/spdb.db?_foreign_keys=on&_busy_timeout=5000"},
		{name: "not a dsn", dsn: "hello"},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			c.Assert(redaction.DSN(tt.dsn), qt.Equals, tt.dsn)
		})
	}
}

func TestRedact_Patterns(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "password assignment", input: "password=hunter2", want: "password=[REDACTED]"},
		{name: "yaml password", input: "password: hunter2", want: "password: [REDACTED]"},
		{name: "quoted password", input: `password="hunter2" host=x`, want: "password=[REDACTED] host=x"},
		{name: "passwd", input: "passwd=abc", want: "passwd=[REDACTED]"},
		{name: "env var", input: "SPDB_DB_PASSWORD=abc", want: "SPDB_DB_PASSWORD=[REDACTED]"},
		{name: "dsn inside error", input: "dial sp:pw@tcp(db:3306)/sp: refused", want: "dial sp:[REDACTED]@tcp(db:3306)/sp: refused"},
		{name: "dsn with slash", input: "dial sp:a/b@tcp(db:3306)/sp: refused", want: "dial sp:[REDACTED]@tcp(db:3306)/sp: refused"},
		{name: "dsn with at sign", input: "sp:p@ss@tcp(db:3306)/sp", want: "sp:[REDACTED]@tcp(db:3306)/sp"},
		{name: "unix socket", input: "sp:pw@unix(/run/mysqld.sock)/sp", want: "sp:[REDACTED]@unix(/run/mysqld.sock)/sp"},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			c.Assert(redaction.Redact(tt.input), qt.Equals, tt.want)
		})
	}
}

func TestRedact_KnownSecrets(t *testing.T) {
	c := qt.New(t)

	got := redaction.Redact("access denied for sp using x y, sp:x y@tcp(db:3306)/sp", "x y", "")
	c.Assert(strings.Contains(got, "x y"), qt.IsFalse, qt.Commentf("redacted: %s", got))
	c.Assert(got, qt.Equals, "access denied for sp using [REDACTED], sp:[REDACTED]@tcp(db:3306)/sp")
}
