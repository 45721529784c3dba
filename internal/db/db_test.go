package db_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/spaccount/internal/config"
	"github.com/go-ports/spaccount/internal/db"
	"github.com/go-ports/spaccount/internal/models"
	"github.com/go-ports/spaccount/internal/redaction"
)

// openTestDB opens a fresh SQLite account store in a temp directory, creates
// the schema and registers t.Cleanup to close it.
func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}
	d, err := db.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openTestDB: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if err := d.CreateSchema(context.Background()); err != nil {
		t.Fatalf("openTestDB schema: %v", err)
	}
	return d
}

// mustCreateUser inserts a user and returns its id.
func mustCreateUser(c *qt.C, d *db.DB, name string) int64 {
	id, err := d.CreateUser(context.Background(), models.NewUser{Name: name, Password: "pw-" + name, IsMale: true})
	c.Assert(err, qt.IsNil)
	return id
}

// ---------------------------------------------------------------------------
// Open / DSN
// ---------------------------------------------------------------------------

func TestOpen_HappyPath(t *testing.T) {
	c := qt.New(t)
	d := openTestDB(t)
	c.Assert(d, qt.IsNotNil)
	c.Assert(d.Driver(), qt.Equals, config.DriverSQLite)

	// Schema creation is idempotent.
	c.Assert(d.CreateSchema(context.Background()), qt.IsNil)
}

func TestOpen_FailurePath(t *testing.T) {
	c := qt.New(t)

	c.Run("unsupported driver", func(c *qt.C) {
		_, err := db.Open(context.Background(), config.DatabaseConfig{Driver: "oracle"})
		c.Assert(err, qt.ErrorMatches, `db.Open: unsupported driver "oracle"`)
	})

	c.Run("unreachable mysql server", func(c *qt.C) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := db.Open(ctx, config.DatabaseConfig{
			Driver:   config.DriverMySQL,
			Host:     "127.0.0.1",
			Port:     1,
			User:     "sp",
			Password: "p@ss w/rd",
			Schema:   "sp",
		})
		c.Assert(err, qt.ErrorMatches, "db.Open: unable to connect to mysql server: .*")
		c.Assert(strings.Contains(err.Error(), "p@ss w/rd"), qt.IsFalse)
	})
}

func TestDSN(t *testing.T) {
	c := qt.New(t)

	c.Run("mysql", func(c *qt.C) {
		dsn, err := db.DSN(config.DatabaseConfig{
			Driver:   config.DriverMySQL,
			Host:     "db.internal",
			Port:     3307,
			User:     "sp",
			Password: "pw",
			Schema:   "sp",
		})
		c.Assert(err, qt.IsNil)
		c.Assert(strings.HasPrefix(dsn, "sp:pw@tcp(db.internal:3307)/sp"), qt.IsTrue, qt.Commentf("dsn: %s", dsn))
	})

	c.Run("sqlite", func(c *qt.C) {
		dsn, err := db.DSN(config.DatabaseConfig{Driver: config.DriverSQLite, Path: "/tmp/a.db"})
		c.Assert(err, qt.IsNil)
		c.Assert(dsn, qt.Matches, `/tmp/a\.db\?.*_foreign_keys=on.*`)
	})

	c.Run("unknown", func(c *qt.C) {
		_, err := db.DSN(config.DatabaseConfig{Driver: "x"})
		c.Assert(err, qt.IsNotNil)
	})
}

func TestDSN_RedactedForAnyPassword(t *testing.T) {
	c := qt.New(t)

	for _, pw := range []string{"plain", "a/b", "p@ss", "x y", "we:ird@/pa ss"} {
		c.Run(pw, func(c *qt.C) {
			dsn, err := db.DSN(config.DatabaseConfig{
				Driver:   config.DriverMySQL,
				Host:     "localhost",
				Port:     3306,
				User:     "sp",
				Password: pw,
				Schema:   "sp",
			})
			c.Assert(err, qt.IsNil)

			got := redaction.DSN(dsn)
			c.Assert(strings.Contains(got, pw), qt.IsFalse, qt.Commentf("redacted: %s", got))
			c.Assert(got, qt.Matches, `sp:\[REDACTED\]@tcp\(localhost:3306\)/sp\?.*timeout=10s.*`)
		})
	}
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func TestCreateUserAndGetUserID_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("generated ids are distinct and resolvable by name", func(c *qt.C) {
		d := openTestDB(t)
		a := mustCreateUser(c, d, "alice")
		b := mustCreateUser(c, d, "bob")
		c.Assert(a, qt.Not(qt.Equals), b)
		c.Assert(a > 0, qt.IsTrue)

		id, found, err := d.GetUserID(ctx, "bob")
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsTrue)
		c.Assert(id, qt.Equals, b)
	})

	c.Run("unknown name is not found", func(c *qt.C) {
		d := openTestDB(t)
		id, found, err := d.GetUserID(ctx, "ghost")
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsFalse)
		c.Assert(id, qt.Equals, int64(0))
	})

	c.Run("quotes in values are stored verbatim", func(c *qt.C) {
		d := openTestDB(t)
		name := `o'neil"; DROP TABLE user; --`
		id, err := d.CreateUser(ctx, models.NewUser{Name: name, Password: "it's"})
		c.Assert(err, qt.IsNil)

		got, found, err := d.GetUserID(ctx, name)
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsTrue)
		c.Assert(got, qt.Equals, id)

		info, found, err := d.GetUserLoginInfo(ctx, id)
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsTrue)
		c.Assert(info.Password, qt.Equals, "it's")
	})

	c.Run("creation ip is optional", func(c *qt.C) {
		d := openTestDB(t)
		_, err := d.CreateUser(ctx, models.NewUser{Name: "withip", Password: "pw", CreationIP: "10.1.2.3"})
		c.Assert(err, qt.IsNil)
	})
}

func TestCreateUser_Duplicate(t *testing.T) {
	c := qt.New(t)
	d := openTestDB(t)
	mustCreateUser(c, d, "alice")

	_, err := d.CreateUser(context.Background(), models.NewUser{Name: "alice", Password: "x"})
	c.Assert(err, qt.ErrorIs, db.ErrDuplicate)

	var qe *db.QueryError
	c.Assert(errors.As(err, &qe), qt.IsTrue)
	c.Assert(qe.Query, qt.Contains, "INSERT INTO user")
	c.Assert(err, qt.ErrorMatches, ".*The query string was: INSERT INTO user.*")
}

func TestGetUserLoginInfo_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("fresh user has password and no ban", func(c *qt.C) {
		d := openTestDB(t)
		id := mustCreateUser(c, d, "alice")

		info, found, err := d.GetUserLoginInfo(ctx, id)
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsTrue)
		c.Assert(info.Password, qt.Equals, "pw-alice")
		c.Assert(info.IsDeleted, qt.IsFalse)
		c.Assert(info.Ban, qt.IsNil)
	})

	c.Run("unknown user is not found", func(c *qt.C) {
		d := openTestDB(t)
		_, found, err := d.GetUserLoginInfo(ctx, 999)
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsFalse)
	})

	c.Run("latest temporary ban is reported", func(c *qt.C) {
		d := openTestDB(t)
		id := mustCreateUser(c, d, "alice")
		early := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		late := time.Date(2031, 6, 1, 12, 30, 0, 0, time.UTC)

		_, err := d.CreateUserBan(ctx, id, &late)
		c.Assert(err, qt.IsNil)
		_, err = d.CreateUserBan(ctx, id, &early)
		c.Assert(err, qt.IsNil)

		info, _, err := d.GetUserLoginInfo(ctx, id)
		c.Assert(err, qt.IsNil)
		c.Assert(info.Ban, qt.IsNotNil)
		c.Assert(info.Ban.Permanent, qt.IsFalse)
		c.Assert(info.Ban.ExpiresAt.Equal(late), qt.IsTrue, qt.Commentf("got %v", info.Ban.ExpiresAt))
	})

	c.Run("permanent ban wins over temporary bans", func(c *qt.C) {
		d := openTestDB(t)
		id := mustCreateUser(c, d, "alice")
		late := time.Date(2031, 6, 1, 0, 0, 0, 0, time.UTC)

		_, err := d.CreateUserBan(ctx, id, &late)
		c.Assert(err, qt.IsNil)
		_, err = d.CreateUserBan(ctx, id, nil)
		c.Assert(err, qt.IsNil)

		info, _, err := d.GetUserLoginInfo(ctx, id)
		c.Assert(err, qt.IsNil)
		c.Assert(info.Ban, qt.IsNotNil)
		c.Assert(info.Ban.Permanent, qt.IsTrue)
	})

	c.Run("bans of other users do not leak", func(c *qt.C) {
		d := openTestDB(t)
		a := mustCreateUser(c, d, "alice")
		b := mustCreateUser(c, d, "bob")
		_, err := d.CreateUserBan(ctx, b, nil)
		c.Assert(err, qt.IsNil)

		info, _, err := d.GetUserLoginInfo(ctx, a)
		c.Assert(err, qt.IsNil)
		c.Assert(info.Ban, qt.IsNil)
	})
}

func TestGetUserPostLoginInfo_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	d := openTestDB(t)

	id, err := d.CreateUser(ctx, models.NewUser{Name: "carol", Password: "pw", IsMale: false})
	c.Assert(err, qt.IsNil)

	info, found, err := d.GetUserPostLoginInfo(ctx, id)
	c.Assert(err, qt.IsNil)
	c.Assert(found, qt.IsTrue)
	c.Assert(info, qt.DeepEquals, models.UserPostLoginInfo{IsMale: false})

	_, found, err = d.GetUserPostLoginInfo(ctx, id+100)
	c.Assert(err, qt.IsNil)
	c.Assert(found, qt.IsFalse)
}

func TestUpdateUserDates_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	d := openTestDB(t)
	id := mustCreateUser(c, d, "alice")

	c.Assert(d.UpdateUserLastLoginDate(ctx, id), qt.IsNil)
	c.Assert(d.UpdateUserLastLoginServerOnlineDate(ctx, id), qt.IsNil)
	c.Assert(d.UpdateUserLastGameServerOnlineDate(ctx, id), qt.IsNil)

	// Unknown ids update nothing and are not an error.
	c.Assert(d.UpdateUserLastLoginDate(ctx, id+1), qt.IsNil)
}

func TestCreateOrUpdateUserIP_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	d := openTestDB(t)
	id := mustCreateUser(c, d, "alice")

	c.Assert(d.CreateOrUpdateUserIP(ctx, id, "10.0.0.1"), qt.IsNil)
	c.Assert(d.CreateOrUpdateUserIP(ctx, id, "10.0.0.1"), qt.IsNil)
	c.Assert(d.CreateOrUpdateUserIP(ctx, id, "10.0.0.2"), qt.IsNil)
}

// ---------------------------------------------------------------------------
// IP bans
// ---------------------------------------------------------------------------

func TestIPBans_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("never banned ip is not found", func(c *qt.C) {
		d := openTestDB(t)
		_, found, err := d.GetIPBanInfo(ctx, "10.0.0.1")
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsFalse)
	})

	c.Run("temporary ban", func(c *qt.C) {
		d := openTestDB(t)
		until := time.Date(2032, 3, 4, 5, 6, 7, 0, time.UTC)
		id, err := d.CreateIPBan(ctx, "10.0.0.1", &until)
		c.Assert(err, qt.IsNil)
		c.Assert(id > 0, qt.IsTrue)

		ban, found, err := d.GetIPBanInfo(ctx, "10.0.0.1")
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsTrue)
		c.Assert(ban.Permanent, qt.IsFalse)
		c.Assert(ban.ExpiresAt.Equal(until), qt.IsTrue)
	})

	c.Run("permanent ban", func(c *qt.C) {
		d := openTestDB(t)
		_, err := d.CreateIPBan(ctx, "::1", nil)
		c.Assert(err, qt.IsNil)

		ban, found, err := d.GetIPBanInfo(ctx, "::1")
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsTrue)
		c.Assert(ban.Permanent, qt.IsTrue)
		c.Assert(ban.ExpiresAt.IsZero(), qt.IsTrue)
	})

	c.Run("expired ban is still reported", func(c *qt.C) {
		d := openTestDB(t)
		past := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
		_, err := d.CreateIPBan(ctx, "10.9.9.9", &past)
		c.Assert(err, qt.IsNil)

		ban, found, err := d.GetIPBanInfo(ctx, "10.9.9.9")
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsTrue)
		c.Assert(ban.Active(time.Now()), qt.IsFalse)
	})
}
