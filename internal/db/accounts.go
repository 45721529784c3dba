package db

import (
	"context"
	"fmt"
	"time"

	"github.com/go-ports/spaccount/internal/models"
	"github.com/go-ports/spaccount/internal/resultset"
)

// Login bookkeeping columns of the user table.
const (
	colLastLoginDate             = "last_login_date"
	colLastLoginServerOnlineDate = "last_loginserver_online_date"
	colLastGameServerOnlineDate  = "last_gameserver_online_date"
)

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// CreateUser inserts a user and returns its generated id.
// Returns an error wrapping ErrDuplicate if the name is taken.
func (d *DB) CreateUser(ctx context.Context, u models.NewUser) (int64, error) {
	q := `INSERT INTO user (name, password, is_male) VALUES (?, ?, ?)`
	args := []any{u.Name, u.Password, u.IsMale}
	if u.CreationIP != "" {
		q = `INSERT INTO user (name, password, is_male, creation_ip) VALUES (?, ?, ?, ?)`
		args = append(args, u.CreationIP)
	}

	rs, err := d.exec(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("CreateUser: %w", err)
	}
	defer rs.Close()
	return rs.InsertID(), nil
}

// GetUserID returns the id of the user called name, or (0, false, nil) if
// there is none.
func (d *DB) GetUserID(ctx context.Context, name string) (int64, bool, error) {
	const q = `SELECT id FROM user WHERE name = ?`

	rs, err := d.query(ctx, q, name)
	if err != nil {
		return 0, false, fmt.Errorf("GetUserID: %w", err)
	}
	defer rs.Close()

	n, err := rs.RowCount()
	if err != nil {
		return 0, false, fmt.Errorf("GetUserID: %w", newQueryError(q, err))
	}
	if n == 0 {
		return 0, false, nil
	}
	v, err := rs.Value()
	if err != nil {
		return 0, false, fmt.Errorf("GetUserID: %w", newQueryError(q, err))
	}
	id, err := v.Int64()
	if err != nil {
		return 0, false, fmt.Errorf("GetUserID: %w", newQueryError(q, err))
	}
	return id, true, nil
}

// GetUserLoginInfo returns the credentials, deletion flag and effective ban
// of a user, or found=false if the user does not exist.
func (d *DB) GetUserLoginInfo(ctx context.Context, userID int64) (models.UserLoginInfo, bool, error) {
	const q = `SELECT password, is_deleted FROM user WHERE id = ?`

	var info models.UserLoginInfo
	found, err := d.readFirst(ctx, q, []any{userID}, func(rs *resultset.ResultSet) error {
		var err error
		if info.Password, err = getString(rs, "password"); err != nil {
			return err
		}
		info.IsDeleted, err = getBool(rs, "is_deleted")
		return err
	})
	if err != nil || !found {
		return models.UserLoginInfo{}, false, wrapOp("GetUserLoginInfo", err)
	}

	ban, banned, err := d.effectiveBan(ctx, "userban", "user_id", userID)
	if err != nil {
		return models.UserLoginInfo{}, false, fmt.Errorf("GetUserLoginInfo: %w", err)
	}
	if banned {
		info.Ban = &ban
	}
	return info, true, nil
}

// GetUserPostLoginInfo returns the profile sent after a successful login, or
// found=false if the user does not exist.
func (d *DB) GetUserPostLoginInfo(ctx context.Context, userID int64) (models.UserPostLoginInfo, bool, error) {
	const q = "SELECT is_male, auth, default_character, `rank`, rank_record, points, code " +
		"FROM user WHERE id = ?"

	var info models.UserPostLoginInfo
	found, err := d.readFirst(ctx, q, []any{userID}, func(rs *resultset.ResultSet) error {
		var err error
		if info.IsMale, err = getBool(rs, "is_male"); err != nil {
			return err
		}
		ints := []struct {
			col string
			dst *int
		}{
			{"auth", &info.Auth},
			{"default_character", &info.DefaultCharacter},
			{"rank", &info.Rank},
			{"rank_record", &info.RankRecord},
			{"points", &info.Points},
			{"code", &info.Code},
		}
		for _, f := range ints {
			if *f.dst, err = getInt(rs, f.col); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil || !found {
		return models.UserPostLoginInfo{}, false, wrapOp("GetUserPostLoginInfo", err)
	}
	return info, true, nil
}

// UpdateUserLastLoginDate stamps the user's last login with the server time.
func (d *DB) UpdateUserLastLoginDate(ctx context.Context, userID int64) error {
	return d.touchUser(ctx, "UpdateUserLastLoginDate", colLastLoginDate, userID)
}

// UpdateUserLastLoginServerOnlineDate records that the user is online on the login server.
func (d *DB) UpdateUserLastLoginServerOnlineDate(ctx context.Context, userID int64) error {
	return d.touchUser(ctx, "UpdateUserLastLoginServerOnlineDate", colLastLoginServerOnlineDate, userID)
}

// UpdateUserLastGameServerOnlineDate records that the user is online on a game server.
func (d *DB) UpdateUserLastGameServerOnlineDate(ctx context.Context, userID int64) error {
	return d.touchUser(ctx, "UpdateUserLastGameServerOnlineDate", colLastGameServerOnlineDate, userID)
}

// touchUser sets a date column of the user table to the server time.
// col is always one of the col* constants.
func (d *DB) touchUser(ctx context.Context, op, col string, userID int64) error {
	q := fmt.Sprintf(`UPDATE user SET %s = %s WHERE id = ?`, col, d.dialect.now)
	rs, err := d.exec(ctx, q, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return rs.Close()
}

// CreateOrUpdateUserIP records that the user showed up from ip, refreshing
// last_show_up_date when the pair is already known.
func (d *DB) CreateOrUpdateUserIP(ctx context.Context, userID int64, ip string) error {
	q := fmt.Sprintf(
		`INSERT INTO userip (user_id, ip, first_show_up_date, last_show_up_date)
		VALUES (?, ?, %[1]s, %[1]s) %[2]s`,
		d.dialect.now, d.dialect.upsertUserIP,
	)
	rs, err := d.exec(ctx, q, userID, ip)
	if err != nil {
		return fmt.Errorf("CreateOrUpdateUserIP: %w", err)
	}
	return rs.Close()
}

// ---------------------------------------------------------------------------
// Bans
// ---------------------------------------------------------------------------

// CreateUserBan bans a user until expiresAt, or permanently when expiresAt
// is nil. Returns the id of the ban.
func (d *DB) CreateUserBan(ctx context.Context, userID int64, expiresAt *time.Time) (int64, error) {
	id, err := d.createBan(ctx, "userban", "user_id", userID, expiresAt)
	if err != nil {
		return 0, fmt.Errorf("CreateUserBan: %w", err)
	}
	return id, nil
}

// CreateIPBan bans an IP address until expiresAt, or permanently when
// expiresAt is nil. Returns the id of the ban.
func (d *DB) CreateIPBan(ctx context.Context, ip string, expiresAt *time.Time) (int64, error) {
	id, err := d.createBan(ctx, "ipban", "ip", ip, expiresAt)
	if err != nil {
		return 0, fmt.Errorf("CreateIPBan: %w", err)
	}
	return id, nil
}

// GetIPBanInfo returns the effective ban of ip, or found=false if ip has
// never been banned.
func (d *DB) GetIPBanInfo(ctx context.Context, ip string) (models.Ban, bool, error) {
	ban, found, err := d.effectiveBan(ctx, "ipban", "ip", ip)
	if err != nil {
		return models.Ban{}, false, fmt.Errorf("GetIPBanInfo: %w", err)
	}
	return ban, found, nil
}

// createBan inserts into table (userban or ipban) keyed by keyCol.
func (d *DB) createBan(ctx context.Context, table, keyCol string, key any, expiresAt *time.Time) (int64, error) {
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?)`, table, keyCol)
	args := []any{key}
	if expiresAt != nil {
		q = fmt.Sprintf(`INSERT INTO %s (%s, expiration_date) VALUES (?, %s)`, table, keyCol, d.dialect.fromUnix)
		args = append(args, expiresAt.Unix())
	}

	rs, err := d.exec(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	defer rs.Close()
	return rs.InsertID(), nil
}

// effectiveBan picks the ban that applies to key: any permanent ban first,
// otherwise the one expiring last. Expired bans are still reported; the
// caller decides with Ban.Active.
func (d *DB) effectiveBan(ctx context.Context, table, keyCol string, key any) (models.Ban, bool, error) {
	q := fmt.Sprintf(
		`SELECT expiration_date IS NULL AS permanent, %s AS expiration_date_unix
		FROM %s
		WHERE %s = ?
		ORDER BY permanent DESC, expiration_date_unix DESC
		LIMIT 1`,
		d.dialect.unixTime("expiration_date"), table, keyCol,
	)

	var ban models.Ban
	found, err := d.readFirst(ctx, q, []any{key}, func(rs *resultset.ResultSet) error {
		var err error
		if ban.Permanent, err = getBool(rs, "permanent"); err != nil || ban.Permanent {
			return err
		}
		v, err := rs.Get("expiration_date_unix")
		if err != nil {
			return err
		}
		sec, err := v.Int64()
		if err != nil {
			return err
		}
		ban.ExpiresAt = time.Unix(sec, 0).UTC()
		return nil
	})
	if err != nil {
		return models.Ban{}, false, err
	}
	return ban, found, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// readFirst runs q and, when it returns at least one row, hands the result
// to read. Errors from read are wrapped with q.
func (d *DB) readFirst(ctx context.Context, q string, args []any, read func(*resultset.ResultSet) error) (bool, error) {
	rs, err := d.query(ctx, q, args...)
	if err != nil {
		return false, err
	}
	defer rs.Close()

	n, err := rs.RowCount()
	if err != nil {
		return false, newQueryError(q, err)
	}
	if n == 0 {
		return false, nil
	}
	if err := read(rs); err != nil {
		return false, newQueryError(q, err)
	}
	return true, nil
}

func wrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func getString(rs *resultset.ResultSet, col string) (string, error) {
	v, err := rs.Get(col)
	if err != nil {
		return "", err
	}
	return v.Text()
}

func getInt(rs *resultset.ResultSet, col string) (int, error) {
	v, err := rs.Get(col)
	if err != nil {
		return 0, err
	}
	return v.Int()
}

func getBool(rs *resultset.ResultSet, col string) (bool, error) {
	v, err := rs.Get(col)
	if err != nil {
		return false, err
	}
	return v.Bool()
}
