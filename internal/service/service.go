// Package service implements the account Service that wires configuration
// and the account store into the flows used by the login and game servers.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-ports/spaccount/internal/config"
	"github.com/go-ports/spaccount/internal/db"
	"github.com/go-ports/spaccount/internal/models"
)

// ErrNameTaken is returned by Register when the user name already exists.
var ErrNameTaken = errors.New("user name already taken")

// Server identifies which server reports a user online.
type Server string

// Servers accepted by Heartbeat.
const (
	LoginServer Server = "login"
	GameServer  Server = "game"
)

// Service orchestrates all account operations.
type Service struct {
	Home   string
	Config *config.Config

	database *db.DB
	now      func() time.Time
}

// New initialises a Service rooted at home: it loads <home>/.env and
// <home>/config.yaml and connects to the configured database.
// If home is empty it is resolved via config.GetHome.
func New(ctx context.Context, home string) (*Service, error) {
	if home == "" {
		home = config.GetHome()
	}
	cfg, err := loadConfig(home)
	if err != nil {
		return nil, fmt.Errorf("service.New: %w", err)
	}
	return Open(ctx, home, cfg)
}

// LoadConfig loads <home>/.env and <home>/config.yaml and validates the
// result without touching the database. Callers that need the config before
// connecting, e.g. to set up logging, use it together with Open.
func LoadConfig(home string) (*config.Config, error) {
	cfg, err := loadConfig(home)
	if err != nil {
		return nil, fmt.Errorf("service.LoadConfig: %w", err)
	}
	return cfg, nil
}

func loadConfig(home string) (*config.Config, error) {
	if err := config.LoadDotEnv(home); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(filepath.Join(home, "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Open connects to the database described by cfg. A relative SQLite path is
// resolved against home.
func Open(ctx context.Context, home string, cfg *config.Config) (*Service, error) {
	dbCfg := cfg.Database
	if dbCfg.Driver == config.DriverSQLite && !filepath.IsAbs(dbCfg.Path) {
		dbCfg.Path = filepath.Join(home, dbCfg.Path)
	}
	database, err := db.Open(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("service.Open: %w", err)
	}

	s := NewWithDB(database, cfg)
	s.Home = home
	return s, nil
}

// NewWithDB builds a Service around an already open store.
func NewWithDB(database *db.DB, cfg *config.Config) *Service {
	return &Service{
		Config:   cfg,
		database: database,
		now:      time.Now,
	}
}

// Close releases all resources held by the service.
func (s *Service) Close() error {
	return s.database.Close()
}

// InitSchema creates the account tables if they do not exist.
func (s *Service) InitSchema(ctx context.Context) error {
	return s.database.CreateSchema(ctx)
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// Register validates u and creates the account. Returns ErrNameTaken if the
// name is in use.
func (s *Service) Register(ctx context.Context, u models.NewUser) (int64, error) {
	if err := u.Validate(); err != nil {
		return 0, fmt.Errorf("Register: %w", err)
	}
	if _, exists, err := s.database.GetUserID(ctx, u.Name); err != nil {
		return 0, fmt.Errorf("Register: %w", err)
	} else if exists {
		return 0, fmt.Errorf("Register: %w: %s", ErrNameTaken, u.Name)
	}

	id, err := s.database.CreateUser(ctx, u)
	if errors.Is(err, db.ErrDuplicate) {
		// Lost a race with a concurrent registration.
		return 0, fmt.Errorf("Register: %w: %s", ErrNameTaken, u.Name)
	}
	if err != nil {
		return 0, fmt.Errorf("Register: %w", err)
	}
	slog.Info("user registered", "user_id", id, "name", u.Name)
	return id, nil
}

// UserID returns the id of the named user.
func (s *Service) UserID(ctx context.Context, name string) (int64, bool, error) {
	return s.database.GetUserID(ctx, name)
}

// LoginInfo returns the login info of a user.
func (s *Service) LoginInfo(ctx context.Context, userID int64) (models.UserLoginInfo, bool, error) {
	return s.database.GetUserLoginInfo(ctx, userID)
}

// PostLoginInfo returns the post-login profile of a user.
func (s *Service) PostLoginInfo(ctx context.Context, userID int64) (models.UserPostLoginInfo, bool, error) {
	return s.database.GetUserPostLoginInfo(ctx, userID)
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

// Login authenticates name/password arriving from ip.
//
// Checks run in this order: IP ban, user existence, password, deletion,
// user ban. Only a successful login touches the database: the IP is
// recorded and last_login_date is stamped. Rejections are reported through
// LoginResult.Outcome, not as errors.
func (s *Service) Login(ctx context.Context, name, password, ip string) (*models.LoginResult, error) {
	now := s.now()

	if ip != "" {
		ban, found, err := s.database.GetIPBanInfo(ctx, ip)
		if err != nil {
			return nil, fmt.Errorf("Login: %w", err)
		}
		if found && ban.Active(now) {
			slog.Info("login rejected", "reason", models.LoginIPBanned, "ip", ip)
			return &models.LoginResult{Outcome: models.LoginIPBanned, Ban: &ban}, nil
		}
	}

	userID, found, err := s.database.GetUserID(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}
	if !found {
		return &models.LoginResult{Outcome: models.LoginUnknownUser}, nil
	}

	info, found, err := s.database.GetUserLoginInfo(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}
	if !found {
		// Deleted between the two lookups.
		return &models.LoginResult{Outcome: models.LoginUnknownUser}, nil
	}

	res := &models.LoginResult{UserID: userID}
	switch {
	case subtle.ConstantTimeCompare([]byte(info.Password), []byte(password)) != 1:
		res.Outcome = models.LoginWrongPassword
	case info.IsDeleted:
		res.Outcome = models.LoginDeleted
	case info.Ban != nil && info.Ban.Active(now):
		res.Outcome = models.LoginUserBanned
		res.Ban = info.Ban
	}
	if res.Outcome != "" {
		slog.Info("login rejected", "reason", res.Outcome, "user_id", userID, "ip", ip)
		return res, nil
	}

	if ip != "" {
		if err := s.database.CreateOrUpdateUserIP(ctx, userID, ip); err != nil {
			return nil, fmt.Errorf("Login: %w", err)
		}
	}
	if err := s.database.UpdateUserLastLoginDate(ctx, userID); err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}

	post, found, err := s.database.GetUserPostLoginInfo(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}
	if !found {
		return &models.LoginResult{Outcome: models.LoginUnknownUser}, nil
	}

	res.Outcome = models.LoginOK
	res.PostInfo = &post
	slog.Info("login accepted", "user_id", userID, "ip", ip)
	return res, nil
}

// ---------------------------------------------------------------------------
// Bans
// ---------------------------------------------------------------------------

// expiry converts a ban duration to an expiration; zero means permanent.
func (s *Service) expiry(d time.Duration) (*time.Time, error) {
	if d < 0 {
		return nil, fmt.Errorf("ban duration %s is negative", d)
	}
	if d == 0 {
		return nil, nil
	}
	t := s.now().Add(d).UTC().Truncate(time.Second)
	return &t, nil
}

// BanUser bans a user for d, or permanently when d is zero.
func (s *Service) BanUser(ctx context.Context, userID int64, d time.Duration) (int64, error) {
	exp, err := s.expiry(d)
	if err != nil {
		return 0, fmt.Errorf("BanUser: %w", err)
	}
	if _, found, err := s.database.GetUserPostLoginInfo(ctx, userID); err != nil {
		return 0, fmt.Errorf("BanUser: %w", err)
	} else if !found {
		return 0, fmt.Errorf("BanUser: no user with id %d", userID)
	}
	id, err := s.database.CreateUserBan(ctx, userID, exp)
	if err != nil {
		return 0, fmt.Errorf("BanUser: %w", err)
	}
	slog.Info("user banned", "user_id", userID, "ban_id", id, "duration", d)
	return id, nil
}

// BanIP bans an IP address for d, or permanently when d is zero.
func (s *Service) BanIP(ctx context.Context, ip string, d time.Duration) (int64, error) {
	if !models.ValidIP(ip) {
		return 0, fmt.Errorf("BanIP: %q is not a valid address", ip)
	}
	exp, err := s.expiry(d)
	if err != nil {
		return 0, fmt.Errorf("BanIP: %w", err)
	}
	id, err := s.database.CreateIPBan(ctx, ip, exp)
	if err != nil {
		return 0, fmt.Errorf("BanIP: %w", err)
	}
	slog.Info("ip banned", "ip", ip, "ban_id", id, "duration", d)
	return id, nil
}

// IPBan returns the effective ban of ip.
func (s *Service) IPBan(ctx context.Context, ip string) (models.Ban, bool, error) {
	return s.database.GetIPBanInfo(ctx, ip)
}

// ---------------------------------------------------------------------------
// Heartbeat
// ---------------------------------------------------------------------------

// Heartbeat records that userID is online on server.
func (s *Service) Heartbeat(ctx context.Context, userID int64, server Server) error {
	switch server {
	case LoginServer:
		return s.database.UpdateUserLastLoginServerOnlineDate(ctx, userID)
	case GameServer:
		return s.database.UpdateUserLastGameServerOnlineDate(ctx, userID)
	default:
		return fmt.Errorf("Heartbeat: unknown server %q (want login or game)", server)
	}
}
