package flyder

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/example/flyder-sync-service/internal/domain"
)

const (
	defaultPort           = 3306
	defaultConnectTimeout = 10 * time.Second
)

// Config — параметры подключения к MySQL базе Flyder.
type Config struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	Database       string        `yaml:"database"`
	TLS            string        `yaml:"tls"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

func (c Config) Validate() error {
	if c.Host == "" || c.User == "" || c.Password == "" || c.Database == "" {
		return fmt.Errorf("%w: missing Flyder database configuration", domain.ErrConfiguration)
	}
	return nil
}

// driverConfig — конфигурация go-sql-driver/mysql; даты читаются строками и разбираются в parse.
func (c Config) driverConfig() *mysql.Config {
	port := c.Port
	if port == 0 {
		port = defaultPort
	}
	timeout := c.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(port))
	mc.DBName = c.Database
	mc.Timeout = timeout
	mc.TLSConfig = c.TLS
	mc.Loc = time.UTC
	mc.ParseTime = false
	return mc
}

// DSN — строка подключения в формате go-sql-driver/mysql.
func (c Config) DSN() string {
	return c.driverConfig().FormatDSN()
}

// Connector открывает одно соединение MySQL на прогон.
type Connector struct {
	cfg Config
	log *zap.Logger
}

func NewConnector(cfg Config, log *zap.Logger) *Connector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Connector{cfg: cfg, log: log}
}

func (c *Connector) Open(ctx context.Context) (domain.SourceSession, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	mc, err := mysql.NewConnector(c.cfg.driverConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	db := sql.OpenDB(mc)
	db.SetMaxOpenConns(1)

	c.log.Debug("connecting to flyder", zap.String("host", c.cfg.Host), zap.String("database", c.cfg.Database))
	conn, err := db.Conn(ctx)
	if err == nil {
		err = conn.PingContext(ctx)
		if err != nil {
			_ = conn.Close()
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrConnection, err)
	}
	return &Session{db: db, conn: conn, log: c.log}, nil
}

// Session — открытое соединение с Flyder.
type Session struct {
	db   *sql.DB
	conn *sql.Conn
	log  *zap.Logger
}

func (s *Session) Fetch(ctx context.Context, w domain.Window) ([]domain.FetchedRow, error) {
	query, args := windowQuery(w)
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrQuery, err)
	}
	defer rows.Close()

	var out []domain.FetchedRow
	for rows.Next() {
		var cols scanColumns
		if err := rows.Scan(cols.dest()...); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", domain.ErrQuery, err)
		}
		out = append(out, cols.raw().parse())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrQuery, err)
	}
	s.log.Debug("flyder window fetched", zap.Stringer("window", w), zap.Int("rows", len(out)))
	return out, nil
}

// Close возвращает соединение и закрывает пул; ошибка соединения важнее.
func (s *Session) Close(context.Context) error {
	err := s.conn.Close()
	if dbErr := s.db.Close(); err == nil {
		err = dbErr
	}
	return err
}

var _ domain.SourceConnector = (*Connector)(nil)
var _ domain.SourceSession = (*Session)(nil)
