package postgres

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Storage struct {
	Pool *pgxpool.Pool
}

type Options struct {
	User     string
	Password string
	Host     string
	Port     string
	DBName   string
	SSLMode  string
	MaxConns int32
}

func (o Options) ConnString(scheme string) string {
	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(o.User, o.Password),
		Host:   o.Host + ":" + o.Port,
		Path:   "/" + o.DBName,
	}
	if o.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(o.SSLMode)
	}
	return u.String()
}

func NewPostgresPool(ctx context.Context, o Options) (*Storage, error) {
	config, err := pgxpool.ParseConfig(o.ConnString("postgres"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	if o.MaxConns > 0 {
		config.MaxConns = o.MaxConns
	}
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Storage{Pool: pool}, nil
}

func (p *Storage) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}
