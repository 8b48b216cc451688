package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Client is a thin wrapper over the native ClickHouse connection.
type Client struct {
	conn driver.Conn
}

type options struct {
	addr        string
	database    string
	username    string
	password    string
	dialTimeout time.Duration
}

type Option func(*options)

func WithAddr(addr string) Option {
	return func(o *options) { o.addr = addr }
}

func WithDatabase(db string) Option {
	return func(o *options) { o.database = db }
}

func WithCredentials(user, password string) Option {
	return func(o *options) {
		o.username = user
		o.password = password
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(o *options) { o.dialTimeout = d }
}

func New(ctx context.Context, opts ...Option) (*Client, error) {
	o := &options{
		addr:        "localhost:9000",
		database:    "default",
		dialTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{o.addr},
		Auth: clickhouse.Auth{
			Database: o.database,
			Username: o.username,
			Password: o.password,
		},
		DialTimeout: o.dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Exec(ctx context.Context, query string, args ...any) error {
	return c.conn.Exec(ctx, query, args...)
}

func (c *Client) PrepareBatch(ctx context.Context, query string) (driver.Batch, error) {
	return c.conn.PrepareBatch(ctx, query)
}

func (c *Client) Close() error { return c.conn.Close() }
