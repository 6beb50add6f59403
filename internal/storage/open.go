package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
)

const (
	DriverDir      = "dir"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
	DriverMemory   = "memory"
)

type Config struct {
	Driver string   `yaml:"driver" env:"DRIVER"`
	Dir    string   `yaml:"dir" env:"DIR"`
	DSN    string   `yaml:"dsn" env:"DSN"`
	S3     S3Config `yaml:"s3" envPrefix:"S3_"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the configured backend. The returned Closer must be closed on
// shutdown.
func Open(ctx context.Context, cfg Config) (Blob, io.Closer, error) {
	switch cfg.Driver {
	case "", DriverDir:
		d, err := OpenDir(cfg.Dir)
		return d, nopCloser{}, err
	case DriverSQLite:
		path := cfg.DSN
		if path == "" {
			path = filepath.Join(cfg.Dir, "matchbot.db")
		}
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case DriverPostgres:
		p, err := OpenPostgres(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	case DriverS3:
		s, err := OpenS3(ctx, cfg.S3)
		return s, nopCloser{}, err
	case DriverMemory:
		return NewMemory(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
