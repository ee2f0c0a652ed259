// internal/storage/archive/interface.go
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

// Storage keeps rendered backtest documents for later inspection.
type Storage interface {
	// Write stores data at the given path, replacing any previous content
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the prefix
	List(ctx context.Context, prefix string) ([]string, error)
}

// Config selects and configures a storage backend.
type Config struct {
	Type string // "localfs" or "s3"
	Path string
	S3   S3Config
}

// New opens the storage backend named by cfg.Type.
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
	}
}

// BacktestRoot is the prefix every archived backtest run lives under.
const BacktestRoot = "backtests/"

var symbolReplacer = strings.NewReplacer("/", "-", " ", "")

func symbolDir(symbol string) string {
	return strings.ToUpper(symbolReplacer.Replace(symbol))
}

// BacktestKey is where a backtest run is archived:
// backtests/<SYMBOL>/<YYYY-MM-DD>/<run-id>.json, with the date in UTC.
func BacktestKey(symbol string, at time.Time, runID string) string {
	return path.Join(BacktestRoot, symbolDir(symbol), at.UTC().Format("2006-01-02"), runID+".json")
}

// BacktestPrefix is the List prefix for runs of symbol, or for all runs
// when symbol is empty.
func BacktestPrefix(symbol string) string {
	dir := symbolDir(symbol)
	if dir == "" {
		return BacktestRoot
	}
	return BacktestRoot + dir + "/"
}

// IsBacktestKey reports whether key is a clean .json key below BacktestRoot.
func IsBacktestKey(key string) bool {
	return strings.HasPrefix(key, BacktestRoot) &&
		strings.HasSuffix(key, ".json") &&
		path.Clean(key) == key
}
