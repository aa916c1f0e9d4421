package influxdb

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/hearth-core/internal/infrastructure/config"
)

// Logger defines the logging interface used by the Client.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Probe cadence for the background server check.
const (
	pingTimeout  = 5 * time.Second
	pingInterval = 30 * time.Second

	// Batching defaults applied when the config leaves them zero.
	defaultBatchSize    = 100
	defaultFlushSeconds = 10
	msPerSecond         = 1000
)

// Client records device state history in InfluxDB.
//
// The history is strictly best-effort: the hub must come up and run whether
// or not the server is reachable, so Connect never dials synchronously.
// A background probe pings until the server answers; until then (and after
// Close) writes are silently dropped by the Write* methods. Async write
// failures are logged, never surfaced.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	logger   Logger

	connected atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// Connect prepares the batched write pipeline and starts probing the
// server in the background. It fails only on configuration problems
// (ErrDisabled), never on server unavailability.
func Connect(cfg config.InfluxDBConfig, logger Logger) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if logger == nil {
		logger = noopLogger{}
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = defaultFlushSeconds
	}

	// #nosec G115 -- values defaulted above to be positive
	inner := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*msPerSecond),
	)

	c := &Client{
		client:   inner,
		writeAPI: inner.WriteAPI(cfg.Org, cfg.Bucket),
		logger:   logger,
		done:     make(chan struct{}),
	}

	go c.watchWriteErrors(c.writeAPI.Errors())
	go c.waitForServer(cfg.URL)

	return c, nil
}

// waitForServer probes until the server answers a ping, then opens the
// write gate. State changes that happen before the first successful ping
// are lost to the history, which is acceptable for a telemetry sink.
func (c *Client) waitForServer(url string) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		healthy, err := c.client.Ping(ctx)
		cancel()

		if err == nil && healthy {
			c.connected.Store(true)
			c.logger.Info("state history online", "url", url)
			return
		}
		c.logger.Warn("state history unreachable, retrying", "url", url, "error", err)

		select {
		case <-c.done:
			return
		case <-ticker.C:
		}
	}
}

// watchWriteErrors logs asynchronous write failures from the batcher.
func (c *Client) watchWriteErrors(errs <-chan error) {
	for err := range errs {
		c.logger.Error("state history write failed", "error", err)
	}
}

// IsConnected reports whether the write gate is open.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Close stops the server probe, flushes pending writes and shuts the
// client down. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.connected.Store(false)
		c.writeAPI.Flush()
		c.client.Close()
	})
}
