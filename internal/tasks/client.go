package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// queueDSNOptions keeps the queue usable while the catalog holds its own
// SQLite connection: WAL journaling plus a busy timeout.
const queueDSNOptions = "?_journal=WAL&_timeout=5000&_busy_timeout=5000"

// Client runs the library's maintenance jobs (overdue sweeps and audit
// retention) on a backlite queue. Queue state lives in its own SQLite file
// next to the catalog database so job bookkeeping never locks catalog writes.
type Client struct {
	queue   *backlite.Client
	db      *sql.DB
	workers int

	mu      sync.Mutex
	running bool
}

// QueueDBPath returns the queue database used for a catalog database:
// "library.db" becomes "library-tasks.db".
func QueueDBPath(catalogDBPath string) string {
	ext := filepath.Ext(catalogDBPath)
	return strings.TrimSuffix(catalogDBPath, ext) + "-tasks" + ext
}

// NewClient opens the queue database beside catalogDBPath and installs the
// backlite schema.
func NewClient(catalogDBPath string, cfg Config) (*Client, error) {
	db, err := sql.Open("sqlite3", QueueDBPath(catalogDBPath)+queueDSNOptions)
	if err != nil {
		return nil, fmt.Errorf("open task queue database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	queue, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{},
	})
	if err == nil {
		err = queue.Install()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare task queue: %w", err)
	}

	return &Client{queue: queue, db: db, workers: cfg.Workers}, nil
}

// RegisterMaintenance registers the overdue sweep and the audit retention
// queues. Call it before Start.
func (c *Client) RegisterMaintenance(finder OverdueLoanFinder, recorder OverdueRecorder, cleaner AuditEventCleaner) {
	c.Register(
		NewFindOverdueLoansQueue(finder, recorder),
		NewCleanupAuditEventsQueue(cleaner),
	)
}

// Register adds queues to the client. Call it before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.queue.Register(q)
	}
}

// Start processes jobs until ctx is cancelled or Stop is called. Repeated
// calls are ignored.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	log.Printf("Maintenance queue started with %d workers", c.workers)
	c.queue.Start(ctx)
}

// Stop waits for running jobs and reports whether they all finished before
// ctx expired.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	if !running {
		return true
	}

	finished := c.queue.Stop(ctx)
	if !finished {
		log.Println("Maintenance queue stopped before all jobs finished")
	}
	return finished
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Status reports the state of a queued job.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.queue.Status(ctx, taskID)
}

// Enqueue stores jobs and returns their ids.
func (c *Client) Enqueue(jobs ...backlite.Task) ([]string, error) {
	ids, err := c.queue.Add(jobs...).Save()
	if err != nil {
		return nil, fmt.Errorf("enqueue maintenance jobs: %w", err)
	}
	return ids, nil
}

// queueLogger routes backlite messages through the standard logger.
type queueLogger struct{}

func (queueLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (queueLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
