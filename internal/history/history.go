// Package history implements an optional, best-effort append-only
// download-history sink: a record per file DownloadWork writes, written
// to a MongoDB collection if configured. It is not part of the
// engine's job state — the work cache and active set are the only
// in-memory state the engine depends on — so losing the history sink
// never affects correctness of a run, only the audit trail.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Record is one completed download.
type Record struct {
	WorkID       int       `bson:"work_id"`
	Title        string    `bson:"title"`
	Username     string    `bson:"username"`
	Filetype     string    `bson:"filetype"`
	DownloadPath string    `bson:"download_path"`
	CompletedAt  time.Time `bson:"completed_at"`
}

// Sink appends Records to a MongoDB collection. A nil *Sink is valid
// and silently drops every Append call, so callers needn't branch on
// whether history tracking is configured.
type Sink struct {
	client     *mongo.Client
	collection *mongo.Collection
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// New connects to uri and returns a Sink backed by database.collection.
func New(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*Sink, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("history sink connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("history sink ping: %w", err)
	}

	return &Sink{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "history_sink"),
	}, nil
}

// Append inserts a completed-download record. Failures are logged and
// swallowed — the engine's DownloadWork handler calls this best-effort
// after the file is already written; a broken history sink must never
// fail a download that otherwise succeeded.
func (s *Sink) Append(ctx context.Context, rec Record) {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	insertCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.collection.InsertOne(insertCtx, rec); err != nil {
		s.logger.Warn("history sink insert failed", "work_id", rec.WorkID, "error", err)
		return
	}
	s.count++
}

// Count reports how many records this sink has written successfully
// since it was created. A nil *Sink reports zero.
func (s *Sink) Count() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Close disconnects the underlying client.
func (s *Sink) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(closeCtx)
}
