package logger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	archiveCollection = "marketplace_logs"
	archiveQueueSize  = 4096
	archiveBatchSize  = 50
	archiveFlushEvery = 2 * time.Second
)

// LogDocument is one archived log line.
type LogDocument struct {
	Time      time.Time `bson:"time"`
	Level     string    `bson:"level"`
	Msg       string    `bson:"msg"`
	RequestID string    `bson:"request_id,omitempty"`
	UserID    string    `bson:"user_id,omitempty"`
	Attrs     bson.M    `bson:"attrs,omitempty"`
}

// archive owns the Mongo connection and the batching goroutine. Handlers
// derived through WithAttrs/WithGroup share one archive.
type archive struct {
	client *mongo.Client
	col    *mongo.Collection
	queue  chan LogDocument
	done   chan struct{}
	closed sync.Once
	wg     sync.WaitGroup
}

// MongoHandler is an slog.Handler that archives records at INFO and above to
// MongoDB. Records are queued without blocking and dropped when the queue is full.
type MongoHandler struct {
	arc    *archive
	attrs  []slog.Attr
	prefix string
}

// NewMongoHandler connects to uri and archives into db.marketplace_logs.
// Call Close on shutdown to flush the queue.
func NewMongoHandler(ctx context.Context, uri, db string) (*MongoHandler, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetConnectTimeout(5*time.Second).
		SetServerSelectionTimeout(5*time.Second).
		SetMaxPoolSize(10))
	if err != nil {
		return nil, fmt.Errorf("logger/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("logger/mongo: ping: %w", err)
	}

	col := client.Database(db).Collection(archiveCollection)
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "time", Value: -1}}},
		{Keys: bson.D{{Key: "request_id", Value: 1}}},
	})

	arc := &archive{
		client: client,
		col:    col,
		queue:  make(chan LogDocument, archiveQueueSize),
		done:   make(chan struct{}),
	}
	arc.wg.Add(1)
	go arc.run()

	return &MongoHandler{arc: arc}, nil
}

func (h *MongoHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= slog.LevelInfo }

func (h *MongoHandler) Handle(_ context.Context, r slog.Record) error {
	doc := LogDocument{
		Time:  r.Time,
		Level: r.Level.String(),
		Msg:   r.Message,
		Attrs: bson.M{},
	}

	put := func(a slog.Attr) bool {
		switch a.Key {
		case "request_id":
			doc.RequestID = a.Value.String()
		case "user_id":
			doc.UserID = a.Value.String()
		default:
			doc.Attrs[h.prefix+a.Key] = a.Value.Resolve().Any()
		}
		return true
	}
	for _, a := range h.attrs {
		put(a)
	}
	r.Attrs(put)

	select {
	case h.arc.queue <- doc:
	default:
	}
	return nil
}

func (h *MongoHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &MongoHandler{arc: h.arc, attrs: merged, prefix: h.prefix}
}

func (h *MongoHandler) WithGroup(name string) slog.Handler {
	return &MongoHandler{arc: h.arc, attrs: h.attrs, prefix: h.prefix + name + "."}
}

// Close flushes queued records and disconnects. Safe to call more than once.
func (h *MongoHandler) Close() {
	h.arc.closed.Do(func() {
		close(h.arc.done)
		h.arc.wg.Wait()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.arc.client.Disconnect(ctx)
	})
}

func (a *archive) run() {
	defer a.wg.Done()

	ticker := time.NewTicker(archiveFlushEvery)
	defer ticker.Stop()

	batch := make([]interface{}, 0, archiveBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = a.col.InsertMany(ctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case doc := <-a.queue:
			batch = append(batch, doc)
			if len(batch) >= archiveBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-a.done:
			for len(a.queue) > 0 {
				batch = append(batch, <-a.queue)
			}
			flush()
			return
		}
	}
}

// ─── Fan-out ──────────────────────────────────────────────────────────────────

// MultiHandler sends each record to every handler that accepts its level.
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(hs ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: hs}
}

// EnableArchive connects to LOG_MONGO_URI and tees the base logger into it.
// The returned func flushes and disconnects.
func EnableArchive(ctx context.Context, uri, db string) (func(), error) {
	mh, err := NewMongoHandler(ctx, uri, db)
	if err != nil {
		return func() {}, err
	}
	Replace(slog.New(NewMultiHandler(L.Handler(), mh)))
	return mh.Close, nil
}
