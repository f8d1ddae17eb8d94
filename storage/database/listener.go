package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/lesson"
)

const (
	lessonsChannel = "lessons_changes"

	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	pingInterval         = 90 * time.Second
)

// changePayload mirrors the JSON built by the lessons_notify trigger.
type changePayload struct {
	Op     string        `json:"op"`
	Record lesson.Lesson `json:"record"`
}

// Listener tails the lessons_changes NOTIFY channel and publishes decoded
// change events to the lesson feed. The store's notification contract stays an
// implementation detail behind it; API clients only ever see the feed.
type Listener struct {
	pql    *pq.Listener
	feed   *lesson.Feed
	logger core.Logger
}

func NewListener(conf *core.Config, feed *lesson.Feed, logger core.Logger) *Listener {
	pql := pq.NewListener(DSN(conf), minReconnectInterval, maxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logger.Error(fmt.Sprintf("lessons listener event %d: %v", ev, err), err)
			}
		},
	)
	return &Listener{pql: pql, feed: feed, logger: logger}
}

// Start subscribes to the notification channel and consumes events until ctx
// is cancelled.
func (l *Listener) Start(ctx context.Context) error {
	if err := l.pql.Listen(lessonsChannel); err != nil {
		return errors.Wrap(err, "listening on "+lessonsChannel)
	}
	go l.run(ctx)
	return nil
}

func (l *Listener) run(ctx context.Context) {
	defer func() { _ = l.pql.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-l.pql.Notify:
			if n == nil {
				// connection was re-established; missed events are not replayed
				continue
			}
			l.dispatch(n.Extra)
		case <-time.After(pingInterval):
			go func() {
				if err := l.pql.Ping(); err != nil {
					l.logger.Error("pinging lessons listener", err)
				}
			}()
		}
	}
}

func (l *Listener) dispatch(payload string) {
	var change changePayload
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		l.logger.Error("decoding lessons change payload", errors.Wrap(err, payload))
		return
	}
	l.feed.Publish(lesson.Event{Op: change.Op, Lesson: change.Record})
}
