package listener

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"mrk/internal/shared/logger"
)

// ProjectsChannel is notified by the projects table trigger on every write.
const ProjectsChannel = "projects_changed"

const (
	reconnectInterval = 5 * time.Second
	pingInterval      = 90 * time.Second
)

// Invalidator drops cached data derived from the projects table.
type Invalidator interface {
	Invalidate()
}

// ProjectsListener flushes the project cache whenever the ERP mirror is
// rewritten, so listings do not wait out the cache TTL.
type ProjectsListener struct {
	connStr     string
	invalidator Invalidator
	log         zerolog.Logger
	shutdownCh  chan struct{}
	done        chan struct{}
}

// NewProjectsListener creates a listener on ProjectsChannel.
func NewProjectsListener(connStr string, invalidator Invalidator) *ProjectsListener {
	return &ProjectsListener{
		connStr:     connStr,
		invalidator: invalidator,
		log:         logger.Default().With().Str("component", "projects_listener").Logger(),
		shutdownCh:  make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start begins listening in a background goroutine.
func (l *ProjectsListener) Start(ctx context.Context) {
	l.log = logger.FromContext(ctx).With().Str("component", "projects_listener").Logger()
	go l.listen(ctx)
	l.log.Info().Str("channel", ProjectsChannel).Msg("projects listener started")
}

// Stop shuts the listener down and waits for it to exit.
func (l *ProjectsListener) Stop() {
	close(l.shutdownCh)
	<-l.done
	l.log.Info().Msg("projects listener stopped")
}

func (l *ProjectsListener) listen(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		default:
			l.connectAndListen(ctx)
		}

		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(reconnectInterval):
			l.log.Info().Msg("reconnecting to notification channel")
		}
	}
}

func (l *ProjectsListener) connectAndListen(ctx context.Context) {
	listener := pq.NewListener(l.connStr, 10*time.Second, time.Minute, l.onEvent)
	defer listener.Close()

	if err := listener.Listen(ProjectsChannel); err != nil {
		l.log.Error().Err(err).Str("channel", ProjectsChannel).Msg("failed to listen")
		return
	}

	// Writes missed while disconnected are unknown, so start from a cold cache.
	l.invalidator.Invalidate()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		case n, ok := <-listener.Notify:
			if !ok {
				return
			}
			l.handleNotification(n)
		case <-ping.C:
			if err := listener.Ping(); err != nil {
				l.log.Warn().Err(err).Msg("listener ping failed")
				return
			}
		}
	}
}

func (l *ProjectsListener) onEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected:
		l.log.Info().Msg("connected to notification channel")
	case pq.ListenerEventDisconnected:
		l.log.Warn().Err(err).Msg("disconnected from notification channel")
	case pq.ListenerEventReconnected:
		l.log.Info().Msg("reconnected to notification channel")
	case pq.ListenerEventConnectionAttemptFailed:
		l.log.Warn().Err(err).Msg("notification channel connection attempt failed")
	}
}

// handleNotification flushes the cache. A nil notification means pq
// re-established the connection and events may have been lost.
func (l *ProjectsListener) handleNotification(n *pq.Notification) {
	if n == nil {
		l.invalidator.Invalidate()
		return
	}
	if n.Channel != ProjectsChannel {
		return
	}
	l.log.Debug().Str("operation", n.Extra).Msg("projects changed")
	l.invalidator.Invalidate()
}
