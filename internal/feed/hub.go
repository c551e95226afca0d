package feed

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roman-kulish/crane-telemetry/internal/telemetry"
)

const (
	// DefaultBufferSize is the per-subscriber channel capacity
	DefaultBufferSize = 16

	maxLineSize = 64 * 1024
)

// ErrFeedClosed is returned when monitoring a hub that has been closed
var ErrFeedClosed = errors.New("feed closed")

const (
	Connecting Connectivity = iota
	Connected
	Disconnected
)

// Connectivity is the transport connection state reported to the caller
type Connectivity int

func (c Connectivity) String() string {
	switch c {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Status is a point-in-time view of the feed
type Status struct {
	Connectivity Connectivity
	Err          error     // Last transport error, nil on a clean disconnect
	Messages     uint64    // Decoded messages
	Malformed    uint64    // Messages dropped as undecodable
	Dropped      uint64    // Deliveries skipped because a subscriber was full
	LastMessage  time.Time // Receive time of the last decoded message
}

// WithLogger sets the logger for the hub
func WithLogger(logger *slog.Logger) func(*Hub) {
	return func(h *Hub) {
		h.logger = logger.With(slog.String("component", "feed"))
	}
}

// WithBufferSize sets the capacity of subscriber channels
func WithBufferSize(size int) func(*Hub) {
	return func(h *Hub) {
		if size >= 0 {
			h.bufferSize = size
		}
	}
}

type subscriber struct {
	ch       chan telemetry.Readings
	blocking bool
}

// Hub decodes messages read from the transport and fans the readings out to
// every subscriber. A slow subscriber misses messages rather than stalling
// the feed, unless it subscribed with SubscribeBlocking.
type Hub struct {
	subscriberMu sync.Mutex
	subscribers  map[string]subscriber
	bufferSize   int

	statusMu sync.Mutex
	status   Status
	closed   bool

	logger *slog.Logger
}

// NewHub creates a new Hub in the Connecting state
func NewHub(options ...func(*Hub)) *Hub {
	h := Hub{
		subscribers: make(map[string]subscriber),
		bufferSize:  DefaultBufferSize,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&h)
	}

	return &h
}

// Subscribe registers a new subscriber. The returned id is used to
// unsubscribe; the channel is closed on Unsubscribe or Close. Messages that
// do not fit in the channel buffer are skipped and counted in Status.Dropped.
func (h *Hub) Subscribe() (string, <-chan telemetry.Readings) {
	return h.subscribe(false)
}

// SubscribeBlocking registers a subscriber that receives every message: the
// feed waits for it instead of skipping. The subscriber must keep receiving
// until its channel is closed.
func (h *Hub) SubscribeBlocking() (string, <-chan telemetry.Readings) {
	return h.subscribe(true)
}

func (h *Hub) subscribe(blocking bool) (string, <-chan telemetry.Readings) {
	id := uuid.NewString()
	ch := make(chan telemetry.Readings, h.bufferSize)

	h.subscriberMu.Lock()
	defer h.subscriberMu.Unlock()

	if h.isClosed() {
		close(ch)
		return id, ch
	}
	h.subscribers[id] = subscriber{ch: ch, blocking: blocking}
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unsubscribe(id string) {
	h.subscriberMu.Lock()
	defer h.subscriberMu.Unlock()

	if sub, ok := h.subscribers[id]; ok {
		close(sub.ch)
		delete(h.subscribers, id)
	}
}

// Publish delivers readings to every subscriber. Only blocking subscribers
// are waited for.
func (h *Hub) Publish(r telemetry.Readings) {
	h.subscriberMu.Lock()
	defer h.subscriberMu.Unlock()

	var dropped uint64
	for id, sub := range h.subscribers {
		if sub.blocking {
			sub.ch <- r.Clone()
			continue
		}

		select {
		case sub.ch <- r.Clone():
		default:
			dropped++
			h.logger.Debug("subscriber lagging, message skipped", slog.String("subscriber", id))
		}
	}

	if dropped > 0 {
		h.statusMu.Lock()
		h.status.Dropped += dropped
		h.statusMu.Unlock()
	}
}

// Monitor reads line-delimited messages from r until it is exhausted, fails
// or ctx is cancelled. Malformed lines, including lines longer than 64 KiB,
// are dropped. The returned error is the
// transport error, if any; it is also reported through Status.
func (h *Hub) Monitor(ctx context.Context, r io.Reader) error {
	if h.isClosed() {
		return ErrFeedClosed
	}

	splitter := lineSplitter{max: maxLineSize, oversized: h.dropOversized}

	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 4096), maxLineSize)
	scan.Split(splitter.split)

	lineChan := make(chan []byte)
	scanErrChan := make(chan error, 1)

	go func() {
		defer close(lineChan)
		for scan.Scan() {
			line := append([]byte(nil), scan.Bytes()...)
			select {
			case lineChan <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			scanErrChan <- err
		}
	}()

	h.setConnectivity(Connected, nil)
	h.logger.Info("feed connected")

	for {
		select {
		case <-ctx.Done():
			h.setConnectivity(Disconnected, nil)
			return ctx.Err()

		case err := <-scanErrChan:
			h.setConnectivity(Disconnected, err)
			h.logger.Error("feed read failed", slog.String("error", err.Error()))
			return err

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					h.setConnectivity(Disconnected, err)
					h.logger.Error("feed read failed", slog.String("error", err.Error()))
					return err
				default:
				}
				h.setConnectivity(Disconnected, nil)
				h.logger.Info("feed disconnected")
				return nil
			}

			if h.isClosed() {
				return ErrFeedClosed
			}
			h.handle(line)
		}
	}
}

// Status returns the current feed status
func (h *Hub) Status() Status {
	h.statusMu.Lock()
	defer h.statusMu.Unlock()
	return h.status
}

// Close closes every subscriber channel. Subsequent Monitor calls fail with
// ErrFeedClosed.
func (h *Hub) Close() {
	h.statusMu.Lock()
	h.closed = true
	h.status.Connectivity = Disconnected
	h.statusMu.Unlock()

	h.subscriberMu.Lock()
	defer h.subscriberMu.Unlock()

	for id, sub := range h.subscribers {
		close(sub.ch)
		delete(h.subscribers, id)
	}
}

func (h *Hub) handle(line []byte) {
	if len(line) == 0 {
		return
	}

	readings, err := Decode(line)
	if err != nil {
		h.statusMu.Lock()
		h.status.Malformed++
		h.statusMu.Unlock()

		h.logger.Warn("dropping message", slog.String("error", err.Error()))
		return
	}

	h.statusMu.Lock()
	h.status.Messages++
	h.status.LastMessage = time.Now()
	h.statusMu.Unlock()

	if len(readings) > 0 {
		h.Publish(readings)
	}
}

func (h *Hub) dropOversized() {
	h.statusMu.Lock()
	h.status.Malformed++
	h.statusMu.Unlock()

	h.logger.Warn("dropping message", slog.String("error", "line exceeds maximum size"), slog.Int("maxSize", maxLineSize))
}

func (h *Hub) setConnectivity(c Connectivity, err error) {
	h.statusMu.Lock()
	defer h.statusMu.Unlock()

	h.status.Connectivity = c
	h.status.Err = err
}

func (h *Hub) isClosed() bool {
	h.statusMu.Lock()
	defer h.statusMu.Unlock()
	return h.closed
}
