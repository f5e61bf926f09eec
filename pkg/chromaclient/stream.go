package chromaclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/chromad/chromad/pkg/chromatypes"
)

// Watch represents an open connection to a device's "watch/{id}"
// property-change notification stream.
type Watch struct {
	conn   net.Conn
	id     string
	closed bool

	readCancel context.CancelFunc
	readMu     sync.Mutex
}

// Watch opens a device's push-style notification stream. The device must
// already exist on the daemon.
func (c *Client) Watch(ctx context.Context, id string) (*Watch, error) {
	if c.transport.mock != nil {
		return nil, fmt.Errorf("watch streams not supported with mock transport")
	}

	d := &net.Dialer{Timeout: c.transport.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.transport.addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	path := fillPath("watch/{id}", map[string]string{"id": id})
	if _, err := conn.Write([]byte(path + "\x00")); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write stream path: %w", err)
	}

	return &Watch{conn: conn, id: id}, nil
}

// Events starts asynchronously reading "event <json>\n" lines from the
// stream, decoding each into a chromatypes.Event.
func (w *Watch) Events(ctx context.Context) (<-chan chromatypes.Event, <-chan error) {
	w.readMu.Lock()
	defer w.readMu.Unlock()

	if w.readCancel != nil {
		panic("Events called twice on the same watch")
	}

	evCh := make(chan chromatypes.Event, 8)
	errCh := make(chan error, 1)

	readCtx, cancel := context.WithCancel(ctx)
	w.readCancel = cancel

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer cancel()

		r := bufio.NewReader(w.conn)
		for {
			select {
			case <-readCtx.Done():
				errCh <- readCtx.Err()
				return
			default:
			}

			line, err := r.ReadString('\n')
			if err != nil {
				errCh <- err
				return
			}

			payload, ok := strings.CutPrefix(strings.TrimSuffix(line, "\n"), "event ")
			if !ok {
				continue
			}
			var ev chromatypes.Event
			if err := json.Unmarshal([]byte(payload), &ev); err != nil {
				continue
			}

			select {
			case evCh <- ev:
			case <-readCtx.Done():
				errCh <- readCtx.Err()
				return
			}
		}
	}()

	return evCh, errCh
}

// SetReadDeadline sets the read deadline for the underlying connection.
func (w *Watch) SetReadDeadline(t time.Time) error { return w.conn.SetReadDeadline(t) }

// Close closes the stream connection and stops any background reading.
func (w *Watch) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.readMu.Lock()
	if w.readCancel != nil {
		w.readCancel()
	}
	w.readMu.Unlock()

	return w.conn.Close()
}
