package logging

import (
	"errors"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	logstashQueueSize    = 256
	logstashDialTimeout  = 2 * time.Second
	logstashWriteTimeout = time.Second
	logstashRetryWindow  = 5 * time.Second
)

// LogstashWriter mirrors log lines to a Logstash TCP input without ever
// blocking the caller. Lines are handed to a background goroutine over a
// bounded queue; when the queue is full or Logstash is unreachable the
// line is dropped.
type LogstashWriter struct {
	addr  string
	queue chan []byte
	done  chan struct{}
	once  sync.Once
}

// NewLogstashWriter starts the forwarding goroutine for the given TCP
// address. The returned writer is safe for concurrent use.
func NewLogstashWriter(addr string) (*LogstashWriter, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("logstash: empty address")
	}

	w := &LogstashWriter{
		addr:  addr,
		queue: make(chan []byte, logstashQueueSize),
		done:  make(chan struct{}),
	}
	go w.forward()
	return w, nil
}

// Write implements io.Writer. It always reports success so that a slow or
// absent Logstash never stalls the standard log package.
func (w *LogstashWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	line := make([]byte, len(p))
	copy(line, p)
	if line[len(line)-1] != '\n' {
		line = append(line, '\n')
	}

	select {
	case w.queue <- line:
	default:
	}
	return len(p), nil
}

// Close stops the forwarding goroutine and drops any queued lines.
func (w *LogstashWriter) Close() error {
	w.once.Do(func() { close(w.done) })
	return nil
}

func (w *LogstashWriter) forward() {
	var conn net.Conn
	var nextDial time.Time

	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()

	for {
		select {
		case <-w.done:
			return
		case line := <-w.queue:
			if conn == nil {
				if time.Now().Before(nextDial) {
					continue
				}
				c, err := net.DialTimeout("tcp", w.addr, logstashDialTimeout)
				if err != nil {
					nextDial = time.Now().Add(logstashRetryWindow)
					continue
				}
				conn = c
			}

			conn.SetWriteDeadline(time.Now().Add(logstashWriteTimeout))
			if _, err := conn.Write(line); err != nil {
				conn.Close()
				conn = nil
				nextDial = time.Now().Add(logstashRetryWindow)
			}
		}
	}
}
