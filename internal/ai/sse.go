package ai

import (
	"bufio"
	"bytes"
	"context"
	"io"
)

const maxSSELine = 1 << 20

// readSSE calls fn with the payload of every "data:" line in a server-sent
// event stream until fn returns stop, fn fails, or the stream ends.
func readSSE(r io.Reader, fn func(data []byte) (stop bool, err error)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxSSELine)

	for sc.Scan() {
		line := sc.Bytes()
		if !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}
		data := bytes.TrimSpace(line[len("data:"):])
		if len(data) == 0 {
			continue
		}
		stop, err := fn(data)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return sc.Err()
}

// emit sends c unless ctx is done first, so producers never block on a
// consumer that went away.
func emit(ctx context.Context, ch chan<- StreamChunk, c StreamChunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
