package output

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// FileSink appends whole reports to a file shared with other kipbench
// processes. Each Flush holds an exclusive lock on "<path>.lock" while it
// writes, so concurrent runs never interleave their reports.
type FileSink struct {
	path string
	lock *flock.Flock
	buf  bytes.Buffer
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path, lock: flock.New(path + ".lock")}
}

// Write buffers p until Flush.
func (s *FileSink) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

// Flush appends the buffered report under the file lock.
func (s *FileSink) Flush(ctx context.Context) error {
	if s.buf.Len() == 0 {
		return nil
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock %s: %w", s.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", s.lock.Path())
	}
	defer s.lock.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := s.buf.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
