package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/hpcloud/tail"
	"github.com/sirupsen/logrus"
)

// FileSource follows a file the way tail -f does
type FileSource struct {
	Path      string
	FromStart bool // Read existing content before following
	ReOpen    bool // Reopen the file when it is rotated (tail -F)
	Poll      bool // Poll for changes instead of using inotify
	Log       logrus.FieldLogger
}

// Run implements Source. It only returns on cancel or when the tail
// itself fails.
func (s *FileSource) Run(ctx context.Context, emit func(line string)) error {
	var location *tail.SeekInfo
	if !s.FromStart {
		location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(s.Path, tail.Config{
		Follow:    true,
		ReOpen:    s.ReOpen,
		MustExist: true,
		Location:  location,
		Poll:      s.Poll,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("following %s: %w", s.Path, err)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				if err := t.Err(); err != nil {
					return fmt.Errorf("following %s: %w", s.Path, err)
				}
				return nil
			}
			if line.Err != nil {
				if s.Log != nil {
					s.Log.WithError(line.Err).WithField("file", s.Path).Warn("error reading line")
				}
				continue
			}
			emit(line.Text)
		}
	}
}
