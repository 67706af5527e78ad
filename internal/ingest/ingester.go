package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/charliek/logview/internal/domain"
	"github.com/charliek/logview/internal/parser"
)

// Sink receives parsed lines. *logs.Manager satisfies it.
type Sink interface {
	Append(data any) domain.Record
}

// Ingester pulls lines from a Source, parses them and appends them to a
// Sink. It is the single producer of the log store.
type Ingester struct {
	Source Source
	Parser parser.Parser
	Sink   Sink
	Echo   io.Writer // When set, every raw line is copied here
	Log    logrus.FieldLogger

	lines atomic.Int64
}

// Run ingests until the source ends or ctx is canceled. The end of the
// input is logged and is not an error.
func (i *Ingester) Run(ctx context.Context) error {
	log := i.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := i.Parser
	if p == nil {
		p = parser.NewJSON(false)
	}

	err := i.Source.Run(ctx, func(line string) {
		line = strings.TrimSuffix(line, "\r")
		if i.Echo != nil {
			if _, err := fmt.Fprintln(i.Echo, line); err != nil {
				log.WithError(err).Debug("echo failed")
			}
		}
		i.Sink.Append(p.Parse(line))
		i.lines.Add(1)
	})
	if err != nil {
		log.WithError(err).WithField("lines", i.Lines()).Error("input failed")
		return err
	}

	if ctx.Err() == nil {
		log.WithField("lines", i.Lines()).Info("input closed, still serving stored records")
	}
	return nil
}

// Lines returns how many lines have been ingested
func (i *Ingester) Lines() int64 {
	return i.lines.Load()
}
