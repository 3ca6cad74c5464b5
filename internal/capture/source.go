package capture

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Source produces notification events until ctx is done or input ends.
type Source interface {
	Run(ctx context.Context, out chan<- Event) error
}

// maxLineBytes bounds a single JSON line.
const maxLineBytes = 1 << 20

// JSONLinesSource decodes one JSON event object per line.
type JSONLinesSource struct {
	r   io.Reader
	log zerolog.Logger
}

// NewJSONLinesSource reads events from r. Malformed lines are logged and
// skipped.
func NewJSONLinesSource(r io.Reader, log zerolog.Logger) *JSONLinesSource {
	return &JSONLinesSource{r: r, log: log}
}

// Run implements Source. It returns nil at end of input. A reader that is
// also an io.Closer is closed when ctx is done to unblock a pending read.
func (s *JSONLinesSource) Run(ctx context.Context, out chan<- Event) error {
	if c, ok := s.r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer stop()
	}

	sc := bufio.NewScanner(s.r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			s.log.Warn().Err(err).Int("line", line).Msg("skipping malformed event")
			continue
		}
		if ev.PackageName == "" {
			s.log.Warn().Int("line", line).Msg("skipping event without package name")
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := sc.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("reading events: %w", err)
	}
	return nil
}

// ChannelSource forwards events pushed by an embedding program.
type ChannelSource struct {
	in <-chan Event
}

// NewChannelSource wraps in. Run returns once in is closed.
func NewChannelSource(in <-chan Event) *ChannelSource {
	return &ChannelSource{in: in}
}

// Run implements Source.
func (s *ChannelSource) Run(ctx context.Context, out chan<- Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.in:
			if !ok {
				return nil
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
