package logs

import (
	"github.com/charliek/logview/internal/domain"
)

// BuildInit computes the init response for req against a store snapshot.
// Matches are numbered by filtered position (Entry.Pos, from 1) while
// keeping their store seq.
func BuildInit(snapshot []domain.Record, req domain.Request, defaultMax int) domain.InitResponse {
	filtered := FilterRecords(snapshot, Compile(req.Filter))
	maxMessages := req.WindowSize(defaultMax)

	var start, end int
	switch req.Mode {
	case domain.ModeStatic:
		start = req.Offset()
		if start > len(filtered) {
			start = len(filtered)
		}
		end = start + maxMessages
		if end > len(filtered) {
			end = len(filtered)
		}
	default:
		end = len(filtered)
		start = end - maxMessages
		if start < 0 {
			start = 0
		}
	}

	messages := make([]domain.Entry, 0, end-start)
	for i := start; i < end; i++ {
		messages = append(messages, domain.NewEntry(filtered[i], i+1))
	}

	window := domain.Window{
		Size:        len(filtered),
		MaxMessages: maxMessages,
		Messages:    messages,
	}
	mode := domain.ModeTail
	if req.Mode == domain.ModeStatic {
		mode = domain.ModeStatic
		offset := req.Offset()
		window.OffsetStart = &offset
	}

	return domain.InitResponse{
		Type:      domain.TypeInit,
		Mode:      mode,
		TotalSize: len(snapshot),
		Window:    window,
	}
}
