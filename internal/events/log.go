package events

import (
	"log"
	"strconv"
	"strings"
)

// LogNotifier writes one line per event to a standard logger.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a notifier that logs through logger, or the
// standard logger when nil.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the event.
func (n *LogNotifier) Notify(e Event) {
	n.logger.Printf("[event] %s", Format(e))
}

// Format renders an event as a compact key=value line.
func Format(e Event) string {
	var sb strings.Builder
	sb.WriteString(string(e.Type))
	kv := func(k, v string) {
		if v == "" {
			return
		}
		sb.WriteString(" ")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(v)
	}
	kv("folder", e.FolderID)
	kv("name", e.FolderName)
	kv("batch", e.BatchID)
	kv("state", string(e.BatchState))
	kv("candidate", e.CandidateID)
	if len(e.CandidateIDs) > 0 {
		kv("candidates", strings.Join(e.CandidateIDs, ","))
	}
	if e.Count > 0 {
		kv("count", strconv.Itoa(e.Count))
	}
	if e.Summary != nil {
		kv("succeeded", strconv.Itoa(e.Summary.Succeeded))
		kv("failed", strconv.Itoa(e.Summary.Failed))
	}
	kv("msg", e.Message)
	return sb.String()
}
