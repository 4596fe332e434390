package event

import (
	"github.com/sirupsen/logrus"
)

// EventHandler returns nil when the event is not supported.
type EventHandler func(e *EventRecord) *EventHandleResult

type EventHandleResult struct {
	Success           bool
	Message           string
	HandlerIdentifier string
}

var EventHandlers []EventHandler

var InvokeHandlersFunc = invokeHandlers

func invokeHandlers(record *EventRecord) []EventHandleResult {
	results := []EventHandleResult{}
	for _, handle := range EventHandlers {
		r := handle(record)
		if r == nil {
			continue
		}
		results = append(results, *r)

		entry := logrus.WithField("handler", r.HandlerIdentifier).
			WithField("source", record.SourceType).
			WithField("sourceId", record.SourceId)
		if r.Success {
			entry.Debug("event handled")
		} else {
			entry.Error("event handling failed: ", r.Message)
		}
	}
	return results
}
