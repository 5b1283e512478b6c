package engine

import "time"

type EventType int

const (
	EventCapitulation EventType = iota
	EventPivotLow
	EventEntryTrigger
	EventTradeOpen
	EventTradeExit
)

func (t EventType) String() string {
	switch t {
	case EventCapitulation:
		return "capitulation"
	case EventPivotLow:
		return "pivot_low"
	case EventEntryTrigger:
		return "entry_trigger"
	case EventTradeOpen:
		return "trade_open"
	case EventTradeExit:
		return "trade_exit"
	}
	return "unknown"
}

// Event is one detection or simulation occurrence, for forensics output.
type Event struct {
	Ts      time.Time
	Type    EventType
	Symbol  string
	Details map[string]string
}

type EventLog struct {
	Events []Event
}

func (l *EventLog) Append(e Event) { l.Events = append(l.Events, e) }
