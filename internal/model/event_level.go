package model

// EventLevel 任务事件级别
type EventLevel string

const (
	EventLevelStatus   EventLevel = "status"
	EventLevelProgress EventLevel = "progress"
	EventLevelTrack    EventLevel = "track"
	EventLevelError    EventLevel = "error"
	EventLevelInfo     EventLevel = "info"
)

func (l EventLevel) Valid() bool {
	switch l {
	case EventLevelStatus, EventLevelProgress, EventLevelTrack, EventLevelError, EventLevelInfo:
		return true
	default:
		return false
	}
}
