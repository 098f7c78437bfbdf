package models

type StreamEventType string

const (
	StreamEventTypeAnnouncement StreamEventType = "announcement"
	StreamEventTypeToolStatus   StreamEventType = "tool_status"
	StreamEventTypeToolOutput   StreamEventType = "tool_output"
	StreamEventTypeResponse     StreamEventType = "response"
	StreamEventTypeError        StreamEventType = "error"
	StreamEventTypeUnknown      StreamEventType = "unknown"
)

type StreamEvent interface {
	GetType() StreamEventType
}

type StreamAnnouncement struct {
	Content string `json:"content"`
}

func (e StreamAnnouncement) GetType() StreamEventType {
	return StreamEventTypeAnnouncement
}

type StreamToolStatus struct {
	Content string `json:"content"`
}

func (e StreamToolStatus) GetType() StreamEventType {
	return StreamEventTypeToolStatus
}

type StreamToolOutput struct {
	Content  string `json:"content"`
	ToolName string `json:"tool_name"`
}

func (e StreamToolOutput) GetType() StreamEventType {
	return StreamEventTypeToolOutput
}

type StreamResponse struct {
	Content  string `json:"content"`
	Complete bool   `json:"complete"`
}

func (e StreamResponse) GetType() StreamEventType {
	return StreamEventTypeResponse
}

type StreamError struct {
	Content string `json:"content"`
}

func (e StreamError) GetType() StreamEventType {
	return StreamEventTypeError
}

type StreamUnknown struct {
	RawType string `json:"type"`
	Content string `json:"content"`
}

func (e StreamUnknown) GetType() StreamEventType {
	return StreamEventTypeUnknown
}

// StreamRecord is one decoded wire record. Snapshot carries the top-level
// tool_outputs array when the record had one; that array replaces the
// visible tool-output sequence wholesale, independent of the per-record
// accumulation done for tool_output events.
type StreamRecord struct {
	Event       StreamEvent
	Snapshot    []string
	HasSnapshot bool
}
