package models

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleError     Role = "error"
)

// TranscriptEntry is one display-ready message in the active thread's
// transcript. Within a single send exactly one unflagged assistant entry
// exists and is mutated in place as cumulative response text arrives;
// announcement and status entries are flagged and never merged with it.
type TranscriptEntry struct {
	EntryID        string   `json:"entry_id"`
	Role           Role     `json:"role"`
	Content        string   `json:"content"`
	IsAnnouncement bool     `json:"is_announcement,omitempty"`
	IsStatus       bool     `json:"is_status,omitempty"`
	HasToolOutputs bool     `json:"has_tool_outputs,omitempty"`
	ToolOutputs    []string `json:"tool_outputs,omitempty"`
}

// TranscriptUpdate is one increment pushed to the view while a send is in
// flight. Entry carries a snapshot of the entry that changed, ToolOutputs
// the full visible tool-output sequence when it changed. The final update
// of a send has Done set, with Err filled in when the send failed.
type TranscriptUpdate struct {
	Entry       *TranscriptEntry `json:"entry,omitempty"`
	ToolOutputs []string         `json:"tool_outputs,omitempty"`
	Done        bool             `json:"done,omitempty"`
	Err         string           `json:"error,omitempty"`
}
