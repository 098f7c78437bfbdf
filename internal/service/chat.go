package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/loomhq/loom/internal/api"
	"github.com/loomhq/loom/internal/models"
	"github.com/loomhq/loom/internal/utils"
)

var (
	ErrSendInFlight   = errors.New("a send is already in flight")
	ErrNoActiveThread = errors.New("no active thread")
)

// ChatService owns the in-memory transcript and tool-output sequence for
// the active thread and folds the chat stream into them. One send may be
// in flight at a time; a second Send is rejected rather than queued.
type ChatService struct {
	mu           sync.RWMutex
	client       *api.Client
	activeThread string
	entries      []*models.TranscriptEntry
	toolOutputs  []string
	sending      bool
	cancelFunc   context.CancelFunc
}

// sendState is the per-send operation state: the stable entry id for the
// mutable assistant entry, the one-shot announcement/status flags, and the
// local tool-output accumulator. It is scoped to a single send and
// discarded at completion, which is also what keeps a thread switch during
// a send from corrupting the next thread's transcript.
type sendState struct {
	threadID         string
	entryID          string
	announcementSent bool
	statusSent       bool
	toolOutputs      []string
	failed           bool
	failure          string
}

func NewChatService(client *api.Client) *ChatService {
	return &ChatService{client: client}
}

// Send appends the user entry synchronously, then opens the stream and
// folds its records on a background goroutine. The returned channel
// carries one update per transcript change and closes after a final Done
// update; Err on that update means the send failed.
func (s *ChatService) Send(ctx context.Context, thread *models.ThreadInfo, message string) (<-chan models.TranscriptUpdate, error) {
	if thread == nil || thread.ID == "" {
		return nil, ErrNoActiveThread
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message is required")
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return nil, ErrSendInFlight
	}
	s.sending = true

	// The transcript follows the thread the send targets.
	if s.activeThread != thread.ID {
		s.activeThread = thread.ID
		s.entries = nil
	}
	s.toolOutputs = nil

	userEntry := &models.TranscriptEntry{
		EntryID: utils.NewEntryID(),
		Role:    models.RoleUser,
		Content: message,
	}
	s.entries = append(s.entries, userEntry)

	state := &sendState{
		threadID: thread.ID,
		entryID:  utils.NewEntryID(),
	}

	sendCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel
	s.mu.Unlock()

	updates := make(chan models.TranscriptUpdate)
	go s.run(sendCtx, thread, message, state, cloneEntry(userEntry), updates)

	return updates, nil
}

func (s *ChatService) run(ctx context.Context, thread *models.ThreadInfo, message string, state *sendState, userEntry *models.TranscriptEntry, updates chan<- models.TranscriptUpdate) {
	defer close(updates)
	defer func() {
		s.mu.Lock()
		s.sending = false
		s.cancelFunc = nil
		s.mu.Unlock()
	}()

	updates <- models.TranscriptUpdate{Entry: userEntry}

	body, err := s.client.StreamChat(ctx, api.ChatRequest{
		Message:     message,
		ThreadID:    thread.ID,
		ContextType: thread.ContextType,
		TaskType:    thread.TaskType,
	})
	if err != nil {
		if entry := s.appendFailure(state, err.Error()); entry != nil {
			updates <- models.TranscriptUpdate{Entry: entry}
		}
		updates <- models.TranscriptUpdate{Done: true, Err: state.failure}
		return
	}
	defer func() {
		_ = body.Close()
	}()

	scanErr := api.ScanEvents(body, func(record models.StreamRecord) {
		if update, ok := s.fold(state, record); ok {
			updates <- update
		}
	})
	if scanErr != nil && ctx.Err() == nil {
		if entry := s.appendFailure(state, scanErr.Error()); entry != nil {
			updates <- models.TranscriptUpdate{Entry: entry}
		}
	}

	final := models.TranscriptUpdate{Done: true}
	if state.failed {
		final.Err = state.failure
	}
	updates <- final
}

// fold applies one decoded record to the transcript and tool-output
// sequence. It reports whether anything visible changed; records for a
// thread that is no longer active change nothing.
func (s *ChatService) fold(state *sendState, record models.StreamRecord) (models.TranscriptUpdate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeThread != state.threadID {
		// The send still fails if the discarded stream errored.
		if event, ok := record.Event.(models.StreamError); ok {
			state.failed = true
			state.failure = event.Content
		}
		return models.TranscriptUpdate{}, false
	}

	var update models.TranscriptUpdate
	var changed bool

	switch event := record.Event.(type) {
	case models.StreamAnnouncement:
		if !state.announcementSent {
			state.announcementSent = true
			entry := &models.TranscriptEntry{
				EntryID:        utils.NewEntryID(),
				Role:           models.RoleAssistant,
				Content:        event.Content,
				IsAnnouncement: true,
			}
			s.entries = append(s.entries, entry)
			update.Entry = cloneEntry(entry)
			changed = true
		}
	case models.StreamToolStatus:
		if !state.statusSent {
			state.statusSent = true
			entry := &models.TranscriptEntry{
				EntryID:  utils.NewEntryID(),
				Role:     models.RoleAssistant,
				Content:  event.Content,
				IsStatus: true,
			}
			s.entries = append(s.entries, entry)
			update.Entry = cloneEntry(entry)
			changed = true
		}
	case models.StreamToolOutput:
		state.toolOutputs = append(state.toolOutputs, event.Content)
		s.toolOutputs = append(s.toolOutputs, event.Content)
		update.ToolOutputs = append([]string(nil), s.toolOutputs...)
		changed = true
	case models.StreamResponse:
		// An empty complete response is the end-of-stream sentinel.
		if event.Content != "" || !event.Complete {
			entry := s.findSendEntry(state.entryID)
			if entry == nil {
				entry = &models.TranscriptEntry{
					EntryID: state.entryID,
					Role:    models.RoleAssistant,
				}
				s.entries = append(s.entries, entry)
			}
			// Response text is cumulative, not a delta.
			entry.Content = event.Content
			if !entry.HasToolOutputs && len(state.toolOutputs) > 0 {
				entry.HasToolOutputs = true
				entry.ToolOutputs = append([]string(nil), state.toolOutputs...)
			}
			update.Entry = cloneEntry(entry)
			changed = true
		}
	case models.StreamError:
		state.failed = true
		state.failure = event.Content
		entry := &models.TranscriptEntry{
			EntryID: utils.NewEntryID(),
			Role:    models.RoleError,
			Content: event.Content,
		}
		s.entries = append(s.entries, entry)
		update.Entry = cloneEntry(entry)
		changed = true
	case models.StreamUnknown:
		// Tolerated; nothing to fold.
	}

	if record.HasSnapshot {
		s.toolOutputs = append([]string(nil), record.Snapshot...)
		state.toolOutputs = append([]string(nil), record.Snapshot...)
		update.ToolOutputs = append([]string(nil), s.toolOutputs...)
		changed = true
	}

	return update, changed
}

// findSendEntry locates the send's mutable assistant entry by its stable
// id. Flagged entries never match because they are minted with their own
// ids.
func (s *ChatService) findSendEntry(entryID string) *models.TranscriptEntry {
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if entry.EntryID == entryID && entry.Role == models.RoleAssistant && !entry.IsAnnouncement && !entry.IsStatus {
			return entry
		}
	}
	return nil
}

func (s *ChatService) appendFailure(state *sendState, message string) *models.TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.failed = true
	state.failure = message

	if s.activeThread != state.threadID {
		return nil
	}

	entry := &models.TranscriptEntry{
		EntryID: utils.NewEntryID(),
		Role:    models.RoleError,
		Content: message,
	}
	s.entries = append(s.entries, entry)
	return cloneEntry(entry)
}

// CancelSend aborts the in-flight send's transport, if any.
func (s *ChatService) CancelSend() {
	s.mu.RLock()
	cancel := s.cancelFunc
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
}

// Reset calls the server-side reset endpoint and, on success, clears the
// cached transcript when the reset thread is the active one. Other
// threads' transcripts are untouched.
func (s *ChatService) Reset(ctx context.Context, threadID string) error {
	if threadID == "" {
		return fmt.Errorf("thread id is required")
	}

	if err := s.client.ResetChat(ctx, threadID); err != nil {
		return err
	}

	s.mu.Lock()
	if s.activeThread == threadID {
		s.entries = nil
		s.toolOutputs = nil
	}
	s.mu.Unlock()

	return nil
}

// SetActiveThread re-homes the transcript to another thread, discarding
// the previous thread's in-memory state. An empty id clears everything.
func (s *ChatService) SetActiveThread(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeThread == threadID {
		return
	}
	s.activeThread = threadID
	s.entries = nil
	s.toolOutputs = nil
}

// LoadHistory replaces the transcript wholesale with the server's
// ordering. Messages missing optional fields get defaults: a minted entry
// id, the assistant role for anything that is not user or error.
func (s *ChatService) LoadHistory(ctx context.Context, threadID string) error {
	if threadID == "" {
		return fmt.Errorf("thread id is required")
	}

	resp, err := s.client.ThreadMessages(ctx, threadID)
	if err != nil {
		return err
	}

	entries := make([]*models.TranscriptEntry, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		entries = append(entries, historyEntry(msg))
	}

	s.mu.Lock()
	s.activeThread = threadID
	s.entries = entries
	s.toolOutputs = append([]string(nil), resp.ToolOutputs...)
	s.mu.Unlock()

	return nil
}

func historyEntry(msg api.HistoryMessage) *models.TranscriptEntry {
	entryID := msg.EntryID
	if entryID == "" {
		entryID = utils.NewEntryID()
	}

	var role models.Role
	switch msg.Role {
	case "user", "human":
		role = models.RoleUser
	case "error":
		role = models.RoleError
	default:
		role = models.RoleAssistant
	}

	return &models.TranscriptEntry{
		EntryID: entryID,
		Role:    role,
		Content: msg.Content,
	}
}

func (s *ChatService) ActiveThread() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.activeThread
}

func (s *ChatService) Sending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sending
}

// Transcript returns a snapshot of the active thread's transcript.
func (s *ChatService) Transcript() []*models.TranscriptEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*models.TranscriptEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, cloneEntry(entry))
	}
	return entries
}

// ToolOutputs returns a snapshot of the visible tool-output sequence.
func (s *ChatService) ToolOutputs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.toolOutputs...)
}

func cloneEntry(entry *models.TranscriptEntry) *models.TranscriptEntry {
	clone := *entry
	if entry.ToolOutputs != nil {
		clone.ToolOutputs = append([]string(nil), entry.ToolOutputs...)
	}
	return &clone
}
