package app

import (
	"fmt"

	"github.com/loomhq/loom/internal/models"
)

// SendMessage starts a send against the active thread and forwards every
// transcript update to the view. A send already in flight surfaces as an
// error to the caller instead of being queued.
func (a *App) SendMessage(message string) error {
	if a.chat == nil || a.threads == nil {
		return fmt.Errorf("chat service not initialized")
	}
	if message == "" {
		return fmt.Errorf("message is required")
	}

	thread := a.threads.Active()
	if thread == nil {
		return fmt.Errorf("no active thread")
	}

	updates, err := a.chat.Send(a.context(), thread, message)
	if err != nil {
		return err
	}

	go func() {
		for update := range updates {
			if update.Done {
				a.emit("chat:done", map[string]string{"error": update.Err})
				continue
			}
			if update.Entry != nil {
				a.emit("chat:entry", update.Entry)
			}
			if update.ToolOutputs != nil {
				a.emit("chat:tool_outputs", update.ToolOutputs)
			}
		}
	}()

	return nil
}

func (a *App) CancelSend() {
	if a.chat == nil {
		return
	}

	a.chat.CancelSend()
}

// ResetChat clears the active thread's conversation server-side and
// locally.
func (a *App) ResetChat() error {
	if a.chat == nil || a.threads == nil {
		return fmt.Errorf("chat service not initialized")
	}

	thread := a.threads.Active()
	if thread == nil {
		return fmt.Errorf("no active thread")
	}

	return a.chat.Reset(a.context(), thread.ID)
}

func (a *App) GetTranscript() []*models.TranscriptEntry {
	if a.chat == nil {
		return []*models.TranscriptEntry{}
	}

	return a.chat.Transcript()
}

func (a *App) GetToolOutputs() []string {
	if a.chat == nil {
		return []string{}
	}

	return a.chat.ToolOutputs()
}
