package app

import (
	"fmt"

	"github.com/loomhq/loom/internal/models"
)

func (a *App) ListThreads() ([]*models.ThreadInfo, error) {
	if a.threads == nil {
		return nil, fmt.Errorf("thread service not initialized")
	}

	if err := a.threads.List(a.context()); err != nil {
		return nil, err
	}

	return a.threads.Threads(), nil
}

func (a *App) CreateThread(contextType, taskType, title, firstMessage string) (*models.ThreadInfo, error) {
	if a.threads == nil {
		return nil, fmt.Errorf("thread service not initialized")
	}

	thread, err := a.threads.Create(a.context(), models.ContextType(contextType), taskType, title, firstMessage)
	if err != nil {
		return nil, err
	}

	a.emit("thread:selected", thread)
	return thread, nil
}

func (a *App) ArchiveThread(threadID string) error {
	if a.threads == nil {
		return fmt.Errorf("thread service not initialized")
	}
	if threadID == "" {
		return fmt.Errorf("thread ID is required")
	}

	if err := a.threads.Archive(a.context(), threadID); err != nil {
		return err
	}

	a.emit("thread:selected", a.threads.Active())
	return nil
}

func (a *App) SelectThread(threadID string) error {
	if a.threads == nil {
		return fmt.Errorf("thread service not initialized")
	}
	if threadID == "" {
		return fmt.Errorf("thread ID is required")
	}

	if err := a.threads.Select(a.context(), threadID); err != nil {
		return err
	}

	a.emit("thread:selected", a.threads.Active())
	return nil
}

func (a *App) ActiveThread() *models.ThreadInfo {
	if a.threads == nil {
		return nil
	}

	return a.threads.Active()
}
