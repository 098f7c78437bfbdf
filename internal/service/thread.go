package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/loomhq/loom/internal/api"
	"github.com/loomhq/loom/internal/models"
	"github.com/loomhq/loom/internal/service/storage"
)

// ThreadService caches the server's thread list and tracks which thread is
// active. The server is authoritative: the cache is only ever replaced
// from a successful list call, never partially mutated on failure.
type ThreadService struct {
	mu           sync.RWMutex
	client       *api.Client
	store        *storage.Store
	chat         *ChatService
	threads      []*models.ThreadInfo
	active       *models.ThreadInfo
	storedActive string
}

func NewThreadService(client *api.Client, store *storage.Store, chat *ChatService) *ThreadService {
	s := &ThreadService{
		client: client,
		store:  store,
		chat:   chat,
	}

	if store != nil {
		threadID, err := store.LoadActiveThread()
		if err != nil {
			log.Printf("failed to load active thread: %v", err)
		} else {
			s.storedActive = threadID
		}
	}

	return s
}

// List refreshes the cache from the server. When nothing is active yet it
// selects the warm-reload thread if it still exists, otherwise the most
// recently active one.
func (s *ThreadService) List(ctx context.Context) error {
	threads, err := s.client.ListThreads(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.threads = threads

	if s.active == nil && len(threads) > 0 {
		selected := findThread(threads, s.storedActive)
		if selected == nil {
			selected = mostRecentThread(threads)
		}
		s.setActiveLocked(selected)
	} else if s.active != nil {
		// Keep the active pointer on the fresh server copy.
		if current := findThread(threads, s.active.ID); current != nil {
			s.active = current
		}
	}
	s.mu.Unlock()

	return nil
}

// Create posts a new thread, then re-fetches the full list so
// server-assigned fields stay authoritative, and activates the new thread.
// When the refresh fails the server-confirmed thread is prepended to the
// stale cache instead, so the creation is never invisible locally. A
// supplied first message is forwarded to the chat pathway in the
// background; its failure does not roll back creation.
func (s *ThreadService) Create(ctx context.Context, contextType models.ContextType, taskType, title, firstMessage string) (*models.ThreadInfo, error) {
	if contextType == "" {
		contextType = models.ContextGeneralChat
	}

	created, err := s.client.CreateThread(ctx, api.CreateThreadRequest{
		ContextType: contextType,
		TaskType:    taskType,
		Title:       title,
	})
	if err != nil {
		return nil, err
	}

	if err := s.List(ctx); err != nil {
		log.Printf("failed to refresh threads after create: %v", err)
		s.mu.Lock()
		s.threads = append([]*models.ThreadInfo{created}, s.threads...)
		s.mu.Unlock()
	}

	s.mu.Lock()
	thread := findThread(s.threads, created.ID)
	if thread == nil {
		thread = created
	}
	s.setActiveLocked(thread)
	s.mu.Unlock()

	if strings.TrimSpace(firstMessage) != "" {
		s.sendFirstMessage(ctx, thread, firstMessage)
	}

	return thread, nil
}

// sendFirstMessage starts the send and drains its updates off the calling
// goroutine, so Create returns as soon as the thread is active instead of
// stalling for the whole reply.
func (s *ThreadService) sendFirstMessage(ctx context.Context, thread *models.ThreadInfo, message string) {
	updates, err := s.chat.Send(ctx, thread, message)
	if err != nil {
		log.Printf("failed to send first message to thread %s: %v", thread.ID, err)
		return
	}

	go func() {
		for update := range updates {
			if update.Done && update.Err != "" {
				log.Printf("first message to thread %s failed: %s", thread.ID, update.Err)
			}
		}
	}()
}

// Archive archives the thread server-side, removes it from the cache, and
// promotes the first remaining thread when the archived one was active.
func (s *ThreadService) Archive(ctx context.Context, threadID string) error {
	if threadID == "" {
		return fmt.Errorf("thread id is required")
	}

	if err := s.client.ArchiveThread(ctx, threadID); err != nil {
		return err
	}

	s.mu.Lock()
	remaining := make([]*models.ThreadInfo, 0, len(s.threads))
	for _, thread := range s.threads {
		if thread.ID != threadID {
			remaining = append(remaining, thread)
		}
	}
	s.threads = remaining

	if s.active != nil && s.active.ID == threadID {
		if len(remaining) > 0 {
			s.setActiveLocked(remaining[0])
		} else {
			s.setActiveLocked(nil)
		}
	}
	s.mu.Unlock()

	return nil
}

// Select makes a cached thread active and loads its history into the chat
// service. The thread stays selected even when the history load fails.
func (s *ThreadService) Select(ctx context.Context, threadID string) error {
	s.mu.Lock()
	thread := findThread(s.threads, threadID)
	if thread == nil {
		s.mu.Unlock()
		return fmt.Errorf("thread not found: %s", threadID)
	}
	s.setActiveLocked(thread)
	s.mu.Unlock()

	if err := s.chat.LoadHistory(ctx, threadID); err != nil {
		return fmt.Errorf("failed to load thread history: %w", err)
	}

	return nil
}

func (s *ThreadService) Threads() []*models.ThreadInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	threads := make([]*models.ThreadInfo, 0, len(s.threads))
	for _, thread := range s.threads {
		copied := *thread
		threads = append(threads, &copied)
	}
	return threads
}

func (s *ThreadService) Active() *models.ThreadInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == nil {
		return nil
	}
	copied := *s.active
	return &copied
}

// setActiveLocked updates the active thread, re-homes the chat transcript,
// and persists the id for warm reload. Callers hold s.mu.
func (s *ThreadService) setActiveLocked(thread *models.ThreadInfo) {
	s.active = thread

	threadID := ""
	if thread != nil {
		threadID = thread.ID
	}
	s.storedActive = threadID

	if s.chat != nil {
		s.chat.SetActiveThread(threadID)
	}
	if s.store != nil {
		if err := s.store.SaveActiveThread(threadID); err != nil {
			log.Printf("failed to persist active thread: %v", err)
		}
	}
}

func findThread(threads []*models.ThreadInfo, threadID string) *models.ThreadInfo {
	if threadID == "" {
		return nil
	}
	for _, thread := range threads {
		if thread.ID == threadID {
			return thread
		}
	}
	return nil
}

func mostRecentThread(threads []*models.ThreadInfo) *models.ThreadInfo {
	var recent *models.ThreadInfo
	for _, thread := range threads {
		if recent == nil || thread.LastActivityAt.After(recent.LastActivityAt) {
			recent = thread
		}
	}
	return recent
}
