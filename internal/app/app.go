package app

import (
	"context"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/loomhq/loom/internal/service"
)

// App is the view-facing surface. Bindings validate arguments, call into
// the services, and push incremental state to the frontend through runtime
// events.
type App struct {
	ctx      context.Context
	ctxMu    sync.RWMutex
	sessions *service.SessionService
	threads  *service.ThreadService
	chat     *service.ChatService
	videos   *service.VideoService
}

func NewApp(sessions *service.SessionService, threads *service.ThreadService, chat *service.ChatService, videos *service.VideoService) *App {
	return &App{
		sessions: sessions,
		threads:  threads,
		chat:     chat,
		videos:   videos,
	}
}

func (a *App) Startup(ctx context.Context) {
	a.ctxMu.Lock()
	a.ctx = ctx
	a.ctxMu.Unlock()

	a.sessions.SetClearedHook(func() {
		a.emit("session:expired", nil)
	})
}

func (a *App) context() context.Context {
	a.ctxMu.RLock()
	defer a.ctxMu.RUnlock()

	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

func (a *App) emit(event string, payload any) {
	a.ctxMu.RLock()
	ctx := a.ctx
	a.ctxMu.RUnlock()

	if ctx == nil {
		return
	}
	runtime.EventsEmit(ctx, event, payload)
}
