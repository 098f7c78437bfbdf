package app

import (
	"fmt"

	"github.com/loomhq/loom/internal/models"
)

func (a *App) Login(email, password string) (*models.UserProfile, error) {
	if a.sessions == nil {
		return nil, fmt.Errorf("session service not initialized")
	}

	return a.sessions.Login(a.context(), email, password)
}

func (a *App) Register(name, email, password string) (*models.UserProfile, error) {
	if a.sessions == nil {
		return nil, fmt.Errorf("session service not initialized")
	}

	return a.sessions.Register(a.context(), name, email, password)
}

func (a *App) Logout() {
	if a.sessions == nil {
		return
	}

	a.sessions.Logout()
}

func (a *App) CurrentUser() *models.UserProfile {
	if a.sessions == nil {
		return nil
	}

	return a.sessions.CurrentUser()
}

func (a *App) IsAuthenticated() bool {
	if a.sessions == nil {
		return false
	}

	return a.sessions.IsAuthenticated()
}
