package app

import (
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/loomhq/loom/internal/models"
)

func (a *App) UploadVideo(filePath string) (*models.VideoNote, error) {
	if a.videos == nil {
		return nil, fmt.Errorf("video service not initialized")
	}
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	return a.videos.UploadFile(a.context(), filePath)
}

func (a *App) ProcessYouTubeVideo(videoURL string) (*models.VideoNote, error) {
	if a.videos == nil {
		return nil, fmt.Errorf("video service not initialized")
	}

	return a.videos.ProcessYouTubeURL(a.context(), videoURL)
}

// SelectVideoFile opens a native file picker and returns the chosen path,
// or an empty string when the user cancels.
func (a *App) SelectVideoFile() (string, error) {
	if a.videos == nil {
		return "", fmt.Errorf("video service not initialized")
	}

	return runtime.OpenFileDialog(a.context(), runtime.OpenDialogOptions{
		Title: "Select Video File",
		Filters: []runtime.FileFilter{
			{DisplayName: "Videos", Pattern: "*.mp4;*.mov;*.webm;*.mkv"},
		},
	})
}
