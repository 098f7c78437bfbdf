package main

import (
	"embed"
	"log"

	"github.com/joho/godotenv"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"

	"github.com/loomhq/loom/internal/api"
	"github.com/loomhq/loom/internal/app"
	"github.com/loomhq/loom/internal/config"
	"github.com/loomhq/loom/internal/service"
	"github.com/loomhq/loom/internal/service/storage"
)

//go:embed all:frontend/src
var assets embed.FS

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		_ = store.Close()
	}()

	client := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)
	sessions := service.NewSessionService(client, store)
	client.SetTokenSource(sessions.Token)
	client.SetUnauthorizedHook(sessions.HandleUnauthorized)

	chat := service.NewChatService(client)
	threads := service.NewThreadService(client, store, chat)
	videos := service.NewVideoService(client)

	application := app.NewApp(sessions, threads, chat, videos)

	err = wails.Run(&options.App{
		Title:     "Loom",
		Width:     1024,
		Height:    720,
		MinWidth:  800,
		MinHeight: 600,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 250, G: 250, B: 250, A: 255},
		OnStartup:        application.Startup,
		Bind: []any{
			application,
		},
		Mac: &mac.Options{
			TitleBar:             mac.TitleBarDefault(),
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
		},
	})

	if err != nil {
		log.Fatal(err)
	}
}
