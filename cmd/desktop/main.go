package main

import (
	"context"
	"log"

	"github.com/wailsapp/wails/v3/pkg/application"

	"github.com/focusagent/focusagent/internal/api"
	"github.com/focusagent/focusagent/internal/assets"
	"github.com/focusagent/focusagent/internal/config"
	"github.com/focusagent/focusagent/internal/focus"
	"github.com/focusagent/focusagent/internal/logger"
	"github.com/focusagent/focusagent/internal/models"
	"github.com/focusagent/focusagent/internal/recovery"
)

const (
	bannerWidth  = 420
	bannerHeight = 64
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger.Configure(logger.GetLogLevelFromEnv(cfg.Dev), cfg.Dev)

	client := api.NewClient(cfg.APIURL, api.WithTimeout(cfg.RequestTimeout))
	coord := focus.New(cfg, client)

	app := application.New(application.Options{
		Name:        "FocusAgent",
		Description: "Off-task banner overlay",
		Services: []application.Service{
			application.NewService(&FocusDesktopService{ctrl: coord, cfg: cfg}),
		},
		Assets: application.AssetOptions{
			Handler: application.AssetFileServerFS(assets.Banner()),
		},
		Mac: application.MacOptions{
			ActivationPolicy: application.ActivationPolicyAccessory,
		},
	})

	// The banner starts hidden; visibility follows the coordinator
	window := app.Window.NewWithOptions(application.WebviewWindowOptions{
		Name:             "banner",
		Title:            "FocusAgent",
		Width:            bannerWidth,
		Height:           bannerHeight,
		Frameless:        true,
		AlwaysOnTop:      true,
		Hidden:           true,
		DisableResize:    true,
		BackgroundType:   application.BackgroundTypeTransparent,
		BackgroundColour: application.NewRGBA(0, 0, 0, 0),
		URL:              "/",
	})

	ctx, cancel := context.WithCancel(context.Background())
	states, unsubscribe := coord.Subscribe()

	recovery.SafeGo("coordinator", func() {
		if err := coord.Run(ctx); err != nil {
			logger.Errorf("❌ Coordinator stopped: %v", err)
		}
	})
	recovery.SafeGo("banner-window", func() {
		followBanner(states, func() { window.Show() }, func() { window.Hide() })
	})

	err = app.Run()

	unsubscribe()
	cancel()
	<-coord.Done()

	if err != nil {
		log.Fatal(err)
	}
}

// followBanner shows or hides the window whenever banner visibility changes.
// It returns when states is closed.
func followBanner(states <-chan models.ClientState, show, hide func()) {
	visible := false
	for state := range states {
		if state.BannerVisible == visible {
			continue
		}
		visible = state.BannerVisible
		if visible {
			show()
		} else {
			hide()
		}
	}
}
