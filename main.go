package main

import (
	"context"
	"embed"
	"log"
	"net/url"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/MJE43/survival-arcade/bindings"
	"github.com/MJE43/survival-arcade/internal/config"
	"github.com/MJE43/survival-arcade/internal/games"
)

//go:embed all:frontend/dist
var assets embed.FS

const repoURL = "https://github.com/MJE43/survival-arcade"

// shell holds the Wails context for menu callbacks, which run outside any
// bound method.
type shell struct {
	mu  sync.RWMutex
	ctx context.Context
}

func (s *shell) set(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
}

// with runs fn with the live context, or drops the action before startup.
func (s *shell) with(fn func(context.Context)) {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if ctx == nil {
		log.Println("menu action ignored: window not ready")
		return
	}
	fn(ctx)
}

func main() {
	log.Printf("Starting Survival Arcade (Go %s)...", runtime.Version())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	app := bindings.New(cfg)
	sh := &shell{}
	icon, _ := assets.ReadFile("frontend/dist/assets/logo.png")

	err = wails.Run(&options.App{
		Title:            "Survival Arcade",
		Width:            1280,
		Height:           800,
		MinWidth:         960,
		MinHeight:        720,
		BackgroundColour: &options.RGBA{R: 17, G: 17, B: 17, A: 255},
		AssetServer:      &assetserver.Options{Assets: assets},

		OnStartup: func(ctx context.Context) {
			sh.set(ctx)
			if err := app.Startup(ctx); err != nil {
				log.Printf("startup failed: %v", err)
				wruntime.Quit(ctx)
				return
			}
			log.Printf("Arcade ready (db %s, api enabled: %v)", cfg.DBPath, cfg.APIEnabled)
		},
		OnBeforeClose: func(ctx context.Context) bool {
			if err := app.Shutdown(ctx); err != nil {
				log.Printf("shutdown error: %v", err)
			}
			sh.set(nil)
			return false
		},

		Menu: arcadeMenu(sh, app, filepath.Dir(cfg.DBPath)),
		Bind: []interface{}{app},

		LogLevel:           logger.INFO,
		LogLevelProduction: logger.ERROR,
		ErrorFormatter: func(err error) any {
			if err == nil {
				return nil
			}
			return err.Error()
		},

		// One instance per machine; the save file is not shared.
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId: "5f0c2a9e-survival-arcade",
			OnSecondInstanceLaunch: func(data options.SecondInstanceData) {
				log.Printf("second instance refused (args %v)", data.Args)
			},
		},
		DragAndDrop: &options.DragAndDrop{DisableWebViewDrop: true},

		Windows: &windows.Options{Theme: windows.Dark, WindowClassName: "SurvivalArcadeWindow"},
		Mac: &mac.Options{
			About: &mac.AboutInfo{
				Title:   "Survival Arcade",
				Message: "Eleven survival mini-games, a challenge run and a power-up shop.",
				Icon:    icon,
			},
		},
		Linux: &linux.Options{Icon: icon, ProgramName: "survival-arcade"},
	})
	if err != nil {
		log.Fatalf("wails: %v", err)
	}
}

func arcadeMenu(sh *shell, app *bindings.App, dataDir string) *menu.Menu {
	root := menu.NewMenu()
	if runtime.GOOS == "darwin" {
		root.Append(menu.AppMenu())
	}

	file := root.AddSubmenu("File")
	file.AddText("Open Save Folder", keys.CmdOrCtrl("o"), func(*menu.CallbackData) {
		sh.with(func(ctx context.Context) { wruntime.BrowserOpenURL(ctx, folderURL(dataDir)) })
	})
	file.AddSeparator()
	file.AddText("Quit", keys.CmdOrCtrl("q"), func(*menu.CallbackData) {
		sh.with(wruntime.Quit)
	})

	// Navigation goes through the same bindings the frontend calls, so the
	// state:changed event redraws the window.
	game := root.AddSubmenu("Game")
	nav := func(label string, acc *keys.Accelerator, run func() error) {
		game.AddText(label, acc, func(*menu.CallbackData) {
			if err := run(); err != nil {
				log.Printf("%s: %v", label, err)
			}
		})
	}
	nav("Back to Lobby", keys.CmdOrCtrl("l"), func() error {
		_, err := app.BackToLobby()
		return err
	})
	nav("Challenge Mode", keys.Combo("c", keys.CmdOrCtrlKey, keys.ShiftKey), func() error {
		_, err := app.SelectGame(string(games.ChallengeMode))
		return err
	})
	nav("Shop", keys.CmdOrCtrl("s"), func() error {
		_, err := app.SelectGame(string(games.Shop))
		return err
	})

	view := root.AddSubmenu("View")
	view.AddText("Reload", keys.CmdOrCtrl("r"), func(*menu.CallbackData) {
		sh.with(wruntime.WindowReloadApp)
	})
	view.AddText("Toggle Fullscreen", keys.Key("f11"), func(*menu.CallbackData) {
		sh.with(func(ctx context.Context) {
			if wruntime.WindowIsFullscreen(ctx) {
				wruntime.WindowUnfullscreen(ctx)
			} else {
				wruntime.WindowFullscreen(ctx)
			}
		})
	})

	help := root.AddSubmenu("Help")
	help.AddText("Project Page", nil, func(*menu.CallbackData) {
		sh.with(func(ctx context.Context) { wruntime.BrowserOpenURL(ctx, repoURL) })
	})
	return root
}

// folderURL turns a directory into a file:// URL the OS shell can open.
func folderURL(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	p := filepath.ToSlash(abs)
	if len(p) > 0 && p[0] != '/' {
		p = "/" + p // drive letter on Windows
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}
