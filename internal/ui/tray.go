// Package ui runs the system tray icon: live export status, the clip
// count, and a shortcut to the clip folder.
package ui

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"

	"github.com/getlantern/systray"

	"github.com/clipkit/clipkit-agent/internal/events"
)

type Tray struct {
	hub     *events.Hub
	clipDir string
	logger  *slog.Logger

	statusItem *systray.MenuItem
	clipsItem  *systray.MenuItem

	mu sync.Mutex

	onQuit func()
}

type TrayConfig struct {
	Hub     *events.Hub
	ClipDir string
	Logger  *slog.Logger
	OnQuit  func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		hub:     cfg.Hub,
		clipDir: cfg.ClipDir,
		logger:  cfg.Logger,
		onQuit:  cfg.OnQuit,
	}
}

// Run blocks on the systray event loop. Must be called from the main
// goroutine on platforms that require it.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Clipkit")
	systray.SetTooltip("Clipkit Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current export status")
	t.statusItem.Disable()

	t.clipsItem = systray.AddMenuItem("Clips: 0", "Clips in the library folder")
	t.clipsItem.Disable()

	systray.AddSeparator()

	openItem := systray.AddMenuItem("Open Clip Folder", "Open the clip folder")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Clipkit Agent")

	go t.watchExports()

	go func() {
		for {
			select {
			case <-openItem.ClickedCh:
				t.openClipFolder()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

// watchExports mirrors export lifecycle events onto the status line.
func (t *Tray) watchExports() {
	if t.hub == nil {
		return
	}
	sub := t.hub.Subscribe()
	defer t.hub.Unsubscribe(sub)

	for ev := range sub {
		switch ev.Type {
		case events.TypeProgress:
			t.setStatus(fmt.Sprintf("Exporting %.0f%%", ev.Percent))
		case events.TypeFallback:
			t.setStatus("Exporting (software encode)")
		case events.TypeDone:
			t.setStatus("Idle")
		case events.TypeFailed:
			t.setStatus("Last export failed")
		}
	}
}

func (t *Tray) setStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.statusItem != nil {
		t.statusItem.SetTitle("Status: " + status)
	}
}

// UpdateClipsCount refreshes the clip counter line.
func (t *Tray) UpdateClipsCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.clipsItem != nil {
		t.clipsItem.SetTitle(fmt.Sprintf("Clips: %d", count))
	}
}

func (t *Tray) openClipFolder() {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("explorer", t.clipDir)
	case "darwin":
		cmd = exec.Command("open", t.clipDir)
	default:
		cmd = exec.Command("xdg-open", t.clipDir)
	}
	if err := cmd.Start(); err != nil {
		t.logger.Error("failed to open clip folder", "error", err)
	}
}

func (t *Tray) Quit() {
	systray.Quit()
}
