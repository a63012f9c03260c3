// Package ui is the agent's system tray presence: a glanceable status line
// and the controls that make sense without opening the editor.
package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/cutroom/cutroom-agent/internal/timeline"
	"github.com/getlantern/systray"
)

type Tray struct {
	seq    *timeline.Sequence
	runner *timeline.RevisionRunner
	logger *slog.Logger

	projectItem  *systray.MenuItem
	segmentsItem *systray.MenuItem
	playbackItem *systray.MenuItem
	pauseItem    *systray.MenuItem

	mu sync.Mutex

	onQuit func()
}

type TrayConfig struct {
	Sequence *timeline.Sequence
	Runner   *timeline.RevisionRunner
	Logger   *slog.Logger
	OnQuit   func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		seq:    cfg.Sequence,
		runner: cfg.Runner,
		logger: cfg.Logger,
		onQuit: cfg.OnQuit,
	}
}

// Run blocks on the tray event loop. Call from the main goroutine; systray
// requires it on macOS.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Cutroom")
	systray.SetTooltip("Cutroom Agent")

	project := t.seq.Project()
	t.projectItem = systray.AddMenuItem("Project: "+project.Name, "Open project")
	t.projectItem.Disable()

	t.segmentsItem = systray.AddMenuItem("Segments: 0", "Segments on the timeline")
	t.segmentsItem.Disable()

	t.playbackItem = systray.AddMenuItem("Playback: Stopped", "Playback state")
	t.playbackItem.Disable()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause Resolutions", "Pause media resolution")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Cutroom Agent")

	go func() {
		for {
			select {
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
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

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause Resolutions")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume Resolutions")
	}
}

// UpdatePlayback reflects the synchronizer's state in the tray.
func (t *Tray) UpdatePlayback(playing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if playing {
		t.playbackItem.SetTitle("Playback: Playing")
	} else {
		t.playbackItem.SetTitle("Playback: Stopped")
	}
}

func (t *Tray) UpdateSegmentCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.segmentsItem.SetTitle(fmt.Sprintf("Segments: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
