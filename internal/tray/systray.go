package tray

import (
	"sync"

	"github.com/energye/systray"
)

// Systray creates Icons backed by the process-wide energye/systray item.
// The native loop starts with the first Create and lives until Quit, so
// turning the tray off only clears the item until the daemon restarts.
type Systray struct {
	once  sync.Once
	ready chan struct{}
	end   func()
}

// NewSystray returns a factory; nothing is shown until Create is called.
func NewSystray() *Systray {
	return &Systray{ready: make(chan struct{})}
}

func (s *Systray) Create() (Icon, error) {
	s.once.Do(func() {
		start, end := systray.RunWithExternalLoop(func() { close(s.ready) }, func() {})
		s.end = end
		go start()
	})
	<-s.ready
	return &systrayIcon{}, nil
}

// Quit tears down the native tray item.
func (s *Systray) Quit() {
	if s.end != nil {
		systray.Quit()
	}
}

type systrayIcon struct{}

func (i *systrayIcon) SetImage(png []byte) {
	systray.SetIcon(png)
}

func (i *systrayIcon) SetTooltip(tooltip string) {
	systray.SetTooltip(tooltip)
	systray.SetTitle(tooltip)
}

func (i *systrayIcon) SetMenu(items []MenuItem) {
	systray.ResetMenu()
	for _, item := range items {
		if item.Separator {
			systray.AddSeparator()
			continue
		}
		label := item.Label
		if item.Accelerator != "" {
			label += "\t" + item.Accelerator
		}
		action := item.Action
		systray.AddMenuItem(label, item.Label).Click(action)
	}
}

func (i *systrayIcon) OnClick(fn func(openMenu func())) {
	systray.SetOnClick(func(menu systray.IMenu) {
		fn(func() { _ = menu.ShowMenu() })
	})
	systray.SetOnRClick(func(menu systray.IMenu) {
		_ = menu.ShowMenu()
	})
}

func (i *systrayIcon) Destroy() {
	systray.ResetMenu()
	systray.SetTooltip("")
	systray.SetTitle("")
	systray.SetOnClick(func(systray.IMenu) {})
	systray.SetOnRClick(func(systray.IMenu) {})
}
