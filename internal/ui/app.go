package ui

import (
	"context"
	"errors"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"InkNote/internal/config"
	"InkNote/internal/media"
	inknet "InkNote/internal/net"
)

const AppID = "com.inknote.app"

var errNoImage = errors.New("choose an image to annotate")

// shell switches the window between the picker and a mounted screen.
type shell struct {
	app    fyne.App
	win    fyne.Window
	cfg    config.Config
	loader *media.Loader
	screen *Screen
}

func RunApp(cfg config.Config) {
	a := app.NewWithID(AppID)
	cfg.FillFromPreferences(a.Preferences())

	w := a.NewWindow("InkNote")
	w.Resize(fyne.NewSize(1024, 768))

	sh := &shell{app: a, win: w, cfg: cfg, loader: media.NewLoader(cfg.FetchTimeout)}
	w.SetOnClosed(sh.unmount)

	if cfg.Image != "" && cfg.Validate() == nil {
		sh.open(cfg)
	} else {
		sh.showPicker()
	}
	w.ShowAndRun()
}

func (sh *shell) showPicker() {
	server := widget.NewEntry()
	server.SetText(sh.cfg.ServerURL)
	note := widget.NewEntry()
	note.SetPlaceHolder("note id")
	note.SetText(sh.cfg.NoteID)
	image := widget.NewEntry()
	image.SetPlaceHolder("file path or http(s) url")
	image.SetText(sh.cfg.Image)

	browse := widget.NewButton("Browse...", func() {
		open := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, sh.win)
				return
			}
			if r == nil {
				return
			}
			image.SetText(r.URI().Path())
			r.Close()
		}, sh.win)
		open.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}))
		open.Show()
	})

	form := widget.NewForm(
		widget.NewFormItem("Server", server),
		widget.NewFormItem("Note", note),
		widget.NewFormItem("Image", container.NewBorder(nil, nil, nil, browse, image)),
	)
	form.SubmitText = "Open"
	form.OnSubmit = func() {
		cfg := sh.cfg
		cfg.ServerURL = strings.TrimSpace(server.Text)
		cfg.NoteID = strings.TrimSpace(note.Text)
		cfg.Image = strings.TrimSpace(image.Text)
		if err := cfg.Validate(); err != nil {
			dialog.ShowError(err, sh.win)
			return
		}
		sh.open(cfg)
	}

	sh.win.SetContent(container.NewVBox(
		widget.NewLabelWithStyle("Annotate an image", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		form,
	))
}

// open loads the image off the UI goroutine and mounts a screen once it is
// ready. Failures go back to the picker.
func (sh *shell) open(cfg config.Config) {
	if cfg.Image == "" {
		dialog.ShowError(errNoImage, sh.win)
		sh.showPicker()
		return
	}
	src, err := media.ParseSource(cfg.Image)
	if err != nil {
		dialog.ShowError(err, sh.win)
		sh.showPicker()
		return
	}

	sh.cfg = cfg
	sh.win.SetContent(container.NewCenter(container.NewVBox(
		widget.NewLabel("Loading "+src.String()),
		widget.NewProgressBarInfinite(),
	)))

	go func() {
		img, err := sh.loader.Load(context.Background(), src)
		fyne.Do(func() {
			if err != nil {
				sh.showPicker()
				dialog.ShowError(err, sh.win)
				return
			}
			sh.mount(cfg, src, img)
		})
	}()
}

func (sh *shell) mount(cfg config.Config, src media.Source, img *media.Image) {
	sh.unmount()
	cfg.Remember(sh.app.Preferences())

	attempts := cfg.ReconnectAttempts
	if attempts == 0 {
		attempts = -1
	}
	conn := inknet.NewConn(inknet.Options{
		URL:               cfg.ServerURL,
		ReconnectAttempts: attempts,
		ReconnectDelay:    cfg.ReconnectDelay,
	})
	s := NewScreen(cfg, img, conn)
	sh.screen = s

	toolbar := NewToolbar(s, func() { ShowExportDialog(s, sh.win) }, func() {
		sh.unmount()
		sh.showPicker()
	})
	sh.win.SetContent(container.NewBorder(toolbar, nil, nil, nil, s.Board()))

	if err := s.Mount(context.Background()); err != nil {
		dialog.ShowError(err, sh.win)
		return
	}
	if cfg.WatchImage && !src.IsRemote() {
		err := sh.loader.Watch(s.Context(), src.Path, func(img *media.Image) {
			fyne.Do(func() { s.SetImage(img) })
		})
		if err != nil {
			logger.Warnf("not watching %s: %v", src, err)
		}
	}
	if link := cfg.Link(); link != "" {
		logger.Infof("share link: %s", link)
	}
}

func (sh *shell) unmount() {
	if sh.screen == nil {
		return
	}
	sh.screen.Unmount()
	sh.screen = nil
}
