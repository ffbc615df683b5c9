package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"InkNote/internal/export"
)

// ShowExportDialog asks where to save and writes the annotated image as PDF.
func ShowExportDialog(s *Screen, win fyne.Window) {
	doc := s.Document()
	save := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, win)
			return
		}
		if w == nil {
			return
		}
		defer w.Close()
		if err := export.WritePDF(w, doc); err != nil {
			dialog.ShowError(fmt.Errorf("export pdf: %w", err), win)
			return
		}
		logger.Infof("exported %s", w.URI())
	}, win)
	save.SetFilter(storage.NewExtensionFileFilter([]string{".pdf"}))
	save.SetFileName(pdfName(doc))
	save.Show()
}

func pdfName(doc export.Document) string {
	if doc.Image == nil || doc.Image.Name == "" {
		return "annotation.pdf"
	}
	return doc.Image.Name + ".pdf"
}
