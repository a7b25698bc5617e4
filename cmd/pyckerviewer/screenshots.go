package main

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/keurfonluu/pyckerviewer/cmd/pyckerviewer/uihelpers"
	"github.com/keurfonluu/pyckerviewer/src/session"
)

// RunScreenshotsMode renders the wiggle and gather charts of the first file
// in dirPath and writes them as PNGs under outDir. It runs headlessly without
// creating a UI window.
func RunScreenshotsMode(dirPath, outDir string) error {
	if dirPath == "" {
		return fmt.Errorf("screenshots mode needs -dir")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}
	ctrl := session.New(session.DiskReader{})
	if err := ctrl.ImportDirectory(dirPath); err != nil {
		return err
	}
	if err := ctrl.SelectIndex(0); err != nil {
		return err
	}

	cfg := ctrl.Config()
	cfg.Wiggle = true
	cfg.Fill = true
	cfg.Normalize = true
	ctrl.SetConfig(cfg)
	plan, err := ctrl.Plot()
	if err != nil {
		return err
	}
	img, err := plan.Wiggle.Render(1000, 620)
	if err != nil {
		return err
	}
	if err := writePNG(filepath.Join(outDir, "wiggle.png"), img); err != nil {
		return err
	}

	cfg.Wiggle = false
	ctrl.SetConfig(cfg)
	plan, err = ctrl.Plot()
	if err != nil {
		return err
	}
	img, err = plan.Gather.Compose(uihelpers.GatherColumns(ctrl.NumChannels()), 1000, 620)
	if err != nil {
		return err
	}
	return writePNG(filepath.Join(outDir, "gather.png"), img)
}

func writePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("png encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
