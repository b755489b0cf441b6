package backend

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/brutella/hc/log"
	"github.com/nfnt/resize"
)

const defaultQuality = 90

// Config describes the output artifact.
type Config struct {
	// Path of the image file, overwritten on every save.
	Path string
	// Width scales the image when > 0, the height keeps the aspect ratio.
	Width uint
	// Quality of the re-encoded JPEG when scaling.
	Quality int
}

// Store writes the snapshot file.
type Store struct {
	cfg Config
}

func NewStore(cfg Config) *Store {
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = defaultQuality
	}
	return &Store{cfg: cfg}
}

// Path returns the artifact location.
func (s *Store) Path() string {
	return s.cfg.Path
}

// Save replaces the artifact with frame.
func (s *Store) Save(frame []byte) error {
	data := frame
	if s.cfg.Width > 0 {
		scaled, err := s.scale(frame)
		if err != nil {
			log.Info.Printf("Warning: cannot scale frame, writing it unchanged: %v", err)
		} else {
			data = scaled
		}
	}

	if err := writeFile(s.cfg.Path, data); err != nil {
		return err
	}
	log.Info.Printf("Frame saved to %s (%d bytes)", s.cfg.Path, len(data))
	return nil
}

// Size returns the size of the current artifact.
func (s *Store) Size() (int64, error) {
	fi, err := os.Stat(s.cfg.Path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (s *Store) scale(frame []byte) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, err
	}
	if uint(img.Bounds().Dx()) == s.cfg.Width {
		return frame, nil
	}

	scaled := resize.Resize(s.cfg.Width, 0, img, resize.Lanczos3)
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, scaled, &jpeg.Options{Quality: s.cfg.Quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFile writes data next to path and renames it into place, so readers
// never see a partial image.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("backend: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("backend: write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("backend: close %s: %w", tmp, err)
	}
	// CreateTemp uses 0600, the snapshot is served by the web frontend
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("backend: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("backend: %w", err)
	}
	return nil
}
