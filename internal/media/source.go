// Package media loads the image being annotated and reports its natural
// pixel size.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"github.com/kataras/golog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"InkNote/internal/state"
)

var logger = golog.Child("[media]")

var ErrUnsupportedImage = errors.New("unsupported image format")

const DefaultFetchTimeout = 20 * time.Second

// Source is where the annotated image comes from: a local (or bundled) file
// or a remote URL. Exactly one of Path and URL is set.
type Source struct {
	Path string
	URL  string
}

// ParseSource accepts a file path or an http(s) URL.
func ParseSource(s string) (Source, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Source{}, errors.New("empty image source")
	}
	if u, err := url.Parse(s); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if u.Host == "" {
			return Source{}, fmt.Errorf("image url %q has no host", s)
		}
		return Source{URL: s}, nil
	}
	if strings.HasPrefix(s, "file://") {
		s = strings.TrimPrefix(s, "file://")
	}
	return Source{Path: s}, nil
}

func (s Source) IsRemote() bool { return s.URL != "" }

func (s Source) String() string {
	if s.IsRemote() {
		return s.URL
	}
	return s.Path
}

// Image is a loaded image with its encoded bytes.
type Image struct {
	Name   string
	Format string
	Data   []byte
	Size   state.Size
}

// Loader reads local files and fetches remote images.
type Loader struct {
	client *req.Client
}

func NewLoader(timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Loader{client: req.C().SetTimeout(timeout)}
}

// Load reads the image and decodes its header for the natural size.
func (l *Loader) Load(ctx context.Context, src Source) (*Image, error) {
	var (
		data []byte
		name string
		err  error
	)
	if src.IsRemote() {
		data, err = l.fetch(ctx, src.URL)
		name = remoteName(src.URL)
	} else {
		data, err = os.ReadFile(src.Path)
		name = filepath.Base(src.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", src, err)
	}
	img, err := Decode(name, data)
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", src, err)
	}
	logger.Infof("loaded %s (%s, %gx%g)", src, img.Format, img.Size.Width, img.Size.Height)
	return img, nil
}

func (l *Loader) fetch(ctx context.Context, u string) ([]byte, error) {
	resp, err := l.client.R().SetContext(ctx).Get(u)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch: unexpected status %s", resp.Status)
	}
	data, err := resp.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// Decode reads the natural size out of encoded image bytes.
func Decode(name string, data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedImage
		}
		return nil, fmt.Errorf("decode: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("decode: image has no pixels (%dx%d)", cfg.Width, cfg.Height)
	}
	return &Image{
		Name:   name,
		Format: format,
		Data:   data,
		Size:   state.Size{Width: float32(cfg.Width), Height: float32(cfg.Height)},
	}, nil
}

func remoteName(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "image"
	}
	base := path.Base(parsed.Path)
	if base == "." || base == "/" || base == "" {
		return "image"
	}
	return base
}
