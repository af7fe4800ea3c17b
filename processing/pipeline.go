// Package processing derives the bounded-size renditions of an uploaded image.
//
// Every derivative is resized from the decoded source, never from another
// derivative, and the local working copy of the upload is removed as soon as
// the derivatives are encoded.
package processing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	"photoshare/models"
)

var (
	ErrTooLarge    = errors.New("upload exceeds size limit")
	ErrUnsupported = errors.New("unsupported image type")
	ErrProcessing  = errors.New("image could not be processed")
)

var formats = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
	"image/gif":  imaging.GIF,
	"image/bmp":  imaging.BMP,
	"image/tiff": imaging.TIFF,
}

// Variant is a resize-to-limit rendition: neither side ends up above the
// bounds and smaller sources are left at their native size.
type Variant struct {
	Name      string
	MaxWidth  int
	MaxHeight int
}

type Config struct {
	// WorkDir holds working copies of uploads; empty means os.TempDir.
	WorkDir        string
	MaxUploadBytes int64
	JPEGQuality    int
	Variants       []Variant
}

func DefaultConfig() Config {
	return Config{
		MaxUploadBytes: 20 << 20,
		JPEGQuality:    85,
		Variants: []Variant{
			{Name: models.VariantMedium, MaxWidth: 300, MaxHeight: 300},
			{Name: models.VariantThumb, MaxWidth: 80, MaxHeight: 80},
		},
	}
}

// Source is an uploaded file that can be read more than once. Readers seek so
// object stores can rewind the body when signing it.
type Source interface {
	Filename() string
	Open() (io.ReadSeekCloser, error)
}

type fileHeaderSource struct {
	fh *multipart.FileHeader
}

func (s fileHeaderSource) Filename() string { return s.fh.Filename }

func (s fileHeaderSource) Open() (io.ReadSeekCloser, error) { return s.fh.Open() }

// FromFileHeader adapts a multipart upload.
func FromFileHeader(fh *multipart.FileHeader) Source {
	return fileHeaderSource{fh: fh}
}

type bytesSource struct {
	name string
	data []byte
}

func (s bytesSource) Filename() string { return s.name }

func (s bytesSource) Open() (io.ReadSeekCloser, error) {
	return nopSeekCloser{bytes.NewReader(s.data)}, nil
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }

func FromBytes(name string, data []byte) Source {
	return bytesSource{name: name, data: data}
}

// Rendition is one named output of Derive.
type Rendition struct {
	Name        string
	ContentType string
	Ext         string
	Width       int
	Height      int
	Size        int64

	open func() (io.ReadSeekCloser, error)
}

func (r *Rendition) Open() (io.ReadSeekCloser, error) {
	return r.open()
}

func (r *Rendition) Ref(key string) models.FileRef {
	return models.FileRef{
		Key:         key,
		Size:        r.Size,
		ContentType: r.ContentType,
		Width:       r.Width,
		Height:      r.Height,
	}
}

type Result struct {
	// Original re-reads the source unchanged.
	Original    Rendition
	Derivatives []Rendition
}

func (r *Result) All() []Rendition {
	return append([]Rendition{r.Original}, r.Derivatives...)
}

// Get returns the rendition called name, or nil.
func (r *Result) Get(name string) *Rendition {
	if r.Original.Name == name {
		return &r.Original
	}
	for i := range r.Derivatives {
		if r.Derivatives[i].Name == name {
			return &r.Derivatives[i]
		}
	}
	return nil
}

type Pipeline struct {
	cfg Config
}

func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

func (p *Pipeline) Config() Config {
	return p.cfg
}

// Derive reads src into a working file, produces every configured variant from
// the decoded pixels and removes the working file before returning.
func (p *Pipeline) Derive(ctx context.Context, src Source) (*Result, error) {
	work, size, err := p.materialize(src)
	if err != nil {
		return nil, err
	}
	defer release(work)

	mtype, err := mimetype.DetectReader(work)
	if err != nil {
		return nil, fmt.Errorf("detect type: %w", err)
	}
	format, ok := formats[mtype.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mtype.String())
	}
	if _, err := work.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(work, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrProcessing, src.Filename(), err)
	}

	contentType := mtype.String()
	ext := mtype.Extension()
	derivatives := make([]Rendition, 0, len(p.cfg.Variants))
	for _, v := range p.cfg.Variants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out := imaging.Fit(img, v.MaxWidth, v.MaxHeight, imaging.Lanczos)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, out, format, imaging.JPEGQuality(p.cfg.JPEGQuality)); err != nil {
			return nil, fmt.Errorf("%w: encode %s: %v", ErrProcessing, v.Name, err)
		}
		data := buf.Bytes()

		bounds := out.Bounds()
		derivatives = append(derivatives, Rendition{
			Name:        v.Name,
			ContentType: contentType,
			Ext:         ext,
			Width:       bounds.Dx(),
			Height:      bounds.Dy(),
			Size:        int64(len(data)),
			open: func() (io.ReadSeekCloser, error) {
				return nopSeekCloser{bytes.NewReader(data)}, nil
			},
		})
	}

	// Derivatives are in memory now; drop the working copy before any upload.
	release(work)

	bounds := img.Bounds()
	return &Result{
		Original: Rendition{
			Name:        models.VariantOriginal,
			ContentType: contentType,
			Ext:         ext,
			Width:       bounds.Dx(),
			Height:      bounds.Dy(),
			Size:        size,
			open:        src.Open,
		},
		Derivatives: derivatives,
	}, nil
}

func (p *Pipeline) materialize(src Source) (*os.File, int64, error) {
	r, err := src.Open()
	if err != nil {
		return nil, 0, fmt.Errorf("open upload: %w", err)
	}
	defer r.Close()

	work, err := os.CreateTemp(p.cfg.WorkDir, "photoshare-*")
	if err != nil {
		return nil, 0, fmt.Errorf("create working file: %w", err)
	}

	n, err := io.Copy(work, io.LimitReader(r, p.cfg.MaxUploadBytes+1))
	if err != nil {
		release(work)
		return nil, 0, fmt.Errorf("read upload: %w", err)
	}
	if n > p.cfg.MaxUploadBytes {
		release(work)
		return nil, 0, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, p.cfg.MaxUploadBytes)
	}
	if n == 0 {
		release(work)
		return nil, 0, fmt.Errorf("%w: empty file", ErrUnsupported)
	}

	if _, err := work.Seek(0, io.SeekStart); err != nil {
		release(work)
		return nil, 0, err
	}
	return work, n, nil
}

// release closes and removes the working file. Safe to call twice.
func release(f *os.File) {
	_ = f.Close()
	_ = os.Remove(f.Name())
}
