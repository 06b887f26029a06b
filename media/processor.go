package media

import (
	"errors"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultPhotoMaxSize = 600
	PhotoJpegQuality    = 85
	PhotoFileExtension  = ".jpg"
)

// ErrInvalidImage is returned by ProcessPhoto when the upload cannot be decoded.
var ErrInvalidImage = errors.New("invalid image")

// Processor handles media transformations of uploaded contact photos. it
// relies on a Store implementation for saving the results.
type Processor struct {
	store Store
	opts  PhotoOptions
	log   zerolog.Logger
}

func NewProcessor(store Store, opts PhotoOptions, log zerolog.Logger) *Processor {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultPhotoMaxSize
	}
	if opts.Quality <= 0 {
		opts.Quality = PhotoJpegQuality
	}
	return &Processor{store: store, opts: opts, log: log.With().Str("component", "processor").Logger()}
}

// ProcessPhoto decodes an uploaded image, applies its EXIF orientation,
// shrinks it so the longest side fits MaxSize and stores it as a jpeg under a
// random name. returns the relative path to the saved photo or error.
func (p *Processor) ProcessPhoto(fileData io.Reader) (string, error) {
	img, err := imaging.Decode(fileData, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: failed to decode uploaded photo: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > p.opts.MaxSize || bounds.Dy() > p.opts.MaxSize {
		img = imaging.Fit(img, p.opts.MaxSize, p.opts.MaxSize, imaging.Lanczos)
	}

	reader, writer := io.Pipe()
	go func() {
		err := imaging.Encode(writer, img, imaging.JPEG, imaging.JPEGQuality(p.opts.Quality))
		if err != nil {
			p.log.Error().Err(err).Msg("failed to encode photo")
			writer.CloseWithError(fmt.Errorf("photo encoding failed: %w", err))
			return
		}
		writer.Close()
	}()

	photoUUID, err := uuid.NewRandom()
	if err != nil {
		reader.CloseWithError(err)
		return "", fmt.Errorf("failed to generate UUID for photo: %w", err)
	}
	targetFilename := photoUUID.String() + PhotoFileExtension

	savedRelPath, err := p.store.Save(AssetTypePhoto, targetFilename, reader)
	if err != nil {
		reader.CloseWithError(err)
		return "", fmt.Errorf("failed to save photo via store: %w", err)
	}

	p.log.Info().Str("path", savedRelPath).Int("width", img.Bounds().Dx()).Int("height", img.Bounds().Dy()).Msg("processed and saved photo")
	return savedRelPath, nil
}

// Discard removes a previously saved photo.
func (p *Processor) Discard(relativePath string) error {
	if relativePath == "" {
		return nil
	}
	if err := p.store.Delete(relativePath); err != nil {
		return fmt.Errorf("failed to discard photo '%s': %w", relativePath, err)
	}
	return nil
}

// URL returns where a stored photo is served from.
func (p *Processor) URL(relativePath string) string {
	if relativePath == "" {
		return ""
	}
	return p.store.URL(relativePath)
}
