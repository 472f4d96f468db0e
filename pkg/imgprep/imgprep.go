// Package imgprep prepares storage screenshots for text recognition.
package imgprep

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

var (
	// ErrEmptyImage is returned for zero-length input or an empty crop.
	ErrEmptyImage = errors.New("empty image")
	// ErrGoCVDisabled is returned by CLAHEPipeline in builds without the gocv tag.
	ErrGoCVDisabled = errors.New("gocv support not compiled in (build with -tags gocv)")
)

// Threshold selects the binarization step.
type Threshold string

const (
	ThresholdNone     Threshold = ""
	ThresholdOtsu     Threshold = "otsu"
	ThresholdAdaptive Threshold = "adaptive"
)

// Options configures Pipeline.
type Options struct {
	Region    Region
	Contrast  float64 // percentage, passed to imaging.AdjustContrast
	Sharpen   float64 // sigma; 0 skips
	MinHeight int     // upscale to this height when the crop is shorter
	Invert    bool    // storage UI renders light text on a dark background
	Binarize  Threshold
}

// DefaultOptions returns the settings used for storage shed screenshots.
func DefaultOptions() Options {
	return Options{
		Region:    Full,
		Contrast:  15,
		Sharpen:   0.7,
		MinHeight: 900,
		Invert:    true,
		Binarize:  ThresholdOtsu,
	}
}

// Pipeline is the pure-Go preprocessing chain built on imaging.
type Pipeline struct {
	Options Options
}

// New returns a pipeline for opts.
func New(opts Options) *Pipeline {
	return &Pipeline{Options: opts}
}

// Apply decodes an encoded image, runs the chain and returns PNG bytes.
func (p *Pipeline) Apply(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	out, err := p.Process(img)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}

// Process runs the chain on a decoded image.
func (p *Pipeline) Process(img image.Image) (*image.NRGBA, error) {
	o := p.Options
	rect := o.Region.Rect(img.Bounds())
	if rect.Empty() {
		return nil, ErrEmptyImage
	}
	gray := imaging.Grayscale(imaging.Crop(img, rect))
	if o.Contrast != 0 {
		gray = imaging.AdjustContrast(gray, o.Contrast)
	}
	if o.Sharpen > 0 {
		gray = imaging.Sharpen(gray, o.Sharpen)
	}
	if o.MinHeight > 0 && gray.Bounds().Dy() < o.MinHeight {
		gray = imaging.Resize(gray, 0, o.MinHeight, imaging.Lanczos)
	}
	if o.Invert {
		gray = imaging.Invert(gray)
	}
	switch o.Binarize {
	case ThresholdOtsu:
		gray = binarize(gray, otsuLevel(gray))
	case ThresholdAdaptive:
		gray = dilate(adaptiveThreshold(gray, 15, 7), 1)
	case ThresholdNone:
	default:
		return nil, errors.Errorf("unknown threshold %q", o.Binarize)
	}
	return gray, nil
}

// Passthrough returns its input unchanged.
type Passthrough struct{}

func (Passthrough) Apply(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	return data, nil
}
