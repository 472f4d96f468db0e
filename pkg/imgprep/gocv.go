//go:build gocv
// +build gocv

package imgprep

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// CLAHEPipeline crops, denoises, equalizes local contrast and Otsu-thresholds with
// OpenCV. It copes better than Pipeline with the uneven lighting of the storage UI.
type CLAHEPipeline struct {
	Region    Region
	MinHeight int
	Invert    bool
}

// NewCLAHE returns a CLAHE pipeline sharing the crop and scale settings of opts.
func NewCLAHE(opts Options) *CLAHEPipeline {
	return &CLAHEPipeline{Region: opts.Region, MinHeight: opts.MinHeight, Invert: opts.Invert}
}

// Apply decodes data as grayscale, runs the chain and returns PNG bytes.
func (p *CLAHEPipeline) Apply(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	mat, err := gocv.IMDecode(data, gocv.IMReadGrayScale)
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, ErrEmptyImage
	}

	rect := p.Region.Rect(image.Rect(0, 0, mat.Cols(), mat.Rows()))
	if rect.Empty() {
		return nil, ErrEmptyImage
	}
	crop := mat.Region(rect)
	defer crop.Close()

	work := crop.Clone()
	defer func() { work.Close() }()
	if p.MinHeight > 0 && work.Rows() < p.MinHeight {
		scale := float64(p.MinHeight) / float64(work.Rows())
		resized := gocv.NewMat()
		gocv.Resize(work, &resized, image.Pt(int(float64(work.Cols())*scale), p.MinHeight), 0, 0, gocv.InterpolationCubic)
		work.Close()
		work = resized
	}

	blur := gocv.NewMat()
	defer blur.Close()
	gocv.MedianBlur(work, &blur, 3)

	clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
	defer clahe.Close()
	eq := gocv.NewMat()
	defer eq.Close()
	clahe.Apply(blur, &eq)

	if p.Invert {
		gocv.BitwiseNot(eq, &eq)
	}

	bin := gocv.NewMat()
	defer bin.Close()
	gocv.Threshold(eq, &bin, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	buf, err := gocv.IMEncode(gocv.PNGFileExt, bin)
	if err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}
