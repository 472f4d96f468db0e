//go:build !gocv
// +build !gocv

package imgprep

// CLAHEPipeline is unavailable without the gocv build tag.
type CLAHEPipeline struct {
	Region    Region
	MinHeight int
	Invert    bool
}

func NewCLAHE(opts Options) *CLAHEPipeline {
	return &CLAHEPipeline{Region: opts.Region, MinHeight: opts.MinHeight, Invert: opts.Invert}
}

func (p *CLAHEPipeline) Apply(data []byte) ([]byte, error) {
	return nil, ErrGoCVDisabled
}
