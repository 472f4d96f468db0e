package imgprep

import (
	"image"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Region is a crop rectangle expressed as fractions of the image size, so the same
// value works for any screenshot resolution.
type Region struct {
	X0, Y0, X1, Y1 float64
}

// Full covers the whole image.
var Full = Region{X0: 0, Y0: 0, X1: 1, Y1: 1}

// ParseRegion reads "x0,y0,x1,y1" fractions, e.g. "0.5,0,1,0.5" for the top-right
// quarter. An empty string yields Full.
func ParseRegion(s string) (Region, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Full, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, errors.Errorf("region %q: want 4 comma separated fractions", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Region{}, errors.Wrapf(err, "region %q", s)
		}
		v[i] = f
	}
	r := Region{X0: v[0], Y0: v[1], X1: v[2], Y1: v[3]}
	if err := r.Validate(); err != nil {
		return Region{}, err
	}
	return r, nil
}

// Validate checks the fractions are ordered and inside [0,1].
func (r Region) Validate() error {
	for _, f := range []float64{r.X0, r.Y0, r.X1, r.Y1} {
		if f < 0 || f > 1 {
			return errors.Errorf("region fraction %v outside [0,1]", f)
		}
	}
	if r.X0 >= r.X1 || r.Y0 >= r.Y1 {
		return errors.Errorf("region %v is empty", r)
	}
	return nil
}

// IsZero reports whether the region was left unset.
func (r Region) IsZero() bool {
	return r == Region{}
}

// Rect maps the region onto bounds.
func (r Region) Rect(b image.Rectangle) image.Rectangle {
	if r.IsZero() {
		return b
	}
	w, h := float64(b.Dx()), float64(b.Dy())
	return image.Rect(
		b.Min.X+int(r.X0*w),
		b.Min.Y+int(r.Y0*h),
		b.Min.X+int(r.X1*w),
		b.Min.Y+int(r.Y1*h),
	).Intersect(b)
}

func (r Region) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return f(r.X0) + "," + f(r.Y0) + "," + f(r.X1) + "," + f(r.Y1)
}
