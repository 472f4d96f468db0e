//go:build !gocv
// +build !gocv

package imgprep

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCLAHEDisabled(t *testing.T) {
	_, err := NewCLAHE(DefaultOptions()).Apply([]byte{1})
	require.ErrorIs(t, err, ErrGoCVDisabled)
}
