package acquisition

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"

	"gnssspoof/pkg/navdata"
)

func Test_PersistentMaxima_EmitsDyingSummitsAboveThreshold(t *testing.T) {
	assert := assert.New(t)
	row := []float64{0.1, 5, 1, 8, 2, 3, 0.05}

	assert.ElementsMatch([]int{1, 5}, persistentMaxima(row, 0.5))
	assert.Equal([]int{1}, persistentMaxima(row, 2))
	assert.Empty(persistentMaxima(row, 10))
}

func Test_PersistentMaxima_EmptyRow(t *testing.T) {
	assert := assert.New(t)
	assert.Nil(persistentMaxima(nil, 0))
}

// bruteForceFFT is a direct O(n^2) DFT used only in tests, to exercise the
// engine against a real (if slow) transform rather than a stub.
type bruteForceFFT struct{ n int }

func (b bruteForceFFT) Size() int { return b.n }

func (b bruteForceFFT) Forward(x []complex128) []complex128 {
	out := make([]complex128, b.n)
	for k := 0; k < b.n; k++ {
		var sum complex128
		for i, v := range x {
			angle := -2 * math.Pi * float64(k) * float64(i) / float64(b.n)
			sum += v * cmplx.Rect(1, angle)
		}
		out[k] = sum
	}
	return out
}

func (b bruteForceFFT) Inverse(X []complex128) []complex128 {
	out := make([]complex128, b.n)
	for i := 0; i < b.n; i++ {
		var sum complex128
		for k, v := range X {
			angle := 2 * math.Pi * float64(k) * float64(i) / float64(b.n)
			sum += v * cmplx.Rect(1, angle)
		}
		out[i] = sum / complex(float64(b.n), 0)
	}
	return out
}

func bpskCode() []complex128 {
	bits := []float64{1, -1, 1, 1, -1, -1, 1, -1}
	code := make([]complex128, len(bits))
	for i, b := range bits {
		code[i] = complex(b, 0)
	}
	return code
}

func Test_Engine_ZeroDopplerAutocorrelationPeaksAtZeroLag(t *testing.T) {
	assert := assert.New(t)
	code := bpskCode()
	fft := bruteForceFFT{n: len(code)}

	e := NewEngine(fft)
	e.SetLocalCode(code)
	e.SetPeak(1)
	e.SetThreshold(0)
	e.SetDopplerMax(0)
	e.SetDopplerStep(500)
	e.SetMaxDwells(1)

	outcome := e.Run(code, 0, float64(len(code)), 1)

	assert.Equal(Positive, outcome.Kind)
	assert.Equal(0, outcome.Peak.CodePhase)
	assert.Equal(0, outcome.Peak.Doppler)
}

func Test_Engine_ZeroPowerSamplesYieldNegative(t *testing.T) {
	assert := assert.New(t)
	code := bpskCode()
	fft := bruteForceFFT{n: len(code)}

	e := NewEngine(fft)
	e.SetLocalCode(code)
	e.SetThreshold(0)
	e.SetDopplerMax(0)

	silence := make([]complex128, len(code))
	outcome := e.Run(silence, 0, float64(len(code)), 1)

	assert.Equal(Negative, outcome.Kind)
}

func Test_Engine_BitTransitionFlagRequiresTwoDwells(t *testing.T) {
	assert := assert.New(t)
	code := bpskCode()
	fft := bruteForceFFT{n: len(code)}

	e := NewEngine(fft)
	e.SetLocalCode(code)
	e.SetThreshold(0)
	e.SetDopplerMax(0)
	e.SetBitTransitionFlag(true)

	first := e.Run(code, 0, float64(len(code)), 1)
	assert.Equal(StillDwelling, first.Kind)

	second := e.Run(code, 0, float64(len(code)), 2)
	assert.Equal(Positive, second.Kind)
}

func Test_Peak_OverlapsNonOverlapInvariant(t *testing.T) {
	assert := assert.New(t)
	a := navdata.Peak{CodePhase: 10, Doppler: 0}
	b := navdata.Peak{CodePhase: 11, Doppler: 0}
	c := navdata.Peak{CodePhase: 50, Doppler: 0}

	assert.True(a.Overlaps(b, 500))
	assert.False(a.Overlaps(c, 500))
}
