// Package dsp models the FFT/IFFT collaborator spec.md §1 places out of
// scope ("the DSP primitives themselves ... are preserved as external
// collaborators"). The acquisition engine only ever talks to the FFT
// interface; GonumFFT is the concrete, real implementation it runs against
// in this repo and in tests.
//
// Grounded on _examples/mfkiwl-GPS-JAMMING/gops/sdracq.go and sdrcmn.go,
// the only pack file that performs GNSS acquisition via FFT — both import
// gonum.org/v1/gonum/dsp/fourier for exactly this purpose.
package dsp

import "gonum.org/v1/gonum/dsp/fourier"

// FFT performs forward and inverse complex discrete Fourier transforms of a
// fixed length N.
type FFT interface {
	// Forward computes X[k] = sum_n x[n] exp(-2pi i k n / N).
	Forward(x []complex128) []complex128
	// Inverse computes x[n] = (1/N) sum_k X[k] exp(+2pi i k n / N).
	Inverse(X []complex128) []complex128
	// Size returns N.
	Size() int
}

// GonumFFT wraps gonum's fourier.CmplxFFT for a fixed transform length.
type GonumFFT struct {
	n   int
	fft *fourier.CmplxFFT
}

// NewGonumFFT builds an FFT plan for sequences of length n.
func NewGonumFFT(n int) *GonumFFT {
	return &GonumFFT{n: n, fft: fourier.NewCmplxFFT(n)}
}

func (g *GonumFFT) Size() int { return g.n }

func (g *GonumFFT) Forward(x []complex128) []complex128 {
	dst := make([]complex128, g.n)
	return g.fft.Coefficients(dst, x)
}

func (g *GonumFFT) Inverse(X []complex128) []complex128 {
	dst := make([]complex128, g.n)
	out := g.fft.Sequence(dst, X)
	// gonum's Sequence already divides by N (it is the true inverse), so no
	// further normalization is applied here; the acquisition engine divides
	// each squared correlation magnitude by N^4 (N^2 per transform).
	return out
}
