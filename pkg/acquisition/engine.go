// Package acquisition implements the auxiliary-peak PCPS engine, component
// A of spec.md §4.A: a parallel code-phase search that returns the k-th
// strongest non-overlapping acquisition peak for one satellite, instead of
// only the single strongest peak.
//
// Grounded on _examples/mfkiwl-GPS-JAMMING/gops/sdracq.go's FFT-correlation
// grid shape (wipe off carrier, FFT, multiply by conjugated code FFT, IFFT,
// squared magnitude) and on
// _examples/original_source/src/algorithms/acquisition/gnuradio_blocks/pcps_sd_acquisition_cc.cc
// for the multi-peak selection semantics gnssgo's single-peak search
// doesn't have.
package acquisition

import (
	"math"
	"math/cmplx"
	"sort"

	"gnssspoof/pkg/dsp"
	"gnssspoof/pkg/navdata"
)

// OutcomeKind classifies the terminal (or still-dwelling) result of one Run call.
type OutcomeKind int

const (
	Negative OutcomeKind = iota
	Positive
	StillDwelling
)

// Outcome carries the result of a dwell or a completed acquisition.
type Outcome struct {
	Kind        OutcomeKind
	Peak        navdata.Peak
	SampleStamp uint64
}

// Engine performs the acquisition search for one satellite's PRN code.
// Not safe for concurrent use by multiple goroutines; one Engine per
// acquisition channel, matching spec.md §5 (acquisition does not suspend
// and needs no lock).
type Engine struct {
	fftPlan dsp.FFT

	codeFFTConj []complex128 // pre-conjugated FFT of the local PRN code
	nfft        int

	peakRank          int     // k
	threshold         float64 // absolute test-stat floor; 0 => use pfa
	pfa               float64
	dopplerMaxHz      int
	dopplerStepHz     int
	maxDwells         int
	bitTransitionFlag bool

	// dwell accumulation state, reset by a terminal verdict
	dwellsRun     int
	runningBest   navdata.Peak
	haveRunning   bool
}

// NewEngine constructs an engine bound to fftPlan, whose Size() determines
// the number of code-phase cells (samples per code period).
func NewEngine(fftPlan dsp.FFT) *Engine {
	return &Engine{
		fftPlan:      fftPlan,
		nfft:         fftPlan.Size(),
		peakRank:     1,
		maxDwells:    1,
		dopplerStepHz: 500,
	}
}

// SetLocalCode pre-computes the conjugated FFT of the PRN code (spec.md
// §4.A, "set_local_code"). code must have length equal to fftPlan.Size().
func (e *Engine) SetLocalCode(code []complex128) {
	spectrum := e.fftPlan.Forward(code)
	conj := make([]complex128, len(spectrum))
	for i, v := range spectrum {
		conj[i] = cmplx.Conj(v)
	}
	e.codeFFTConj = conj
}

// SetPeak selects which non-overlapping peak rank to extract: k=0 means
// "any auxiliary peak beyond the primary exists", k>=1 means the k-th
// strongest peak overall (spec.md §4.A).
func (e *Engine) SetPeak(k int) { e.peakRank = k }

// SetThreshold sets an absolute test-statistic floor.
func (e *Engine) SetThreshold(t float64) {
	e.threshold = t
	e.pfa = 0
}

// SetPfa sets a false-alarm probability from which the threshold is derived
// as the (1-p)^(1/ncells) quantile of an exponential with rate = N (spec.md
// §4.A).
func (e *Engine) SetPfa(p float64) {
	e.pfa = p
	e.threshold = 0
}

func (e *Engine) thresholdFor(ncells int) float64 {
	if e.pfa <= 0 {
		return e.threshold
	}
	// Exponential CDF inversion: threshold = -ln(1 - (1-pfa)^(1/ncells)) / rate,
	// rate = N (number of FFT cells), matching spec.md §4.A's CFAR definition.
	quantile := math.Pow(1-e.pfa, 1.0/float64(ncells))
	return -math.Log(1-quantile) / float64(e.nfft)
}

// SetDopplerMax sets the search half-bandwidth in Hz.
func (e *Engine) SetDopplerMax(fMax int) { e.dopplerMaxHz = fMax }

// SetDopplerStep sets the Doppler bin spacing in Hz.
func (e *Engine) SetDopplerStep(df int) { e.dopplerStepHz = df }

// SetMaxDwells and SetBitTransitionFlag configure multi-dwell accumulation
// (spec.md §4.A edge cases): with bitTransitionFlag set, exactly two dwells
// are required before a terminal verdict.
func (e *Engine) SetMaxDwells(n int)          { e.maxDwells = n }
func (e *Engine) SetBitTransitionFlag(b bool) { e.bitTransitionFlag = b }

// Run evaluates one dwell of samples (length nfft) at carrier frequency
// offset f0Hz and sample rate fsHz, returning a terminal Positive/Negative
// result or StillDwelling if more dwells are required under
// bit_transition_flag (spec.md §4.A "run" operation).
func (e *Engine) Run(samples []complex128, f0Hz float64, fsHz float64, sampleCounter uint64) Outcome {
	requiredDwells := 1
	if e.bitTransitionFlag {
		requiredDwells = 2
	} else if e.maxDwells > requiredDwells {
		requiredDwells = e.maxDwells
	}

	peak, ok := e.searchOneDwell(samples, f0Hz, fsHz, sampleCounter)

	e.dwellsRun++
	if !e.haveRunning || (ok && peak.TestStat > e.runningBest.TestStat) {
		if ok {
			e.runningBest = peak
			e.haveRunning = true
		}
	}

	if e.dwellsRun < requiredDwells {
		return Outcome{Kind: StillDwelling, SampleStamp: sampleCounter}
	}

	result := Outcome{SampleStamp: sampleCounter}
	if e.haveRunning {
		result.Kind = Positive
		result.Peak = e.runningBest
	} else {
		result.Kind = Negative
	}
	e.dwellsRun = 0
	e.haveRunning = false
	return result
}

// searchOneDwell runs the full PCPS grid search for one dwell and applies
// the selection rule of spec.md §4.A step 6.
func (e *Engine) searchOneDwell(samples []complex128, f0Hz, fsHz float64, sampleCounter uint64) (navdata.Peak, bool) {
	n := len(samples)
	if n == 0 || e.codeFFTConj == nil {
		return navdata.Peak{}, false
	}

	// 1. input power estimate
	var sumSq float64
	for _, x := range samples {
		sumSq += real(x)*real(x) + imag(x)*imag(x)
	}
	power := sumSq / float64(n)
	if power == 0 || math.IsNaN(power) || math.IsInf(power, 0) {
		return navdata.Peak{}, false
	}

	numBins := 2*(e.dopplerMaxHz/max1(e.dopplerStepHz)) + 1
	grid := make([][]float64, numBins)

	nSq := float64(n) * float64(n)
	wiped := make([]complex128, n)
	for b := 0; b < numBins; b++ {
		dopplerHz := -e.dopplerMaxHz + b*e.dopplerStepHz

		for i := 0; i < n; i++ {
			phase := -2 * math.Pi * (f0Hz + float64(dopplerHz)) * float64(i) / fsHz
			wiped[i] = samples[i] * cmplx.Rect(1, phase)
		}

		spectrum := e.fftPlan.Forward(wiped)
		product := make([]complex128, n)
		for i := range product {
			product[i] = spectrum[i] * e.codeFFTConj[i]
		}
		corr := e.fftPlan.Inverse(product)

		row := make([]float64, n)
		anomalous := false
		for i, c := range corr {
			mag := (real(c)*real(c) + imag(c)*imag(c)) / (nSq * nSq)
			if math.IsNaN(mag) || math.IsInf(mag, 0) {
				anomalous = true
			}
			row[i] = mag
		}
		if anomalous {
			return navdata.Peak{}, false
		}
		grid[b] = row
	}

	threshold := e.thresholdFor(n * numBins)

	// 3. global maximum across the whole grid = primary peak
	primaryBin, primaryCode := -1, -1
	primaryMag := -1.0
	for b, row := range grid {
		for i, mag := range row {
			if mag > primaryMag {
				primaryMag = mag
				primaryBin = b
				primaryCode = i
			}
		}
	}
	if primaryBin < 0 {
		return navdata.Peak{}, false
	}

	type cand struct {
		magnitude float64
		doppler   int
		codePhase int
	}

	var candidates []cand
	candidates = append(candidates, cand{
		magnitude: primaryMag,
		doppler:   -e.dopplerMaxHz + primaryBin*e.dopplerStepHz,
		codePhase: primaryCode,
	})

	// 4. persistence-based local-extrema finder per Doppler row.
	for b, row := range grid {
		for _, idx := range persistentMaxima(row, threshold) {
			candidates = append(candidates, cand{
				magnitude: row[idx],
				doppler:   -e.dopplerMaxHz + b*e.dopplerStepHz,
				codePhase: idx,
			})
		}
	}

	// 5. de-duplication: sort by magnitude descending, keep non-overlapping.
	sort.Slice(candidates, func(a, b int) bool { return candidates[a].magnitude > candidates[b].magnitude })

	var kept []navdata.Peak
	for _, c := range candidates {
		p := navdata.Peak{
			CodePhase: c.codePhase,
			Doppler:   c.doppler,
			Magnitude: c.magnitude,
			TestStat:  c.magnitude / power,
		}
		if p.TestStat < threshold {
			continue
		}
		overlapsExisting := false
		for _, k := range kept {
			if p.Overlaps(k, e.dopplerStepHz) {
				overlapsExisting = true
				break
			}
		}
		if !overlapsExisting {
			kept = append(kept, p)
		}
	}

	// 6. selection rule.
	if e.peakRank == 0 {
		if len(kept) >= 2 {
			return kept[0], true
		}
		return navdata.Peak{}, false
	}
	if len(kept) >= e.peakRank {
		return kept[e.peakRank-1], true
	}
	return navdata.Peak{}, false
}

func max1(x int) int {
	if x < 1 {
		return 1
	}
	return x
}
