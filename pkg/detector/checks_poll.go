package detector

import (
	"math"

	"gnssspoof/internal/gnsstime"
	"gnssspoof/pkg/navdata"
)

// subframePair is a candidate auxiliary-peak comparison: two channels
// tracking the same PRN that both decoded a subframe with the same
// subframe id, the minimum precondition for G.1/G.2 to say anything.
type subframePair struct {
	key      pairKey
	prn      int
	a, b     navdata.Subframe
}

func (d *Detector) matchedSubframePairs(snap map[navdata.ChannelUID]navdata.Subframe) []subframePair {
	var pairs []subframePair
	for _, prn := range d.registry.LivePRNs() {
		uids := d.registry.LiveUIDsForPRN(prn)
		for i := 0; i < len(uids); i++ {
			for j := i + 1; j < len(uids); j++ {
				sfA, okA := snap[uids[i]]
				sfB, okB := snap[uids[j]]
				if !okA || !okB || sfA.SubframeID != sfB.SubframeID {
					continue
				}
				pairs = append(pairs, subframePair{
					key: newPairKey(prn, uids[i], uids[j]),
					prn: prn,
					a:   sfA,
					b:   sfB,
				})
			}
		}
	}
	return pairs
}

// checkAuxiliaryPeakCrossCheck is G.1: a genuine signal's subframes 1-3
// (ephemeris) must be bit-identical whether decoded from the primary peak
// or an auxiliary peak of the same PRN. Three matching subframes confirm
// the auxiliary channel is tracking the same satellite; any mismatch is a
// sign the auxiliary peak is a distinct, spoofed signal.
func (d *Detector) checkAuxiliaryPeakCrossCheck(snap map[navdata.ChannelUID]navdata.Subframe) {
	pairs := d.matchedSubframePairs(snap)
	for _, p := range pairs {
		if p.a.SubframeID < 1 || p.a.SubframeID > 3 {
			continue
		}

		d.mu.Lock()
		if d.pairVerified[p.key] {
			d.mu.Unlock()
			continue
		}

		if p.a.BitPayload != p.b.BitPayload {
			d.mu.Unlock()
			d.format(navdata.CaseSubframeMismatch,
				"PRN %d auxiliary-peak subframe %d mismatch between UID %d and UID %d",
				p.prn, p.a.SubframeID, p.a.UID, p.b.UID)
			continue
		}

		progress, ok := d.pairProgress[p.key]
		if !ok {
			progress = make(map[int]bool)
			d.pairProgress[p.key] = progress
		}
		progress[p.a.SubframeID] = true
		verified := progress[1] && progress[2] && progress[3]
		if verified {
			d.pairVerified[p.key] = true
		}
		d.mu.Unlock()

		if verified {
			d.registry.Confirm(p.key.uidLo)
			d.registry.Confirm(p.key.uidHi)
		}
	}
}

// checkReceptionTimeConsistency is G.2: subframes carrying identical
// content must also arrive within d_max_rx_discrepancy of one another; a
// content match with a large time gap means two distinct RF paths, one of
// which is a rebroadcast.
func (d *Detector) checkReceptionTimeConsistency(snap map[navdata.ChannelUID]navdata.Subframe) {
	pairs := d.matchedSubframePairs(snap)
	for _, p := range pairs {
		if p.a.BitPayload != p.b.BitPayload {
			continue
		}
		deltaMs := math.Abs(float64(p.a.WallClockMs - p.b.WallClockMs))
		if deltaMs > d.maxRxDiscrepancyMs {
			d.format(navdata.CaseRxTimeInconsistency,
				"PRN %d subframe %d reception times differ by %.3fms between UID %d and UID %d",
				p.prn, p.a.SubframeID, deltaMs, p.a.UID, p.b.UID)
		}
	}
}

// checkSharedSubframeCrossPRN is G.3: subframes 4 and 5 carry almanac/iono
// pages shared across all satellites in view at a given epoch. Pages
// decoded close together in wall-clock time from different PRNs must
// agree; disagreement indicates an injected signal broadcasting a
// divergent almanac.
func (d *Detector) checkSharedSubframeCrossPRN(snap map[navdata.ChannelUID]navdata.Subframe) {
	var bySubframeID = map[int][]navdata.Subframe{}
	for _, sf := range snap {
		if sf.SubframeID == 4 || sf.SubframeID == 5 {
			bySubframeID[sf.SubframeID] = append(bySubframeID[sf.SubframeID], sf)
		}
	}

	for _, sfs := range bySubframeID {
		for i := 0; i < len(sfs); i++ {
			for j := i + 1; j < len(sfs); j++ {
				a, b := sfs[i], sfs[j]
				if a.PRN == b.PRN {
					continue
				}
				if math.Abs(float64(a.WallClockMs-b.WallClockMs)) > gnsstime.NominalSubframeMillis {
					continue
				}
				if a.BitPayload != b.BitPayload {
					d.format(navdata.CaseSubframeMismatch,
						"subframe %d mismatch between PRN %d and PRN %d decoded %dms apart",
						a.SubframeID, a.PRN, b.PRN, a.WallClockMs-b.WallClockMs)
				}
			}
		}
	}
}

// interSatelliteMaxSpanMs is the widest wall-clock spread the snapshot in
// checkInterSatelliteGpsTime may cover; beyond this the channels were not
// sampled closely enough together for a GPS-time comparison to mean
// anything, and the check abstains rather than risk a false positive.
const interSatelliteMaxSpanMs = 30000

// checkInterSatelliteGpsTime is G.4: every satellite transmits the same
// GPS system time, so at one epoch every live channel's absolute GPS time
// (week*604800+tow) must agree. Entries still carrying week==0 (no TOW
// decoded yet) are dropped first; the check abstains entirely if the
// snapshot's wall-clock timestamps span more than
// interSatelliteMaxSpanMs, since channels sampled that far apart are not
// comparable. It then alerts iff every remaining channel reports the same
// subframe id (the comparison is only meaningful within one subframe) yet
// more than one distinct absolute GPS time is present.
func (d *Detector) checkInterSatelliteGpsTime(snap map[navdata.ChannelUID]navdata.GpsTime) {
	entries := make([]navdata.GpsTime, 0, len(snap))
	for _, gt := range snap {
		if gt.Week == 0 {
			continue
		}
		entries = append(entries, gt)
	}
	if len(entries) < 2 {
		return
	}

	minMs, maxMs := entries[0].WallClockMs, entries[0].WallClockMs
	for _, gt := range entries[1:] {
		if gt.WallClockMs < minMs {
			minMs = gt.WallClockMs
		}
		if gt.WallClockMs > maxMs {
			maxMs = gt.WallClockMs
		}
	}
	if maxMs-minMs > interSatelliteMaxSpanMs {
		return
	}

	subframeID := entries[0].SubframeID
	distinct := make(map[float64]bool, len(entries))
	for _, gt := range entries {
		if gt.SubframeID != subframeID {
			return
		}
		distinct[gnsstime.AbsoluteGpsTime(gt.Week, gt.TowSeconds)] = true
	}

	if len(distinct) > 1 {
		d.format(navdata.CasePositionOrTimeAnomaly,
			"inter-satellite GPS time disagreement: %d distinct absolute GPS times across %d channels sharing subframe id %d",
			len(distinct), len(entries), subframeID)
	}
}

// checkTowContinuity is G.5: a channel's own GPS time must advance at the
// same rate as wall-clock time between consecutive subframes. A jump
// means the TOW field was forged.
func (d *Detector) checkTowContinuity(snap map[navdata.ChannelUID]navdata.GpsTime) {
	for uid, gt := range snap {
		absolute := gnsstime.AbsoluteGpsTime(gt.Week, gt.TowSeconds)

		d.mu.Lock()
		prev, had := d.lastGpsAbsolute[uid]
		if had && prev.wallClockMs == gt.WallClockMs {
			d.mu.Unlock()
			continue
		}
		d.lastGpsAbsolute[uid] = gpsMoment{wallClockMs: gt.WallClockMs, absolute: absolute}
		d.mu.Unlock()

		if !had {
			continue
		}

		expectedDeltaSec := float64(gt.WallClockMs-prev.wallClockMs) / 1000.0
		actualDeltaSec := absolute - prev.absolute
		if math.Abs(actualDeltaSec-expectedDeltaSec) > d.cfg.AP.MaxTowDiscrepancyMs/1000.0 {
			prn, _ := d.registry.PRNOf(uid)
			d.format(navdata.CaseTowJump,
				"PRN %d UID %d TOW discontinuity: expected delta %.6fs, observed %.6fs",
				prn, uid, expectedDeltaSec, actualDeltaSec)
		}
	}
}

// cnoSigmaBufferCapacity is the fixed length of the secondary sigma buffer
// checkCNoStatistical accumulates into. It is independent of
// cfg.Statistical.SnrMovingAvgWindow: the buffer holds one cross-channel
// sigma per tick, not raw C/N0 samples.
const cnoSigmaBufferCapacity = 1000

// checkCNoStatistical is G.9: each tick's cross-channel C/N0 sigma is
// pushed into a long-running secondary buffer. Once that buffer holds
// cnoSigmaBufferCapacity samples, a mean pinned below d_cno_min means the
// spread between satellites has collapsed — the signature of every
// counterfeit signal radiating off one spoofer antenna rather than the
// independent paths of genuine satellites.
func (d *Detector) checkCNoStatistical() {
	prns := d.snr.LivePRNs()
	var full []int
	for _, prn := range prns {
		if d.snr.Full(prn) {
			full = append(full, prn)
		}
	}
	if len(full) < d.cfg.Statistical.CNoCount {
		return
	}

	var sum float64
	latest := make([]float64, 0, len(full))
	for _, prn := range full {
		samples := d.snr.Samples(prn)
		v := samples[len(samples)-1]
		latest = append(latest, v)
		sum += v
	}
	mean := sum / float64(len(full))

	var variance float64
	for _, v := range latest {
		variance += (v - mean) * (v - mean)
	}
	sigma := math.Sqrt(variance / float64(len(full)))

	if d.metrics != nil {
		d.metrics.CN0Sigma.Set(sigma)
	}

	d.mu.Lock()
	d.sigmaHistory = append(d.sigmaHistory, sigma)
	if len(d.sigmaHistory) > cnoSigmaBufferCapacity {
		d.sigmaHistory = d.sigmaHistory[len(d.sigmaHistory)-cnoSigmaBufferCapacity:]
	}
	bufferFull := len(d.sigmaHistory) == cnoSigmaBufferCapacity
	history := append([]float64(nil), d.sigmaHistory...)
	d.mu.Unlock()

	if !bufferFull {
		return
	}

	var historySum float64
	for _, s := range history {
		historySum += s
	}
	sigmaMean := historySum / float64(len(history))

	if sigmaMean < d.cfg.Statistical.CNoMin {
		d.format(navdata.CaseCNoAnomaly,
			"cross-channel C/N0 sigma buffer mean %.3fdB-Hz below %.3fdB-Hz over %d ticks",
			sigmaMean, d.cfg.Statistical.CNoMin, len(history))
	}
}

// correlationMinSamples is the minimum number of buffered C/N0 samples a
// PRN's window must hold before checkCNoCorrelation will pair it with
// another satellite.
const correlationMinSamples = 1000

// checkCNoCorrelation is G.10: a spoofer broadcasting every counterfeit
// signal off one antenna and one oscillator induces a correlated C/N0
// fading pattern across every satellite it is impersonating, where
// genuine signals from independent orbital paths would not correlate.
// For every pair of PRNs with a full sample window, the normalized
// covariance ρ = cov(A,B)/(cov(A,A)·cov(B,B)) is accumulated into Σρ;
// Σρ exceeding 3 is the anomaly.
func (d *Detector) checkCNoCorrelation() {
	prns := d.snr.LivePRNs()
	samples := make(map[int][]float64, len(prns))
	for _, prn := range prns {
		s := d.snr.Samples(prn)
		if len(s) >= correlationMinSamples {
			samples[prn] = s
		}
	}
	if len(samples) < 2 {
		return
	}

	eligible := make([]int, 0, len(samples))
	for prn := range samples {
		eligible = append(eligible, prn)
	}

	var sumRho float64
	for i := 0; i < len(eligible); i++ {
		for j := i + 1; j < len(eligible); j++ {
			sumRho += normalizedCovariance(samples[eligible[i]], samples[eligible[j]])
		}
	}

	if sumRho > 3 {
		d.format(navdata.CaseCNoAnomaly,
			"cross-channel C/N0 covariance sum %.4f exceeds 3 across %d satellites",
			sumRho, len(eligible))
	}
}

// normalizedCovariance reproduces the upstream's literal formula:
// cov(A,B) / (cov(A,A) * cov(B,B)). This is not the true Pearson
// correlation coefficient, which divides by sqrt(cov(A,A)*cov(B,B))
// instead; the literal denominator is kept as specified. a and b are
// aligned on their most recent min(len(a), len(b)) samples.
func normalizedCovariance(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	a = a[len(a)-n:]
	b = b[len(b)-n:]

	var meanA, meanB float64
	for i := 0; i < n; i++ {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(n)
	meanB /= float64(n)

	var covAB, covAA, covBB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		covAB += da * db
		covAA += da * da
		covBB += db * db
	}
	covAB /= float64(n)
	covAA /= float64(n)
	covBB /= float64(n)

	denom := covAA * covBB
	if denom == 0 {
		return 0
	}
	return covAB / denom
}
