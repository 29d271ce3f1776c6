// Package channel implements the channel peak registry, component B of
// spec.md §4.B: the (PRN, peak_rank) -> ChannelUID mapping, UID minting and
// release, and the PVT-driven "verified" hint consumed by the detector.
//
// Grounded on gnssgo/rtksvr.go's RtkSvrLock/RtkSvrUnlock method pair and its
// per-index channel bookkeeping (UpdateObs, UpdateEph keyed by receiver
// index) — the same guarded-struct shape, here keyed by (PRN, rank) instead
// of receiver index.
package channel

import (
	"sync"

	"gnssspoof/pkg/navdata"
)

// Status is the registry's view of a channel UID's spoofing-relevant state.
type Status int

const (
	StatusPending Status = iota
	StatusVerified
)

type entry struct {
	uid    navdata.ChannelUID
	status Status
}

// Registry maintains (PRN, peak_rank) -> ChannelUID and never reuses a
// minted UID (spec.md §8 invariant 2).
type Registry struct {
	mu      sync.Mutex
	byKey   map[key]entry
	byUID   map[navdata.ChannelUID]key
	nextUID navdata.ChannelUID
}

type key struct {
	prn  int
	rank int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey: make(map[key]entry),
		byUID: make(map[navdata.ChannelUID]key),
	}
}

// Allocate returns the existing UID bound to (prn, peakRank), or mints and
// binds a fresh one. Mirrors spec.md §4.B's "allocate".
func (r *Registry) Allocate(prn, peakRank int) navdata.ChannelUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{prn: prn, rank: peakRank}
	if e, ok := r.byKey[k]; ok {
		return e.uid
	}
	r.nextUID++
	uid := r.nextUID
	r.byKey[k] = entry{uid: uid, status: StatusPending}
	r.byUID[uid] = k
	return uid
}

// StopTracking releases the binding for uid. The integer value itself is
// never reused (spec.md §4.B).
func (r *Registry) StopTracking(uid navdata.ChannelUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if k, ok := r.byUID[uid]; ok {
		delete(r.byKey, k)
		delete(r.byUID, uid)
	}
}

// Confirm marks uid as verified: a hint that the detector should stop
// issuing repeat alerts on this UID (spec.md §4.B).
func (r *Registry) Confirm(uid navdata.ChannelUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if k, ok := r.byUID[uid]; ok {
		e := r.byKey[k]
		e.status = StatusVerified
		r.byKey[k] = e
	}
}

// StatusOf reports the current status of uid, or StatusPending with ok=false
// if the UID is not currently bound.
func (r *Registry) StatusOf(uid navdata.ChannelUID) (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.byUID[uid]
	if !ok {
		return StatusPending, false
	}
	return r.byKey[k].status, true
}

// LiveUIDsForPRN returns every channel UID currently bound to prn, across
// all peak ranks. Used by G.1-G.3.
func (r *Registry) LiveUIDsForPRN(prn int) []navdata.ChannelUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	var uids []navdata.ChannelUID
	for k, e := range r.byKey {
		if k.prn == prn {
			uids = append(uids, e.uid)
		}
	}
	return uids
}

// LivePRNs returns the distinct set of PRNs with at least one live UID.
func (r *Registry) LivePRNs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[int]bool)
	var prns []int
	for k := range r.byKey {
		if !seen[k.prn] {
			seen[k.prn] = true
			prns = append(prns, k.prn)
		}
	}
	return prns
}

// PRNOf returns the PRN a given UID belongs to.
func (r *Registry) PRNOf(uid navdata.ChannelUID) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.byUID[uid]
	if !ok {
		return 0, false
	}
	return k.prn, true
}
