// Package dsp implements the runtime-dispatched DSP kernel registry: a set
// of functionally-equivalent magnitude/preamble/boxcar implementations,
// selected at startup based on CPU capability and optional "wisdom" tuning
// hints, with stable vtable-like call semantics.
//
// The registry/trampoline idiom mirrors a classic function-pointer vtable
// that rewrites itself on first call: each operation has a Dispatcher whose
// Get method walks an ordered entry list exactly once, then caches the
// winner behind an atomic pointer so every subsequent call is a single,
// lock-free load.
package dsp

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/adsbcore/modescore/internal/cpufeature"
)

// regEntry is one implementation of an operation: its call target, a
// human-readable name (matched against wisdom files), and an optional
// feature gate. A nil featureCheck always matches — this is how the
// mandatory generic fallback is expressed.
type regEntry[F any] struct {
	rank         int
	name         string
	flavor       string
	fn           F
	featureCheck func(cpufeature.Features) bool
}

// Dispatcher holds the ordered candidate list for one DSP operation and the
// dispatch-once trampoline over it. F is the operation's function
// signature (e.g. MagnitudeFunc).
type Dispatcher[F any] struct {
	opName string

	mu      sync.Mutex
	entries []regEntry[F]

	handle atomic.Pointer[F]
}

// NewDispatcher creates an empty dispatcher for the named operation.
// Register entries with Register before first use.
func NewDispatcher[F any](opName string) *Dispatcher[F] {
	return &Dispatcher[F]{opName: opName}
}

// OperationName is the wisdom-file key for this dispatcher.
func (d *Dispatcher[F]) OperationName() string { return d.opName }

// Register adds a candidate implementation. Every entry is registered on
// every host; an entry whose featureCheck fails on this host is skipped at
// selection time (see resolve), not left out of the list.
func (d *Dispatcher[F]) Register(name, flavor string, fn F, featureCheck func(cpufeature.Features) bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, regEntry[F]{
		rank:         len(d.entries) + 1,
		name:         name,
		flavor:       flavor,
		fn:           fn,
		featureCheck: featureCheck,
	})
}

// resolve walks entries in rank order and returns the first whose feature
// check passes (or has none). Returns an error if no entry matches — spec
// treats this as a build misconfiguration, never a runtime condition.
func (d *Dispatcher[F]) resolve(feat cpufeature.Features) (F, string, error) {
	d.mu.Lock()
	entries := append([]regEntry[F](nil), d.entries...)
	d.mu.Unlock()

	for _, e := range entries {
		if e.featureCheck == nil || e.featureCheck(feat) {
			return e.fn, e.name, nil
		}
	}
	var zero F
	return zero, "", fmt.Errorf("dsp: no implementation of %q matches host capabilities", d.opName)
}

// Get returns the dispatched function, selecting and caching it on first
// call. Concurrent first calls race harmlessly: both compute the same
// winner (resolve is a pure function of entries+feat) and the last atomic
// Store simply wins; every caller observes a consistent, durable function
// pointer thereafter.
func (d *Dispatcher[F]) Get(feat cpufeature.Features) F {
	if p := d.handle.Load(); p != nil {
		return *p
	}
	fn, _, err := d.resolve(feat)
	if err != nil {
		// Kernel-selection failure: abort. Indicates a build
		// misconfiguration (no generic entry registered), never a
		// legitimate runtime state.
		panic(err)
	}
	d.handle.Store(&fn)
	return fn
}

// Selected returns the name of the currently-resolved implementation, or
// ("", false) if dispatch hasn't happened yet.
func (d *Dispatcher[F]) Selected(feat cpufeature.Features) (string, bool) {
	if p := d.handle.Load(); p != nil {
		_, name, _ := d.resolve(feat)
		return name, true
	}
	return "", false
}

// Names returns the entries' implementation names in current rank order.
func (d *Dispatcher[F]) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.name
	}
	return out
}

// Reorder re-ranks entries per a wisdom preference list: entries named in
// prefOrder are moved to the front in the file's order (first match = rank
// 1); entries not mentioned retain their original relative order and are
// appended after. The dispatch handle is cleared so the next call
// re-selects under the new order.
func (d *Dispatcher[F]) Reorder(prefOrder []string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rankOf := make(map[string]int, len(prefOrder))
	for i, name := range prefOrder {
		rankOf[name] = i
	}

	matched := make([]regEntry[F], 0, len(d.entries))
	unmatched := make([]regEntry[F], 0, len(d.entries))
	for _, e := range d.entries {
		if _, ok := rankOf[e.name]; ok {
			matched = append(matched, e)
		} else {
			unmatched = append(unmatched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return rankOf[matched[i].name] < rankOf[matched[j].name]
	})
	d.entries = append(matched, unmatched...)
	for i := range d.entries {
		d.entries[i].rank = i + 1
	}
	d.handle.Store(nil)
}

// namedDispatcher is the op-agnostic view a wisdom loader needs: every
// Dispatcher[F], regardless of F, satisfies it.
type namedDispatcher interface {
	OperationName() string
	Reorder(prefOrder []string)
	Names() []string
}
