// Package input models the held-key alphabet that drives an agent.
package input

import (
	"fmt"
	"math/rand"
	"strings"
)

// Key is one direction token.
type Key uint8

const (
	TurnLeft Key = 1 << iota
	TurnRight
	Forward
	Backward
)

var keyNames = map[Key]string{
	TurnLeft:  "turn-left",
	TurnRight: "turn-right",
	Forward:   "forward",
	Backward:  "backward",
}

func (k Key) String() string {
	if n, ok := keyNames[k]; ok {
		return n
	}
	return fmt.Sprintf("key(%d)", uint8(k))
}

// Input answers whether a key is currently held.
type Input interface {
	Held(k Key) bool
}

// KeySet is a bitmask of held keys. The zero value holds nothing.
type KeySet uint8

// Of returns a KeySet holding keys.
func Of(keys ...Key) KeySet {
	var s KeySet
	for _, k := range keys {
		s |= KeySet(k)
	}
	return s
}

// Held implements Input.
func (s KeySet) Held(k Key) bool {
	return s&KeySet(k) != 0
}

// With returns s plus k.
func (s KeySet) With(k Key) KeySet {
	return s | KeySet(k)
}

// Without returns s minus k.
func (s KeySet) Without(k Key) KeySet {
	return s &^ KeySet(k)
}

// Moving reports whether a translation key is held.
func (s KeySet) Moving() bool {
	return s.Held(Forward) || s.Held(Backward)
}

func (s KeySet) String() string {
	var parts []string
	for _, k := range []Key{TurnLeft, TurnRight, Forward, Backward} {
		if s.Held(k) {
			parts = append(parts, k.String())
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// ParseKeys maps the letters w, a, s, d (either case) to keys. Any other
// character is an error.
func ParseKeys(letters string) (KeySet, error) {
	var s KeySet
	for _, r := range letters {
		switch r {
		case 'a', 'A':
			s = s.With(TurnLeft)
		case 'd', 'D':
			s = s.With(TurnRight)
		case 'w', 'W':
			s = s.With(Forward)
		case 's', 'S':
			s = s.With(Backward)
		default:
			return 0, fmt.Errorf("unknown key %q in %q", r, letters)
		}
	}
	return s, nil
}

// Wanderer produces a scripted key stream for unattended runs: always
// forward, with turns held for random stretches.
type Wanderer struct {
	rng       *rand.Rand
	turn      Key
	remaining int

	// MinHold and MaxHold bound how many steps a turn choice lasts.
	MinHold int
	MaxHold int
}

// NewWanderer returns a Wanderer drawing from rng.
func NewWanderer(rng *rand.Rand) *Wanderer {
	return &Wanderer{rng: rng, MinHold: 10, MaxHold: 60}
}

// Next returns the keys held for the next step.
func (w *Wanderer) Next() KeySet {
	if w.remaining <= 0 {
		switch w.rng.Intn(3) {
		case 0:
			w.turn = 0
		case 1:
			w.turn = TurnLeft
		default:
			w.turn = TurnRight
		}
		w.remaining = w.MinHold
		if span := w.MaxHold - w.MinHold; span > 0 {
			w.remaining += w.rng.Intn(span)
		}
		if w.remaining < 1 {
			w.remaining = 1
		}
	}
	w.remaining--

	s := Of(Forward)
	if w.turn != 0 {
		s = s.With(w.turn)
	}
	return s
}
