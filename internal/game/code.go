package game

import (
	"errors"
	"math/rand/v2"
	"sync"
)

// Доска фиксированная: 4 позиции, цифры 0-9, без повторов.
const (
	CodeLen      = 4
	SymbolCount  = 10
	UniverseSize = 5040 // 10*9*8*7
)

// Code is an ordered quadruple of pairwise-distinct digits. Values are the
// digits themselves (0..9), not ASCII bytes, so Code is comparable and can be
// used as a map key.
type Code [CodeLen]byte

var (
	errCodeFormat  = errors.New("code must be exactly 4 digits (0-9)")
	errCodeRepeats = errors.New("code must not repeat digits")
)

// ParseCode converts wire text like "0123" into a Code. Everything that
// reaches the oracle or the pool goes through here first.
func ParseCode(s string) (Code, error) {
	var c Code
	if len(s) != CodeLen {
		return Code{}, errCodeFormat
	}
	var seen [SymbolCount]bool
	for i := 0; i < CodeLen; i++ {
		if s[i] < '0' || s[i] > '9' {
			return Code{}, errCodeFormat
		}
		d := s[i] - '0'
		if seen[d] {
			return Code{}, errCodeRepeats
		}
		seen[d] = true
		c[i] = d
	}
	return c, nil
}

func (c Code) String() string {
	var b [CodeLen]byte
	for i := 0; i < CodeLen; i++ {
		b[i] = c[i] + '0'
	}
	return string(b[:])
}

var (
	universeOnce sync.Once
	universe     []Code
)

// Universe returns all 5040 valid Codes in lexicographic order. The slice is
// built once and shared read-only; callers must not modify it (take NewPool
// for a working copy).
func Universe() []Code {
	universeOnce.Do(func() {
		universe = make([]Code, 0, UniverseSize)
		for a := byte(0); a < SymbolCount; a++ {
			for b := byte(0); b < SymbolCount; b++ {
				if b == a {
					continue
				}
				for c := byte(0); c < SymbolCount; c++ {
					if c == a || c == b {
						continue
					}
					for d := byte(0); d < SymbolCount; d++ {
						if d == a || d == b || d == c {
							continue
						}
						universe = append(universe, Code{a, b, c, d})
					}
				}
			}
		}
	})
	return universe
}

// RandomCode picks a uniform random secret for a new game.
func RandomCode() Code {
	u := Universe()
	return u[rand.IntN(len(u))]
}
