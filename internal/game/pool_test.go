package game

import (
	"math"
	"testing"
)

func TestNewPool_CoversUniverse(t *testing.T) {
	p := NewPool()
	if len(p) != UniverseSize {
		t.Fatalf("len=%d, want %d", len(p), UniverseSize)
	}
	if p.Uncertainty() != math.Log2(UniverseSize) {
		t.Fatalf("uncertainty=%f, want log2(%d)", p.Uncertainty(), UniverseSize)
	}
}

func TestFilter_ExactMatchLeavesSingleton(t *testing.T) {
	secret := mustCode(t, "1234")
	p := NewPool().Filter(secret, Feedback{Bulls: 4, Cows: 0})

	if len(p) != 1 || p[0] != secret {
		t.Fatalf("pool=%v, want exactly {1234}", p)
	}
	if p.Uncertainty() != 0.0 {
		t.Fatalf("uncertainty=%f, want 0", p.Uncertainty())
	}
}

func TestFilter_Idempotent(t *testing.T) {
	guess := mustCode(t, "0123")
	fb := Feedback{Bulls: 1, Cows: 2}

	once := NewPool().Filter(guess, fb)
	twice := once.Filter(guess, fb)

	if len(once) != len(twice) {
		t.Fatalf("second filter changed size: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("second filter changed contents at %d: %v -> %v", i, once[i], twice[i])
		}
	}
}

func TestFilter_UncertaintyNeverGrows(t *testing.T) {
	secret := mustCode(t, "4071")
	guesses := []string{"0123", "4567", "8901", "4071"}

	p := NewPool()
	for _, g := range guesses {
		guess := mustCode(t, g)
		before := p.Uncertainty()
		p = p.Filter(guess, Score(secret, guess))
		if after := p.Uncertainty(); after > before {
			t.Fatalf("uncertainty grew after %s: %f -> %f", g, before, after)
		}
		if len(p) == 0 {
			t.Fatalf("pool emptied although feedback came from the real secret")
		}
	}

	// секрет всегда переживает фильтрацию честным фидбеком
	found := false
	for _, c := range p {
		if c == secret {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("secret %v filtered out of its own pool", secret)
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	guess := mustCode(t, "0123")
	p := NewPool().Filter(guess, Feedback{Bulls: 0, Cows: 4})

	u := Universe()
	idx := make(map[Code]int, len(u))
	for i, c := range u {
		idx[c] = i
	}
	for i := 1; i < len(p); i++ {
		if idx[p[i-1]] >= idx[p[i]] {
			t.Fatalf("filter broke universe order at %d: %v after %v", i, p[i], p[i-1])
		}
	}
}

func TestFilter_InconsistentFeedbackEmptiesPool(t *testing.T) {
	guess := mustCode(t, "0123")

	// (4,0) и затем (0,0) на тот же guess несовместимы
	p := NewPool().Filter(guess, Feedback{Bulls: 4, Cows: 0})
	p = p.Filter(guess, Feedback{Bulls: 0, Cows: 0})

	if len(p) != 0 {
		t.Fatalf("pool=%v, want empty", p)
	}
	if p.Uncertainty() != 0.0 {
		t.Fatalf("empty pool uncertainty=%f, want 0", p.Uncertainty())
	}
}
