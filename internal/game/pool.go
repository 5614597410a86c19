package game

import "math"

// Pool — кандидаты в секреты, всё ещё совместимые с полученным фидбеком.
// Значение, а не разделяемое состояние: Filter возвращает новый Pool.
type Pool []Code

// NewPool returns a fresh pool covering the whole Universe.
func NewPool() Pool {
	u := Universe()
	p := make(Pool, len(u))
	copy(p, u)
	return p
}

// Filter keeps exactly the candidates that would have produced fb for guess,
// preserving order. An empty result signals feedback inconsistent with the
// earlier history; detecting and reporting that is the caller's job.
func (p Pool) Filter(guess Code, fb Feedback) Pool {
	out := make(Pool, 0, len(p))
	for _, c := range p {
		if Score(c, guess) == fb {
			out = append(out, c)
		}
	}
	return out
}

// Uncertainty — log2 от размера пула, в битах. Для пустого пула 0.0, чтобы не
// ловить log(0); пустой пул сам по себе уже ошибка состояния.
func (p Pool) Uncertainty() float64 {
	if len(p) == 0 {
		return 0.0
	}
	return math.Log2(float64(len(p)))
}
