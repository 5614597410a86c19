package game

import (
	"context"
	"errors"
	"math"
)

// ErrEmptyPool is returned by Suggest when there is nothing left to suggest.
var ErrEmptyPool = errors.New("candidate pool is empty")

// openingGuess — фиксированный первый ход. На полной вселенной ожидаемая
// энтропия у всех 5040 кандидатов одинаковая (симметрия перестановок), так что
// сканировать 5040x5040 оценок на первом ходу незачем.
var openingGuess = Code{0, 1, 2, 3}

// ExpectedEntropy is the Shannon entropy of the (bulls,cows) outcome
// distribution guess would induce across the pool: partition the pool by
// Score(candidate, guess), then -sum p*log2(p) over the groups. Many small
// even groups score high, one dominant group scores low.
func ExpectedEntropy(guess Code, pool Pool) float64 {
	if len(pool) == 0 {
		return 0.0
	}

	// распределение исходов (bulls,cows) по текущему пулу; фиксированный
	// массив вместо map, чтобы порядок суммирования не гулял между вызовами
	// (сложение float не ассоциативно, а от ExpectedEntropy ждут одно и то же
	// значение на одних и тех же входах)
	var counts [CodeLen + 1][CodeLen + 1]int
	for _, c := range pool {
		fb := Score(c, guess)
		counts[fb.Bulls][fb.Cows]++
	}

	total := float64(len(pool))
	entropy := 0.0
	for b := 0; b <= CodeLen; b++ {
		for w := 0; w <= CodeLen; w++ {
			n := counts[b][w]
			if n == 0 {
				continue
			}
			p := float64(n) / total
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}

// Suggest returns the guess from pool with the maximal expected entropy.
//
// The search space is deliberately the pool itself, not the whole Universe:
// suggestions always stay consistent with the feedback so far, trading a bit
// of optimality for a much smaller scan. Ties go to the first candidate in
// pool order, so with the lexicographic Universe order the result is
// deterministic. The ctx check between evaluations is the only cancellation
// point; everything else runs to completion.
func Suggest(ctx context.Context, pool Pool) (Code, error) {
	if len(pool) == 0 {
		return Code{}, ErrEmptyPool
	}

	// первый ход: все кандидаты равноценны, отдаём заготовку сразу
	if len(pool) == UniverseSize {
		return openingGuess, nil
	}

	best := pool[0]
	bestEntropy := -1.0
	for _, guess := range pool {
		if err := ctx.Err(); err != nil {
			return Code{}, err
		}
		if h := ExpectedEntropy(guess, pool); h > bestEntropy {
			best, bestEntropy = guess, h
		}
	}
	return best, nil
}
