package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/Rohanbagulwar/Entropy-Driven-Bulls-Cows/internal/game"
)

// solve играет одну партию советчиком против известного секрета и возвращает
// число ходов до победы.
func solve(ctx context.Context, secret game.Code) (int, error) {
	pool := game.NewPool()
	for turn := 1; ; turn++ {
		guess, err := game.Suggest(ctx, pool)
		if err != nil {
			return 0, err
		}

		fb := game.Score(secret, guess)
		if fb.Bulls == game.CodeLen {
			return turn, nil
		}

		pool = pool.Filter(guess, fb)
		if len(pool) == 0 {
			// невозможно при честном оракуле
			return 0, fmt.Errorf("pool emptied while solving %s", secret)
		}
	}
}

func main() {
	games := flag.Int("games", 500, "number of random secrets to solve")
	all := flag.Bool("all", false, "solve every one of the 5040 secrets (ignores -games)")
	workers := flag.Int("workers", runtime.NumCPU(), "parallel solver workers")
	flag.Parse()

	var secrets []game.Code
	if *all {
		secrets = append(secrets, game.Universe()...)
	} else {
		for i := 0; i < *games; i++ {
			secrets = append(secrets, game.RandomCode())
		}
	}

	fmt.Printf("solving %d games with %d workers (candidate-pool search heuristic)\n",
		len(secrets), *workers)

	bar := progressbar.Default(int64(len(secrets)))
	start := time.Now()

	var mu sync.Mutex
	turnsBySecret := make([]int, len(secrets))

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(*workers)

	for i, secret := range secrets {
		i, secret := i, secret
		g.Go(func() error {
			turns, err := solve(ctx, secret)
			if err != nil {
				return err
			}

			mu.Lock()
			turnsBySecret[i] = turns
			mu.Unlock()
			_ = bar.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, "simulate:", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)

	// распределение ходов до решения
	dist := make(map[int]int)
	total, worst := 0, 0
	worstSecret := game.Code{}
	for i, turns := range turnsBySecret {
		dist[turns]++
		total += turns
		if turns > worst {
			worst = turns
			worstSecret = secrets[i]
		}
	}

	var keys []int
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	fmt.Printf("\nsolved %d games in %v\n", len(secrets), elapsed.Round(time.Millisecond))
	fmt.Printf("average: %.4f guesses, worst: %d (secret %s)\n",
		float64(total)/float64(len(secrets)), worst, worstSecret)
	fmt.Println("distribution:")
	for _, k := range keys {
		fmt.Printf("  %d guesses: %5d games (%5.1f%%)\n",
			k, dist[k], 100*float64(dist[k])/float64(len(secrets)))
	}
}
