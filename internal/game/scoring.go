package game

// Feedback is one scored guess: bulls are exact position matches, cows are
// shared digits sitting in the wrong position. bulls+cows <= 4.
type Feedback struct {
	Bulls int `json:"bulls"`
	Cows  int `json:"cows"`
}

// Score — оракул обратной связи. Коровы считаются через пересечение множеств
// цифр минус быки; закрытая форма точна, потому что Code не содержит повторов.
func Score(secret, guess Code) Feedback {
	var inSecret [SymbolCount]bool
	for i := 0; i < CodeLen; i++ {
		inSecret[secret[i]] = true
	}

	var fb Feedback
	common := 0
	for i := 0; i < CodeLen; i++ {
		if guess[i] == secret[i] {
			fb.Bulls++
		}
		if inSecret[guess[i]] {
			common++
		}
	}
	fb.Cows = common - fb.Bulls
	return fb
}
