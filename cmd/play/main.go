package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Rohanbagulwar/Entropy-Driven-Bulls-Cows/internal/game"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	statsStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	winStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
)

// hintMsg приходит из фонового tea.Cmd, чтобы скан пула не замораживал ввод.
type hintMsg struct {
	guess   game.Code
	bits    float64
	elapsed time.Duration
	err     error
}

func suggestCmd(pool game.Pool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		c, err := game.Suggest(context.Background(), pool)
		if err != nil {
			return hintMsg{err: err}
		}
		return hintMsg{
			guess:   c,
			bits:    game.ExpectedEntropy(c, pool),
			elapsed: time.Since(start),
		}
	}
}

type model struct {
	assist bool // true: мы угадываем чужой секрет, пользователь вносит фидбек

	input    textinput.Model
	secret   game.Code // только в режиме обычной игры
	pool     game.Pool
	turn     int
	finished bool
	broken   bool // пустой пул в assist: история фидбека противоречива
	thinking bool

	// в assist-режиме — последний предложенный ход, по нему фильтруем
	pending game.Code
	hasPend bool

	lines []string
}

func newModel(assist bool) model {
	ti := textinput.New()
	ti.CharLimit = 16
	ti.Focus()
	if assist {
		ti.Placeholder = "bulls cows (e.g. 1 2)"
	} else {
		ti.Placeholder = "4 distinct digits, or: hint / new / quit"
	}

	m := model{
		assist:   assist,
		input:    ti,
		pool:     game.NewPool(),
		thinking: assist, // assist сразу считает дебютный ход
	}
	if !assist {
		m.secret = game.RandomCode()
	}
	return m
}

func (m model) Init() tea.Cmd {
	if m.assist {
		// сразу предлагаем дебютный ход
		return tea.Batch(textinput.Blink, suggestCmd(m.pool))
	}
	return textinput.Blink
}

func (m *model) push(s string) {
	m.lines = append(m.lines, s)
	if len(m.lines) > 14 {
		m.lines = m.lines[len(m.lines)-14:]
	}
}

func (m *model) reset() {
	m.pool = game.NewPool()
	m.turn = 0
	m.finished = false
	m.broken = false
	m.hasPend = false
	m.lines = nil
	if !m.assist {
		m.secret = game.RandomCode()
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			return m.submit(text)
		}
	case hintMsg:
		m.thinking = false
		if msg.err != nil {
			m.push(errStyle.Render("advisor: " + msg.err.Error()))
			return m, nil
		}
		if m.assist {
			m.pending = msg.guess
			m.hasPend = true
			m.push(hintStyle.Render(fmt.Sprintf("my guess: %s (expected %.4f bits, %v)",
				msg.guess, msg.bits, msg.elapsed.Round(time.Millisecond))))
		} else {
			m.push(hintStyle.Render(fmt.Sprintf("recommended guess (max entropy): %s (%.4f bits, %v)",
				msg.guess, msg.bits, msg.elapsed.Round(time.Millisecond))))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) submit(text string) (tea.Model, tea.Cmd) {
	switch text {
	case "quit", "q", "exit":
		return m, tea.Quit
	case "new":
		m.reset()
		if m.assist {
			m.thinking = true
			return m, suggestCmd(m.pool)
		}
		return m, nil
	case "":
		return m, nil
	}

	if m.finished || m.broken {
		m.push("game over — type 'new' or 'quit'")
		return m, nil
	}

	if m.assist {
		return m.submitFeedback(text)
	}
	return m.submitGuess(text)
}

// submitGuess — обычная игра: пользователь угадывает наш секрет.
func (m model) submitGuess(text string) (tea.Model, tea.Cmd) {
	if text == "hint" {
		if m.thinking {
			return m, nil
		}
		m.thinking = true
		return m, suggestCmd(m.pool)
	}

	guess, err := game.ParseCode(text)
	if err != nil {
		m.push(errStyle.Render("invalid input: " + err.Error()))
		return m, nil
	}

	m.turn++
	before := m.pool.Uncertainty()
	fb := game.Score(m.secret, guess)
	m.pool = m.pool.Filter(guess, fb)
	after := m.pool.Uncertainty()

	m.push(fmt.Sprintf("#%d %s -> %d bulls, %d cows (gained %.4f bits)",
		m.turn, guess, fb.Bulls, fb.Cows, before-after))

	if fb.Bulls == game.CodeLen {
		m.finished = true
		m.push(winStyle.Render(fmt.Sprintf("you found the secret %s in %d guesses", m.secret, m.turn)))
	}
	return m, nil
}

// submitFeedback — assist: пользователь вводит "bulls cows" от внешнего
// противника, мы фильтруем пул и предлагаем следующий ход.
func (m model) submitFeedback(text string) (tea.Model, tea.Cmd) {
	if !m.hasPend {
		m.push("still thinking, wait for a suggestion")
		return m, nil
	}

	var bulls, cows int
	if n, err := fmt.Sscanf(text, "%d %d", &bulls, &cows); n != 2 || err != nil {
		m.push(errStyle.Render("enter feedback as two numbers: bulls cows"))
		return m, nil
	}
	if bulls < 0 || bulls > 4 || cows < 0 || cows > 4 || bulls+cows > 4 {
		m.push(errStyle.Render("feedback out of range: bulls, cows in [0,4], bulls+cows <= 4"))
		return m, nil
	}

	m.turn++
	fb := game.Feedback{Bulls: bulls, Cows: cows}
	m.push(fmt.Sprintf("#%d %s -> %d bulls, %d cows", m.turn, m.pending, bulls, cows))

	if bulls == game.CodeLen {
		m.finished = true
		m.push(winStyle.Render(fmt.Sprintf("cracked it: %s in %d guesses", m.pending, m.turn)))
		return m, nil
	}

	m.pool = m.pool.Filter(m.pending, fb)
	m.hasPend = false

	if len(m.pool) == 0 {
		// фидбек противоречит более ранним ответам — дальше играть не во что
		m.broken = true
		m.push(errStyle.Render("no candidates remain: the feedback history is inconsistent"))
		return m, nil
	}

	m.thinking = true
	return m, suggestCmd(m.pool)
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("BULLS AND COWS: ENTROPY EDITION"))
	b.WriteString("\n")
	if m.assist {
		b.WriteString("assist mode: I guess, you relay the opponent's feedback\n\n")
	} else {
		b.WriteString("guess the 4-digit number (unique digits); goal: drive entropy to 0 bits\n\n")
	}

	b.WriteString(statsStyle.Render(fmt.Sprintf("turn %d | %d candidates | %.4f bits",
		m.turn+1, len(m.pool), m.pool.Uncertainty())))
	b.WriteString("\n\n")

	for _, l := range m.lines {
		b.WriteString(l)
		b.WriteString("\n")
	}

	if m.thinking {
		b.WriteString(hintStyle.Render(fmt.Sprintf("[thinking... scanning %d candidates]", len(m.pool))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	return b.String()
}

func main() {
	assist := flag.Bool("assist", false, "suggest guesses against an external opponent instead of hosting a game")
	flag.Parse()

	p := tea.NewProgram(newModel(*assist))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "play:", err)
		os.Exit(1)
	}
}
