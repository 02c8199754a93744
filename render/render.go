// Package render draws games and batch statistics for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/powellquiring/wordleplayer/batch"
	"github.com/powellquiring/wordleplayer/gowordle"
	"github.com/powellquiring/wordleplayer/wordle"
)

var (
	CorrectColor = lipgloss.Color("#6aaa64")
	PresentColor = lipgloss.Color("#c9b458")
	AbsentColor  = lipgloss.Color("#787c7e")
	TextColor    = lipgloss.Color("#ffffff")
)

var (
	tileStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
	barStyle   = lipgloss.NewStyle().Foreground(CorrectColor)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#d9534f"))
)

func markColor(mark gowordle.Mark) lipgloss.Color {
	switch mark {
	case gowordle.Correct:
		return CorrectColor
	case gowordle.Present:
		return PresentColor
	}
	return AbsentColor
}

// Tiles draws a guess as colored letter tiles.
func Tiles(guess string, feedback gowordle.Feedback) string {
	tiles := make([]string, 0, len(guess))
	for i := 0; i < len(guess) && i < len(feedback); i++ {
		tiles = append(tiles, tileStyle.Background(markColor(feedback[i])).Render(strings.ToUpper(guess[i:i+1])))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tiles...)
}

// Board draws every turn of a game, one row of tiles per guess.
func Board(history []wordle.Turn) string {
	rows := make([]string, 0, len(history))
	for _, turn := range history {
		rows = append(rows, Tiles(turn.Guess, turn.Feedback))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

var emoji = map[gowordle.Mark]string{
	gowordle.Correct: "🟩",
	gowordle.Present: "🟨",
	gowordle.Absent:  "⬛",
}

// ShareGrid is the spoiler free text people paste after a game:
//
//	Wordle 0 3/6
//
//	⬛🟨🟨🟨⬛
//	...
//
// A failed game shows X instead of the number of turns.
func ShareGrid(number int, history []wordle.Turn, solved bool, maxTurns int) string {
	var sb strings.Builder
	tries := "X"
	if solved {
		tries = fmt.Sprint(len(history))
	}
	fmt.Fprintf(&sb, "Wordle %d %s/%d\n\n", number, tries, maxTurns)
	for _, turn := range history {
		for _, mark := range turn.Feedback {
			sb.WriteString(emoji[mark])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

const histogramWidth = 40

// Histogram draws one bar per number of turns, then the failures.
func Histogram(summary batch.Summary) string {
	most := 1
	for _, count := range summary.Histogram {
		most = max(most, count)
	}
	most = max(most, summary.Failed)
	bar := func(count int) string {
		width := count * histogramWidth / most
		if count > 0 && width == 0 {
			width = 1
		}
		return strings.Repeat("█", width)
	}
	lines := []string{titleStyle.Render("guesses")}
	for i, count := range summary.Histogram {
		lines = append(lines, fmt.Sprintf("%d | %s %d", i+1, barStyle.Render(bar(count)), count))
	}
	if summary.Failed > 0 {
		lines = append(lines, fmt.Sprintf("X | %s %d", failStyle.Render(bar(summary.Failed)), summary.Failed))
	}
	return strings.Join(lines, "\n")
}

// Summary is the one paragraph report of a batch.
func Summary(summary batch.Summary) string {
	lines := []string{
		fmt.Sprintf("Won %d of %d games (%.2f%%)", summary.Solved, summary.Games, summary.SolveRate),
		fmt.Sprintf("Average guesses %.3f solved, %.3f counting a loss as %d", summary.MeanSolved, summary.MeanAll, len(summary.Histogram)+1),
		fmt.Sprintf("%.1f games/sec", summary.GamesPerSecond),
	}
	if len(summary.FailedTargets) > 0 {
		lines = append(lines, "Lost: "+strings.Join(summary.FailedTargets, " "))
	}
	return strings.Join(lines, "\n")
}
