// Package crossword glues the themed-puzzle generation pipeline
// together: a word source (external language model) produces themed
// word/clue pairs, a layout engine (external service) places them, and
// the generator renders the placements into a padded grid. The layout
// algorithm itself is not implemented here.
package crossword

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crosswars/api/internal/model"
	"github.com/crosswars/api/internal/repository"
)

// gridSize is the fixed board size the frontend renders.
const gridSize = 5

var ErrNoPuzzle = errors.New("no puzzle generated yet")

// WordClue is one candidate answer with its clue text.
type WordClue struct {
	Answer string `json:"answer"`
	Clue   string `json:"clue"`
}

// WordSource produces themed word/clue pairs.
type WordSource interface {
	ThemedWords(ctx context.Context, theme string, count int) ([]WordClue, error)
}

// Placement is one word placed on the board by the layout engine.
type Placement struct {
	Word   string `json:"word"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Across bool   `json:"across"`
}

// Layout is the layout engine's output.
type Layout struct {
	Placements []Placement `json:"placements"`
	Rows       int         `json:"rows"`
	Cols       int         `json:"cols"`
}

// LayoutEngine arranges words into a crossword layout.
type LayoutEngine interface {
	Arrange(ctx context.Context, words []string) (*Layout, error)
}

// Generator runs the generation pipeline and caches the latest puzzle.
type Generator struct {
	words  WordSource
	layout LayoutEngine
	cache  repository.PuzzleCache
}

// NewGenerator creates a Generator.
func NewGenerator(words WordSource, layout LayoutEngine, cache repository.PuzzleCache) *Generator {
	return &Generator{words: words, layout: layout, cache: cache}
}

// Build generates a themed puzzle: themed words from the model, a
// layout from the layout engine, then a rendered grid padded to the
// fixed board size. The result is cached as the latest puzzle until the
// end of the day.
func (g *Generator) Build(ctx context.Context, theme string) (*model.Puzzle, error) {
	if g.words == nil || g.layout == nil {
		return nil, errors.New("crossword generation is not configured")
	}

	candidates, err := g.words.ThemedWords(ctx, theme, 10)
	if err != nil {
		return nil, fmt.Errorf("themed words: %w", err)
	}

	clean := SanitizeWords(candidates)
	if len(clean) == 0 {
		return nil, fmt.Errorf("no usable words for theme %q", theme)
	}

	answers := make([]string, len(clean))
	byAnswer := make(map[string]WordClue, len(clean))
	for i, wc := range clean {
		answers[i] = wc.Answer
		byAnswer[wc.Answer] = wc
	}

	layout, err := g.layout.Arrange(ctx, answers)
	if err != nil {
		return nil, fmt.Errorf("arrange words: %w", err)
	}

	grid := RenderGrid(layout.Placements, layout.Rows, layout.Cols)
	grid = PadGrid(grid, gridSize)

	puzzle := &model.Puzzle{
		Theme:       theme,
		Grid:        grid,
		GeneratedAt: time.Now(),
	}
	for i, p := range layout.Placements {
		wc, ok := byAnswer[p.Word]
		if !ok {
			continue
		}
		puzzle.Clues = append(puzzle.Clues, model.Clue{
			Answer: p.Word,
			Clue:   wc.Clue,
			Row:    p.Row,
			Col:    p.Col,
			Across: p.Across,
			Number: i + 1,
		})
	}

	if g.cache != nil {
		ttl := time.Until(endOfDay(puzzle.GeneratedAt))
		if err := g.cache.SetLatest(ctx, puzzle, ttl); err != nil {
			log.Warn().Err(err).Msg("Failed to cache generated puzzle")
		}
	}

	return puzzle, nil
}

// Latest returns the most recently generated puzzle.
func (g *Generator) Latest(ctx context.Context) (*model.Puzzle, error) {
	if g.cache == nil {
		return nil, ErrNoPuzzle
	}
	p, err := g.cache.GetLatest(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNoPuzzle
	}
	return p, nil
}

// SanitizeWords uppercases answers, strips non-letters, drops words that
// do not fit the board, and dedupes.
func SanitizeWords(in []WordClue) []WordClue {
	seen := make(map[string]bool, len(in))
	var out []WordClue
	for _, wc := range in {
		var b strings.Builder
		for _, r := range strings.ToUpper(strings.TrimSpace(wc.Answer)) {
			if r >= 'A' && r <= 'Z' {
				b.WriteRune(r)
			}
		}
		answer := b.String()
		if len(answer) < 2 || len(answer) > gridSize || seen[answer] {
			continue
		}
		seen[answer] = true
		out = append(out, WordClue{Answer: answer, Clue: strings.TrimSpace(wc.Clue)})
	}
	return out
}

// RenderGrid draws placements onto a rows x cols board. "-" marks an
// empty cell.
func RenderGrid(placements []Placement, rows, cols int) [][]string {
	grid := make([][]string, rows)
	for i := range grid {
		grid[i] = make([]string, cols)
		for j := range grid[i] {
			grid[i][j] = "-"
		}
	}
	for _, p := range placements {
		for i, r := range p.Word {
			row, col := p.Row, p.Col
			if p.Across {
				col += i
			} else {
				row += i
			}
			if row < 0 || row >= rows || col < 0 || col >= cols {
				continue
			}
			grid[row][col] = string(r)
		}
	}
	return grid
}

// PadGrid pads a grid with empty cells so it is exactly size x size.
// Grids already at or above the target size are returned unchanged.
func PadGrid(grid [][]string, size int) [][]string {
	for i := range grid {
		for len(grid[i]) < size {
			grid[i] = append(grid[i], "-")
		}
	}
	for len(grid) < size {
		row := make([]string, size)
		for j := range row {
			row[j] = "-"
		}
		grid = append(grid, row)
	}
	return grid
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
