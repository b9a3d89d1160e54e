package crossword

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crosswars/api/internal/model"
)

type stubWordSource struct {
	words []WordClue
	err   error
}

func (s *stubWordSource) ThemedWords(_ context.Context, _ string, _ int) ([]WordClue, error) {
	return s.words, s.err
}

type stubLayoutEngine struct {
	layout *Layout
	err    error
	got    []string
}

func (s *stubLayoutEngine) Arrange(_ context.Context, words []string) (*Layout, error) {
	s.got = words
	return s.layout, s.err
}

type stubCache struct {
	mu     sync.Mutex
	latest *model.Puzzle
	ttl    time.Duration
}

func (s *stubCache) SetLatest(_ context.Context, p *model.Puzzle, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = p
	s.ttl = ttl
	return nil
}

func (s *stubCache) GetLatest(_ context.Context) (*model.Puzzle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, nil
}

func TestBuild(t *testing.T) {
	words := &stubWordSource{words: []WordClue{
		{Answer: "apple", Clue: "Orchard fruit"},
		{Answer: "pear", Clue: "Teardrop fruit"},
	}}
	layout := &stubLayoutEngine{layout: &Layout{
		Placements: []Placement{
			{Word: "APPLE", Row: 0, Col: 0, Across: true},
			{Word: "PEAR", Row: 0, Col: 1, Across: false},
		},
		Rows: 5,
		Cols: 5,
	}}
	cache := &stubCache{}
	g := NewGenerator(words, layout, cache)

	p, err := g.Build(context.Background(), "fruit")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Theme != "fruit" {
		t.Errorf("theme = %q, want fruit", p.Theme)
	}
	if len(p.Grid) != 5 || len(p.Grid[0]) != 5 {
		t.Fatalf("grid should be 5x5, got %dx%d", len(p.Grid), len(p.Grid[0]))
	}
	if got := strings.Join(p.Grid[0], ""); got != "APPLE" {
		t.Errorf("row 0 = %q, want APPLE", got)
	}
	if p.Grid[1][1] != "E" || p.Grid[2][1] != "A" || p.Grid[3][1] != "R" {
		t.Errorf("PEAR not placed down from (0,1): %v", p.Grid)
	}
	if len(p.Clues) != 2 {
		t.Fatalf("expected 2 clues, got %d", len(p.Clues))
	}
	if p.Clues[0].Clue != "Orchard fruit" {
		t.Errorf("clue text lost: %+v", p.Clues[0])
	}

	// The layout engine receives the sanitized, uppercased answers.
	if len(layout.got) != 2 || layout.got[0] != "APPLE" || layout.got[1] != "PEAR" {
		t.Errorf("layout input = %v", layout.got)
	}

	// Built puzzles are cached until the end of the day.
	if cache.latest == nil {
		t.Fatal("puzzle not cached")
	}
	if cache.ttl <= 0 || cache.ttl > 24*time.Hour {
		t.Errorf("cache TTL %v should be the remainder of the day", cache.ttl)
	}

	got, err := g.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.Theme != "fruit" {
		t.Errorf("Latest returned %+v", got)
	}
}

func TestBuildNoUsableWords(t *testing.T) {
	words := &stubWordSource{words: []WordClue{
		{Answer: "a", Clue: "too short"},
		{Answer: "elephant", Clue: "too long"},
	}}
	g := NewGenerator(words, &stubLayoutEngine{}, nil)

	if _, err := g.Build(context.Background(), "zoo"); err == nil {
		t.Error("expected error when no words fit the board")
	}
}

func TestBuildNotConfigured(t *testing.T) {
	g := NewGenerator(&stubWordSource{}, nil, nil)
	if _, err := g.Build(context.Background(), "anything"); err == nil {
		t.Error("expected error when the layout engine is not configured")
	}
}

func TestLatestNoPuzzle(t *testing.T) {
	g := NewGenerator(&stubWordSource{}, &stubLayoutEngine{}, &stubCache{})
	if _, err := g.Latest(context.Background()); err != ErrNoPuzzle {
		t.Errorf("expected ErrNoPuzzle, got %v", err)
	}
}

func TestSanitizeWords(t *testing.T) {
	in := []WordClue{
		{Answer: " apple ", Clue: " Orchard fruit "},
		{Answer: "Pear!", Clue: "Teardrop fruit"},
		{Answer: "APPLE", Clue: "duplicate"},
		{Answer: "x", Clue: "too short"},
		{Answer: "bananas", Clue: "too long"},
		{Answer: "1234", Clue: "digits only"},
	}
	out := SanitizeWords(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 sanitized words, got %d: %v", len(out), out)
	}
	if out[0].Answer != "APPLE" || out[0].Clue != "Orchard fruit" {
		t.Errorf("unexpected first word %+v", out[0])
	}
	if out[1].Answer != "PEAR" {
		t.Errorf("unexpected second word %+v", out[1])
	}
}

func TestRenderGrid(t *testing.T) {
	grid := RenderGrid([]Placement{
		{Word: "CAT", Row: 0, Col: 0, Across: true},
		{Word: "COW", Row: 0, Col: 0, Across: false},
	}, 3, 3)

	want := [][]string{
		{"C", "A", "T"},
		{"O", "-", "-"},
		{"W", "-", "-"},
	}
	for i := range want {
		for j := range want[i] {
			if grid[i][j] != want[i][j] {
				t.Errorf("grid[%d][%d] = %q, want %q", i, j, grid[i][j], want[i][j])
			}
		}
	}
}

func TestRenderGridClipsOutOfBounds(t *testing.T) {
	// A placement running off the board must not panic; the overflow is
	// simply dropped.
	grid := RenderGrid([]Placement{{Word: "LONG", Row: 0, Col: 2, Across: true}}, 3, 3)
	if grid[0][2] != "L" {
		t.Errorf("in-bounds letter missing: %v", grid)
	}
}

func TestPadGrid(t *testing.T) {
	grid := PadGrid([][]string{{"A", "B"}, {"C"}}, 4)
	if len(grid) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(grid))
	}
	for i, row := range grid {
		if len(row) != 4 {
			t.Errorf("row %d has %d cells, want 4", i, len(row))
		}
	}
	if grid[0][0] != "A" || grid[0][2] != "-" || grid[3][3] != "-" {
		t.Errorf("padding wrong: %v", grid)
	}
}
