package diff

import (
	"fmt"
	"io"
	"math/big"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/agausmann/perftree/perft"
)

var mismatchColor = color.New(color.FgRed, color.Bold)

// Diff is the merged view of two backends' reports for one query. A move
// missing from one side means that backend did not report it as legal.
type Diff struct {
	totalCount [2]*big.Int
	childCount map[string][2]*big.Int
	moves      []string
}

// Merge pairs up the per-move counts of two reports over the union of their
// move keys. Totals are copied verbatim, never recomputed from the rows.
func Merge(lhs, rhs *perft.Report) *Diff {
	childCount := make(map[string][2]*big.Int, lhs.Len())
	for _, move := range lhs.Moves() {
		count, _ := lhs.ChildCount(move)
		pair := childCount[move]
		pair[0] = count
		childCount[move] = pair
	}
	for _, move := range rhs.Moves() {
		count, _ := rhs.ChildCount(move)
		pair := childCount[move]
		pair[1] = count
		childCount[move] = pair
	}

	moves := make([]string, 0, len(childCount))
	for move := range childCount {
		moves = append(moves, move)
	}
	sort.Strings(moves)

	return &Diff{
		totalCount: [2]*big.Int{lhs.TotalCount(), rhs.TotalCount()},
		childCount: childCount,
		moves:      moves,
	}
}

// Moves returns the union of both reports' moves in lexicographic order.
func (d *Diff) Moves() []string {
	return d.moves
}

// ChildCount returns both sides' counts for a move; a nil side means the
// backend did not report the move.
func (d *Diff) ChildCount(move string) (lhs, rhs *big.Int) {
	pair := d.childCount[move]
	return pair[0], pair[1]
}

func (d *Diff) TotalCount() (lhs, rhs *big.Int) {
	return d.totalCount[0], d.totalCount[1]
}

// WriteColored renders the diff as an aligned table, one row per move with
// both counts right-aligned to a shared width, emphasizing rows and totals
// where the two sides disagree.
func (d *Diff) WriteColored(w io.Writer) error {
	var minWidth int
	for _, move := range d.moves {
		pair := d.childCount[move]
		minWidth = max(minWidth, digitWidth(pair[0]), digitWidth(pair[1]))
	}

	for _, move := range d.moves {
		pair := d.childCount[move]
		line := fmt.Sprintf("%s  %s  %s", move, pad(countCell(pair[0]), minWidth), pad(countCell(pair[1]), minWidth))
		if err := writeLine(w, line, countsDiffer(pair[0], pair[1])); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	lhs, rhs := d.TotalCount()
	line := fmt.Sprintf("total  %s  %s", lhs, rhs)
	return writeLine(w, line, lhs.Cmp(rhs) != 0)
}

func writeLine(w io.Writer, line string, mismatch bool) error {
	if mismatch {
		line = mismatchColor.Sprint(line)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func countsDiffer(lhs, rhs *big.Int) bool {
	if lhs == nil || rhs == nil {
		return lhs != rhs
	}
	return lhs.Cmp(rhs) != 0
}

func countCell(count *big.Int) string {
	if count == nil {
		return ""
	}
	return count.Text(10)
}

// digitWidth returns ceil(log10(n)) in integer arithmetic: the decimal digit
// count, except exact powers of ten (and zero) round down one.
func digitWidth(n *big.Int) int {
	if n == nil || n.Sign() == 0 {
		return 0
	}
	s := n.Text(10)
	if s[0] != '1' {
		return len(s)
	}
	for _, c := range s[1:] {
		if c != '0' {
			return len(s)
		}
	}
	return len(s) - 1
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
