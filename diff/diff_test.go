package diff

import (
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/agausmann/perftree/perft"
)

func newReport(total int64, childCount map[string]int64) *perft.Report {
	children := make(map[string]*big.Int, len(childCount))
	for move, count := range childCount {
		children[move] = big.NewInt(count)
	}
	return perft.NewReport(big.NewInt(total), children)
}

func TestMerge(t *testing.T) {
	t.Parallel()
	lhs := newReport(140, map[string]int64{"a2a3": 80, "a2a4": 60})
	rhs := newReport(197, map[string]int64{"a2a4": 60, "b3b4": 65, "a2a3": 72})

	d := Merge(lhs, rhs)

	if got, want := d.Moves(), []string{"a2a3", "a2a4", "b3b4"}; !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected moves: got=%v want=%v", got, want)
	}

	gotLhs, gotRhs := d.TotalCount()
	if gotLhs.Cmp(big.NewInt(140)) != 0 || gotRhs.Cmp(big.NewInt(197)) != 0 {
		t.Errorf("unexpected totals: got=%v,%v want=140,197", gotLhs, gotRhs)
	}

	tests := []struct {
		move    string
		wantLhs string
		wantRhs string
	}{
		{move: "a2a3", wantLhs: "80", wantRhs: "72"},
		{move: "a2a4", wantLhs: "60", wantRhs: "60"},
		{move: "b3b4", wantLhs: "", wantRhs: "65"},
	}
	for _, tt := range tests {
		gotL, gotR := d.ChildCount(tt.move)
		if cell(gotL) != tt.wantLhs || cell(gotR) != tt.wantRhs {
			t.Errorf("unexpected counts for %q: got=%v,%v want=%v,%v",
				tt.move, cell(gotL), cell(gotR), tt.wantLhs, tt.wantRhs)
		}
	}
}

func cell(count *big.Int) string {
	if count == nil {
		return ""
	}
	return count.String()
}

func TestMergeIdentical(t *testing.T) {
	t.Parallel()
	r := newReport(400, map[string]int64{"e2e4": 20, "e2e3": 19})

	d := Merge(r, r)

	for _, move := range d.Moves() {
		lhs, rhs := d.ChildCount(move)
		if countsDiffer(lhs, rhs) {
			t.Errorf("unexpected mismatch for %q: %v != %v", move, lhs, rhs)
		}
	}
	lhs, rhs := d.TotalCount()
	if lhs.Cmp(rhs) != 0 {
		t.Errorf("unexpected total mismatch: %v != %v", lhs, rhs)
	}
}

func TestCountsDiffer(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		lhs  *big.Int
		rhs  *big.Int
		want bool
	}{
		{name: "equal", lhs: big.NewInt(60), rhs: big.NewInt(60), want: false},
		{name: "unequal", lhs: big.NewInt(80), rhs: big.NewInt(72), want: true},
		{name: "lhs absent", lhs: nil, rhs: big.NewInt(65), want: true},
		{name: "rhs absent", lhs: big.NewInt(65), rhs: nil, want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := countsDiffer(tt.lhs, tt.rhs); got != tt.want {
				t.Errorf("unexpected result: got=%v want=%v", got, tt.want)
			}
		})
	}
}

func TestDigitWidth(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n    string
		want int
	}{
		{n: "0", want: 0},
		{n: "1", want: 0},
		{n: "2", want: 1},
		{n: "9", want: 1},
		{n: "10", want: 1},
		{n: "11", want: 2},
		{n: "99", want: 2},
		{n: "100", want: 2},
		{n: "101", want: 3},
		{n: "1000000000000000000000", want: 21},
		{n: "1000000000000000000001", want: 22},
		{n: "9999999999999999999999", want: 22},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.n, func(t *testing.T) {
			t.Parallel()
			n, ok := new(big.Int).SetString(tt.n, 10)
			if !ok {
				t.Fatalf("unexpected parse failure: %q", tt.n)
			}
			if got := digitWidth(n); got != tt.want {
				t.Errorf("unexpected width: got=%v want=%v", got, tt.want)
			}
		})
	}

	if got := digitWidth(nil); got != 0 {
		t.Errorf("unexpected width for absent count: got=%v want=0", got)
	}
}

func TestWriteColored(t *testing.T) {
	defer func(noColor bool) { color.NoColor = noColor }(color.NoColor)
	color.NoColor = true

	lhs := newReport(140, map[string]int64{"a2a3": 80, "a2a4": 60})
	rhs := newReport(197, map[string]int64{"a2a3": 72, "a2a4": 60, "b3b4": 65})

	var out strings.Builder
	if err := Merge(lhs, rhs).WriteColored(&out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "a2a3  80  72\n" +
		"a2a4  60  60\n" +
		"b3b4      65\n" +
		"\n" +
		"total  140  197\n"
	if out.String() != want {
		t.Errorf("unexpected output:\ngot=%q\nwant=%q", out.String(), want)
	}
}

func TestWriteColoredHighlightsMismatches(t *testing.T) {
	defer func(noColor bool) { color.NoColor = noColor }(color.NoColor)
	color.NoColor = false

	lhs := newReport(140, map[string]int64{"a2a3": 80, "a2a4": 60})
	rhs := newReport(140, map[string]int64{"a2a3": 72, "a2a4": 60})

	var out strings.Builder
	if err := Merge(lhs, rhs).WriteColored(&out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(out.String(), "\n")
	if !strings.Contains(lines[0], "\x1b[") {
		t.Errorf("expected mismatched row to be highlighted: %q", lines[0])
	}
	if strings.Contains(lines[1], "\x1b[") {
		t.Errorf("expected matching row to be plain: %q", lines[1])
	}
	if strings.Contains(lines[3], "\x1b[") {
		t.Errorf("expected matching total to be plain: %q", lines[3])
	}
}
