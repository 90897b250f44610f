package finder_test

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/samirrijal/youthcenters/internal/core/domain"
	"github.com/samirrijal/youthcenters/internal/core/finder"
)

func TestParseRecords(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []domain.Center
	}{
		{
			name: "drops wrong field count and zeroes bad numbers",
			raw:  "header\nAlpha,10.0,20.0\nBeta,bad,30.0\nGamma,1,2,3\n",
			want: []domain.Center{
				{Name: "Alpha", Latitude: 10.0, Longitude: 20.0},
				{Name: "Beta", Latitude: 0.0, Longitude: 30.0},
			},
		},
		{
			name: "header only",
			raw:  "name,latitude,longitude\n",
			want: []domain.Center{},
		},
		{
			name: "header only without newline",
			raw:  "name,latitude,longitude",
			want: []domain.Center{},
		},
		{
			name: "empty input",
			raw:  "",
			want: []domain.Center{},
		},
		{
			name: "header is never parsed",
			raw:  "Header,1,2\nOnly,3,4",
			want: []domain.Center{{Name: "Only", Latitude: 3, Longitude: 4}},
		},
		{
			name: "crlf line endings",
			raw:  "h\r\nSeoul Center,37.5665,126.9780\r\n",
			want: []domain.Center{{Name: "Seoul Center", Latitude: 37.5665, Longitude: 126.9780}},
		},
		{
			name: "lone carriage return ends a line",
			raw:  "h\rAlpha,10.0,20.0\rBeta,1,2",
			want: []domain.Center{
				{Name: "Alpha", Latitude: 10.0, Longitude: 20.0},
				{Name: "Beta", Latitude: 1, Longitude: 2},
			},
		},
		{
			name: "mixed line endings",
			raw:  "h\r\nA,1,2\rB,3,4\nC,5,6\r\n",
			want: []domain.Center{
				{Name: "A", Latitude: 1, Longitude: 2},
				{Name: "B", Latitude: 3, Longitude: 4},
				{Name: "C", Latitude: 5, Longitude: 6},
			},
		},
		{
			name: "blank and short lines dropped",
			raw:  "h\n\nNoCoords\nTwo,1\nOk,1,2\n",
			want: []domain.Center{{Name: "Ok", Latitude: 1, Longitude: 2}},
		},
		{
			name: "keeps duplicates in file order",
			raw:  "h\nSame,1,1\nSame,2,2\n",
			want: []domain.Center{
				{Name: "Same", Latitude: 1, Longitude: 1},
				{Name: "Same", Latitude: 2, Longitude: 2},
			},
		},
		{
			name: "empty numeric fields become zero",
			raw:  "h\nBlank,,\n",
			want: []domain.Center{{Name: "Blank"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := finder.ParseRecords(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseRecords() = %d centers, want %d (%+v)", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("center %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// Malformed numbers silently become 0.0. A center at (0, 0) in the output
// may therefore be a parse failure rather than real data.
func TestParseCoordinate_SilentZero(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"37.5665", 37.5665},
		{" 126.978 ", 126.978},
		{"-33.5", -33.5},
		{"1e1", 10},
		{"bad", 0},
		{"", 0},
		{"12,5", 0},
		{"1e400", 0}, // out of range is a parse error
		{"Inf", math.Inf(1)},
		{"-Inf", math.Inf(-1)},
	}
	for _, tt := range tests {
		if got := finder.ParseCoordinate(tt.in); got != tt.want {
			t.Errorf("ParseCoordinate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if got := finder.ParseCoordinate("NaN"); !math.IsNaN(got) {
		t.Errorf("ParseCoordinate(\"NaN\") = %v, want NaN", got)
	}
}

// Lines split on a carriage return that straddles two reads must still
// count "\r\n" as one terminator.
func TestReadRecords_CRLFAcrossReads(t *testing.T) {
	r := io.MultiReader(strings.NewReader("h\r"), strings.NewReader("\nA,1,2\r"), strings.NewReader("\nB,3,4"))
	res, err := finder.ReadRecords(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Centers) != 2 || res.Dropped != 0 {
		t.Fatalf("expected 2 centers and no drops, got %+v", res)
	}
}

func TestReadRecords_LineTooLong(t *testing.T) {
	long := strings.Repeat("x", 2<<20)
	_, err := finder.ReadRecords(strings.NewReader("h\n" + long + ",1,2\n"))
	if err == nil {
		t.Fatal("expected an error for an oversized line")
	}
}

func TestReadRecords_CountsDropped(t *testing.T) {
	res, err := finder.ReadRecords(strings.NewReader("h\nA,1,2\nB,1,2,3\nC\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Centers) != 1 {
		t.Fatalf("expected 1 center, got %d", len(res.Centers))
	}
	if res.Dropped != 2 {
		t.Errorf("expected 2 dropped, got %d", res.Dropped)
	}
}

type failingReader struct{ data string }

func (f *failingReader) Read(p []byte) (int, error) {
	if f.data == "" {
		return 0, errors.New("disk gone")
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

func TestReadRecords_ReadError(t *testing.T) {
	res, err := finder.ReadRecords(&failingReader{data: "h\nA,1,2\n"})
	if err == nil {
		t.Fatal("expected read error")
	}
	if errors.Is(err, io.EOF) {
		t.Fatal("EOF must not be reported as an error")
	}
	if len(res.Centers) != 1 {
		t.Errorf("expected records read before the failure, got %d", len(res.Centers))
	}
}
