package finder

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samirrijal/youthcenters/internal/core/domain"
)

// recordFields is the exact number of comma-separated fields in a data line:
// name, latitude, longitude.
const recordFields = 3

// maxLineBytes bounds a single line; longer lines fail the read.
const maxLineBytes = 1 << 20

// ParseResult is the outcome of reading a record stream.
type ParseResult struct {
	Centers []domain.Center
	// Dropped counts data lines that did not have exactly three fields.
	Dropped int
}

// ParseCoordinate converts a latitude or longitude field to a float.
// Text that does not parse becomes 0.0; no error is reported. "NaN" and
// "Inf" parse and are returned as is; Check rejects them before storage.
//
// This is the only place that decides what happens to malformed numbers,
// so switching to skip-on-error only needs a change here.
func ParseCoordinate(field string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseRecords parses line-oriented center data. The first line is a
// header and is discarded without inspection. Every following line is split
// on ',' and kept only when it has exactly three fields. Centers are returned
// in input order with no deduplication.
func ParseRecords(rawText string) []domain.Center {
	// A strings.Reader never fails; only a line over maxLineBytes stops
	// parsing early, keeping the centers read so far.
	res, _ := ReadRecords(strings.NewReader(rawText))
	return res.Centers
}

// ReadRecords applies the ParseRecords rules to a stream. Lines end at
// "\n", "\r\n" or a lone "\r". Only read errors from r are returned;
// malformed lines never are.
func ReadRecords(r io.Reader) (ParseResult, error) {
	res := ParseResult{Centers: []domain.Center{}}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	sc.Split(scanLines)

	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		if c, ok := parseLine(sc.Text()); ok {
			res.Centers = append(res.Centers, c)
		} else {
			res.Dropped++
		}
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("read records: %w", err)
	}
	return res, nil
}

// scanLines is bufio.ScanLines extended to treat a lone '\r' as a line end.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// A '\r' at the end of the buffer may be half of "\r\n".
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func parseLine(line string) (domain.Center, bool) {
	fields := strings.Split(line, ",")
	if len(fields) != recordFields {
		return domain.Center{}, false
	}
	return domain.Center{
		Name:      fields[0],
		Latitude:  ParseCoordinate(fields[1]),
		Longitude: ParseCoordinate(fields[2]),
	}, true
}
