// Package labels loads the id-to-name tables for the hand-sign and
// point-history classifiers.
package labels

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Unknown is the name reported for ids outside a table.
const Unknown = "Unknown"

// ErrBlankLabel is returned when a label file has an empty row before its
// last label. Ids are row positions, so a gap would shift every later name.
var ErrBlankLabel = errors.New("blank label row")

//go:embed defaults/*.csv
var defaultsFS embed.FS

// Table maps classifier ids to display names. The zero value is an empty
// table that names every id Unknown.
type Table struct {
	names []string
}

// New creates a table from names indexed by id.
func New(names ...string) Table {
	cp := make([]string, len(names))
	copy(cp, names)
	return Table{names: cp}
}

// Name returns the label for id, or Unknown when id is out of range.
func (t Table) Name(id int) string {
	if id < 0 || id >= len(t.names) {
		return Unknown
	}
	return t.names[id]
}

// Len returns the number of labels.
func (t Table) Len() int {
	return len(t.names)
}

// Names returns a copy of the labels in id order.
func (t Table) Names() []string {
	cp := make([]string, len(t.names))
	copy(cp, t.names)
	return cp
}

// Load reads a label file: one label per row, first column only, UTF-8 with
// an optional byte order mark.
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open labels %s: %w", path, err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return Table{}, fmt.Errorf("parse labels %s: %w", path, err)
	}
	return t, nil
}

// Parse reads a label table from r. Trailing blank lines are ignored; any
// other empty row is an error.
func Parse(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var names []string
	nextLine := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, err
		}

		// The reader drops empty lines silently; a jump in line numbers
		// means one was skipped.
		line, _ := reader.FieldPos(0)
		if line != nextLine {
			return Table{}, fmt.Errorf("%w at line %d", ErrBlankLabel, nextLine)
		}
		last := len(record) - 1
		lastLine, _ := reader.FieldPos(last)
		nextLine = lastLine + strings.Count(record[last], "\n") + 1

		name := strings.TrimSpace(strings.TrimPrefix(record[0], "\ufeff"))
		if name == "" {
			return Table{}, fmt.Errorf("%w at line %d", ErrBlankLabel, line)
		}
		names = append(names, name)
	}

	if len(names) == 0 {
		return Table{}, errors.New("no labels found")
	}
	return Table{names: names}, nil
}

// HandSigns returns the built-in hand-sign table.
func HandSigns() Table {
	return mustDefault("defaults/hand_sign.csv")
}

// PointHistory returns the built-in point-history gesture table.
func PointHistory() Table {
	return mustDefault("defaults/point_history.csv")
}

// LoadOrDefault loads path, or returns fallback when path is empty.
func LoadOrDefault(path string, fallback Table) (Table, error) {
	if strings.TrimSpace(path) == "" {
		return fallback, nil
	}
	return Load(path)
}

func mustDefault(name string) Table {
	f, err := defaultsFS.Open(name)
	if err != nil {
		panic(fmt.Sprintf("labels: missing embedded %s: %v", name, err))
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		panic(fmt.Sprintf("labels: invalid embedded %s: %v", name, err))
	}
	return t
}
