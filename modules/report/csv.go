package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// CSV appends rows to a file. The header is written once, when the file is
// created or empty.
type CSV struct {
	path string

	mu     sync.Mutex
	header []string
}

var _ Sink = &CSV{}

var ErrHeaderMismatch = fmt.Errorf("row does not match the csv header")

func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

func (c *CSV) Path() string {
	return c.path
}

func (c *CSV) Append(ctx context.Context, row Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header := Header(row)
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return err
		}
		c.header = header
	} else {
		if c.header == nil {
			if c.header, err = readHeader(c.path); err != nil {
				return err
			}
		}
		if !slices.Equal(c.header, header) {
			return fmt.Errorf("%w: %s", ErrHeaderMismatch, c.path)
		}
	}

	if err := w.Write(Record(row)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header of %s: %w", path, err)
	}
	return header, nil
}

func (c *CSV) Close() error {
	return nil
}
