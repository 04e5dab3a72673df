package report

import (
	"context"
	"fmt"
	"reflect"
)

// Row is one result line of an analysis run. Columns are the exported
// fields tagged `csv`, in declaration order.
type Row interface {
	Kind() string
	Block() uint64
}

type Sink interface {
	Append(ctx context.Context, row Row) error
	Close() error
}

func Header(row Row) []string {
	t := reflect.Indirect(reflect.ValueOf(row)).Type()
	header := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag, ok := t.Field(i).Tag.Lookup("csv"); ok && tag != "-" {
			header = append(header, tag)
		}
	}
	return header
}

func Record(row Row) []string {
	v := reflect.Indirect(reflect.ValueOf(row))
	t := v.Type()
	record := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag, ok := t.Field(i).Tag.Lookup("csv"); ok && tag != "-" {
			record = append(record, fmt.Sprint(v.Field(i).Interface()))
		}
	}
	return record
}

// Multi fans every row out to all sinks, stopping at the first error.
type Multi []Sink

func (m Multi) Append(ctx context.Context, row Row) error {
	for _, s := range m {
		if err := s.Append(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
