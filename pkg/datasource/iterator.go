package datasource

import (
	"context"

	"syncbridge/pkg/record"
)

// pageFetchFunc loads one page of records at the given offset. Pages
// shorter than limit end the sequence.
type pageFetchFunc func(ctx context.Context, offset, limit int) ([]record.Record, error)

// pageIterator is a lazy, one-pass iterator pulling records page by
// page from a backend. It is not restartable.
type pageIterator struct {
	fetch    pageFetchFunc
	pageSize int

	page    []record.Record
	pos     int
	offset  int
	drained bool
}

func newPageIterator(fetch pageFetchFunc, pageSize int) *pageIterator {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &pageIterator{fetch: fetch, pageSize: pageSize}
}

// Next yields the next record in source order. ok=false marks the end
// of the sequence.
func (it *pageIterator) Next(ctx context.Context) (record.Record, bool, error) {
	for it.pos >= len(it.page) {
		if it.drained {
			return nil, false, nil
		}
		page, err := it.fetch(ctx, it.offset, it.pageSize)
		if err != nil {
			return nil, false, err
		}
		it.offset += len(page)
		if len(page) < it.pageSize {
			it.drained = true
		}
		it.page = page
		it.pos = 0
		if len(page) == 0 {
			return nil, false, nil
		}
	}
	rec := it.page[it.pos]
	it.pos++
	return rec, true, nil
}

func (it *pageIterator) Close() error {
	it.page = nil
	it.drained = true
	return nil
}

// sliceIterator walks an already-materialized record slice. Used by
// adapters whose backend returns the full result in one response.
type sliceIterator struct {
	records []record.Record
	pos     int
}

func newSliceIterator(records []record.Record) *sliceIterator {
	return &sliceIterator{records: records}
}

func (it *sliceIterator) Next(ctx context.Context) (record.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if it.pos >= len(it.records) {
		return nil, false, nil
	}
	rec := it.records[it.pos]
	it.pos++
	return rec, true, nil
}

func (it *sliceIterator) Close() error {
	it.records = nil
	return nil
}
