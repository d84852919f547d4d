package datasource

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"syncbridge/pkg/record"
)

func TestPageIteratorWalksAllPages(t *testing.T) {
	total := 7
	var fetches int
	fetch := func(_ context.Context, offset, limit int) ([]record.Record, error) {
		fetches++
		var page []record.Record
		for i := offset; i < total && i < offset+limit; i++ {
			page = append(page, record.Record{"id": record.String(fmt.Sprintf("r%d", i))})
		}
		return page, nil
	}

	it := newPageIterator(fetch, 3)
	var seen []string
	for {
		rec, ok, err := it.Next(context.Background())
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if !ok {
			break
		}
		seen = append(seen, rec.ID())
	}
	if len(seen) != total {
		t.Fatalf("expected %d records, got %d", total, len(seen))
	}
	if seen[0] != "r0" || seen[6] != "r6" {
		t.Errorf("records out of order: %v", seen)
	}
	// 3 + 3 + 1: the short page ends the sequence without a fourth fetch
	if fetches != 3 {
		t.Errorf("expected 3 fetches, got %d", fetches)
	}
}

func TestPageIteratorEmpty(t *testing.T) {
	it := newPageIterator(func(context.Context, int, int) ([]record.Record, error) {
		return nil, nil
	}, 10)
	if _, ok, err := it.Next(context.Background()); ok || err != nil {
		t.Errorf("empty source should end immediately, ok=%v err=%v", ok, err)
	}
}

func TestPageIteratorPropagatesError(t *testing.T) {
	boom := errors.New("backend down")
	it := newPageIterator(func(context.Context, int, int) ([]record.Record, error) {
		return nil, boom
	}, 10)
	if _, _, err := it.Next(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected fetch error, got %v", err)
	}
}

func TestSliceIteratorHonorsContext(t *testing.T) {
	it := newSliceIterator([]record.Record{{"id": record.String("a")}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := it.Next(ctx); err == nil {
		t.Error("cancelled context should abort iteration")
	}
}
