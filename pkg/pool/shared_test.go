package pool

import (
	"context"
	"sync"
	"testing"

	"github.com/ever-lena/taskpool/internal/testutil"
)

func TestSharedRegion(t *testing.T) {
	region := NewSharedRegion(64)
	testutil.AssertEqual(t, region.Len(), 64)
	testutil.AssertEqual(t, len(region.Bytes()), 64)

	// Bytes aliases the region, not a copy.
	region.Bytes()[0] = 0xff
	testutil.AssertEqual(t, region.Bytes()[0], byte(0xff))
}

func TestSharedRegionNegativeSizePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for negative size")
		}
	}()
	NewSharedRegion(-1)
}

type regionTask struct {
	region *SharedRegion
	offset int
	value  byte
}

func TestSharedRegionVisibleToWorkers(t *testing.T) {
	region := NewSharedRegion(8)
	var mu sync.Mutex
	factory := FactoryOf(func(_ context.Context, payload any) (any, error) {
		task := payload.(regionTask)
		mu.Lock()
		task.region.Bytes()[task.offset] = task.value
		mu.Unlock()
		return nil, nil
	})
	p := New(2, factory)
	defer func() { <-p.Shutdown() }()

	handles := make([]*Handle, 0, region.Len())
	for i := 0; i < region.Len(); i++ {
		h, err := p.Submit(regionTask{region: region, offset: i, value: byte(i + 1)})
		testutil.AssertNoError(t, err)
		handles = append(handles, h)
	}
	for _, h := range handles {
		_, err := h.Result()
		testutil.AssertNoError(t, err)
	}

	// Writes made by workers are visible to the submitter afterwards.
	mu.Lock()
	defer mu.Unlock()
	for i, b := range region.Bytes() {
		testutil.AssertEqual(t, b, byte(i+1))
	}
}
