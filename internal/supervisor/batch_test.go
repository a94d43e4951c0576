package supervisor

import "testing"

func TestPlanBatches_EvenSplit(t *testing.T) {
	batches := planBatches(testBatch(1, 2, 3, 4, 5, 6), 3)
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	for i, b := range batches {
		if len(b) != 3 {
			t.Errorf("batch %d has %d questions", i, len(b))
		}
	}
}

func TestPlanBatches_ShortLastBatch(t *testing.T) {
	batches := planBatches(testBatch(1, 2, 3, 4, 5), 2)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[2]) != 1 || batches[2][0].ID != 5 {
		t.Errorf("last batch: %+v", batches[2])
	}
}

func TestPlanBatches_PreservesOrder(t *testing.T) {
	batches := planBatches(testBatch(7, 3, 9, 1), 3)
	want := []int{7, 3, 9, 1}
	i := 0
	for _, b := range batches {
		for _, q := range b {
			if q.ID != want[i] {
				t.Fatalf("position %d: got %d, want %d", i, q.ID, want[i])
			}
			i++
		}
	}
}

func TestPlanBatches_SingleOversizedBatch(t *testing.T) {
	batches := planBatches(testBatch(1, 2), 10)
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Fatalf("unexpected batches: %+v", batches)
	}
}

func TestPlanBatches_Degenerate(t *testing.T) {
	if got := planBatches(nil, 10); got != nil {
		t.Errorf("nil questions: %+v", got)
	}
	if got := planBatches(testBatch(1), 0); got != nil {
		t.Errorf("zero size: %+v", got)
	}
	if got := planBatches(testBatch(1), -1); got != nil {
		t.Errorf("negative size: %+v", got)
	}
}
