package book

import "testing"

func TestCheckpointRestoreRoundTrip(t *testing.T) {
	t.Parallel()
	original := NewOrderBook(0.01)
	mustAdd(t, original, "o1", "CBOE", Bid, 2.50, 100)
	mustAdd(t, original, "o2", "ISE", Bid, 2.51, 50)
	mustAdd(t, original, "o3", "ARCA", Ask, 2.60, 75)

	records := original.Checkpoint()
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	restored := NewOrderBook(0.01)
	if err := restored.Restore(records); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	wantBid, _ := original.BestBid()
	gotBid, ok := restored.BestBid()
	if !ok || gotBid != wantBid {
		t.Errorf("BestBid = %v, %v; want %v", gotBid, ok, wantBid)
	}

	wantAsk, _ := original.BestAsk()
	gotAsk, ok := restored.BestAsk()
	if !ok || gotAsk != wantAsk {
		t.Errorf("BestAsk = %v, %v; want %v", gotAsk, ok, wantAsk)
	}

	if restored.LevelCount(Bid) != original.LevelCount(Bid) {
		t.Errorf("bid level count = %d, want %d", restored.LevelCount(Bid), original.LevelCount(Bid))
	}
}

func TestRestoreRejectsDuplicateRecordIDs(t *testing.T) {
	t.Parallel()
	ob := NewOrderBook(0.01)
	records := []OrderRecord{
		{OID: "dup", Venue: "CBOE", Side: Bid, Price: 2.50, Qty: 10},
		{OID: "dup", Venue: "ISE", Side: Bid, Price: 2.51, Qty: 5},
	}
	if err := ob.Restore(records); err == nil {
		t.Error("expected error restoring records with duplicate order ids")
	}
}
