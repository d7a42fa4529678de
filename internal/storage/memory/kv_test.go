package memory

import (
	"context"
	"testing"
)

func TestKVDB_GetSetDelete(t *testing.T) {
	s := NewKVDB()
	ctx := context.Background()

	if _, found, err := s.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("expected missing key to be not found without error, found=%v err=%v", found, err)
	}

	if err := s.Set(ctx, "k1", []byte("v1"), 0); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	v, found, err := s.Get(ctx, "k1")
	if err != nil || !found || string(v) != "v1" {
		t.Fatalf("unexpected Get result: v=%q found=%v err=%v", v, found, err)
	}

	// returned slice must not alias the stored value
	v[0] = 'x'
	v2, _, _ := s.Get(ctx, "k1")
	if string(v2) != "v1" {
		t.Fatalf("stored value was modified through returned slice: %q", v2)
	}

	deleted, err := s.Delete(ctx, "k1")
	if err != nil || !deleted {
		t.Fatalf("expected key to be deleted, deleted=%v err=%v", deleted, err)
	}
	deleted, _ = s.Delete(ctx, "k1")
	if deleted {
		t.Fatalf("second delete must report false")
	}
}

func TestKVDB_PrefixOps(t *testing.T) {
	s := NewKVDB()
	ctx := context.Background()

	for _, k := range []string{"elimination:m1:p:a", "elimination:m1:p:b", "elimination:m10:p:a", "contract_routing:m1:p:a"} {
		if err := s.Set(ctx, k, []byte("{}"), 0); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}

	keys, err := s.ScanPrefix(ctx, "elimination:m1:")
	if err != nil {
		t.Fatalf("ScanPrefix: %v", err)
	}
	if len(keys) != 2 || keys[0] != "elimination:m1:p:a" || keys[1] != "elimination:m1:p:b" {
		t.Fatalf("unexpected scan result: %v", keys)
	}

	deleted, err := s.DeleteKeysMatchingPrefix(ctx, "elimination:m1:")
	if err != nil {
		t.Fatalf("DeleteKeysMatchingPrefix: %v", err)
	}
	if len(deleted) != 2 {
		t.Fatalf("expected 2 deleted keys, got %v", deleted)
	}
	if _, found, _ := s.Get(ctx, "elimination:m10:p:a"); !found {
		t.Fatalf("key of another entity must survive prefix delete")
	}
}
