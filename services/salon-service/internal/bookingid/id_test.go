package bookingid

import (
	"strings"
	"testing"
)

func TestNew_Format(t *testing.T) {
	for _, prefix := range []string{PrefixClient, PrefixBlock} {
		for i := 0; i < 100; i++ {
			id, err := New(prefix)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if !strings.HasPrefix(id, prefix+"-") {
				t.Fatalf("expected prefix %s, got %s", prefix, id)
			}
			if !Valid(id) {
				t.Fatalf("invalid id %s", id)
			}
		}
	}
}

func TestNew_Distinct(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id, err := New(PrefixClient)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		seen[id] = true
	}
	// 36^6 possibilities; a handful of collisions in 1000 draws would signal a broken source.
	if len(seen) < 995 {
		t.Fatalf("too many collisions: %d distinct of 1000", len(seen))
	}
}

func TestValid(t *testing.T) {
	for _, id := range []string{"glam-ab12cd", "GLAM-AB12C", "GLAMAB12CD", "GLAM-AB12C!"} {
		if Valid(id) {
			t.Fatalf("expected %q to be invalid", id)
		}
	}
	if !Valid("GLAM-AB12CD") {
		t.Fatal("expected GLAM-AB12CD to be valid")
	}
}
