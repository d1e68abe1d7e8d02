package codec

import (
	"regexp"
	"testing"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestNewUUID(t *testing.T) {
	seen := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		id := NewUUID()
		if len(id) != 36 {
			t.Fatalf("NewUUID() length = %d, want 36 (%q)", len(id), id)
		}
		if !uuidPattern.MatchString(id) {
			t.Fatalf("NewUUID() = %q, does not match v4 layout", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("NewUUID() produced duplicate %q", id)
		}
		seen[id] = struct{}{}
	}
}
