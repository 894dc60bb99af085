package xid

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewIsPrefixedAndUnique(t *testing.T) {
	a := New("sale")
	b := New("sale")
	if a == b {
		t.Fatalf("expected distinct ids, got %s twice", a)
	}
	if !strings.HasPrefix(a, "sale-") {
		t.Fatalf("expected sale- prefix, got %s", a)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(a, "sale-")); err != nil {
		t.Fatalf("expected uuid suffix: %v", err)
	}
}
