package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/brief"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(func() (*brief.Previewer, error) { return brief.New() })
	ctx := context.Background()
	count := 1000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		if _, err := mgr.Render(ctx, sid, "x", nil); err != nil {
			t.Fatal(err)
		}
		if err := mgr.Delete(ctx, sid); err != nil {
			t.Fatal(err)
		}
	}

	lockCount := len(mgr.locks)
	t.Logf("Sessions Created: %d, Locks Leaked: %d", count, lockCount)

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
	if len(mgr.sessions) != 0 {
		t.Errorf("%d sessions remaining after Delete", len(mgr.sessions))
	}
}
