package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"screentosong-be/pkg/imagehash"
)

func testVerse(lines ...string) Verse {
	return Verse{
		Id:        uuid.New(),
		Lines:     lines,
		Genre:     "lo-fi",
		CreatedAt: time.Now(),
	}
}

func TestObserveFirstFrameAlwaysChanged(t *testing.T) {
	s := NewSession("t")
	changed, scene := s.Observe(imagehash.Hash(0), 10)
	if !changed {
		t.Fatal("first frame must be treated as changed")
	}
	if scene != nil {
		t.Fatal("no descriptor should exist before the first accept")
	}
}

func TestObserveWithinThresholdIsCached(t *testing.T) {
	s := NewSession("t")
	desc := &SceneDescriptor{Activity: "coding"}
	s.Accept(imagehash.Hash(0b1111), desc)

	// distance 1, threshold 10: unchanged
	changed, scene := s.Observe(imagehash.Hash(0b1110), 10)
	if changed {
		t.Fatal("frame within threshold should not be changed")
	}
	if scene != desc {
		t.Fatal("cached path must return the current descriptor")
	}
}

func TestObserveBeyondThresholdIsChanged(t *testing.T) {
	s := NewSession("t")
	s.Accept(imagehash.Hash(0), &SceneDescriptor{Activity: "coding"})

	changed, _ := s.Observe(imagehash.Hash(^uint64(0)), 10)
	if !changed {
		t.Fatal("frame beyond threshold should be changed")
	}
}

func TestObserveRetriesWhenNoDescriptor(t *testing.T) {
	// Accept never ran (classification failed), so even an identical
	// fingerprint must force a retry instead of serving a nil descriptor.
	s := NewSession("t")
	changed, _ := s.Observe(imagehash.Hash(42), 10)
	if !changed {
		t.Fatal("want changed on first observe")
	}
	changed, scene := s.Observe(imagehash.Hash(42), 10)
	if !changed || scene != nil {
		t.Fatal("session without descriptor must keep forcing classification")
	}
}

func TestAppendIsAppendOnly(t *testing.T) {
	s := NewSession("t")
	for i := 0; i < 5; i++ {
		s.AppendVerse(testVerse(fmt.Sprintf("line %d", i)))
		if got := s.VerseCount(); got != i+1 {
			t.Fatalf("after %d appends VerseCount = %d", i+1, got)
		}
	}
}

func TestLineCountIsRecomputed(t *testing.T) {
	s := NewSession("t")
	s.AppendVerse(testVerse("a", "b", "c", "d"))
	s.AppendVerse(testVerse("e", "f"))
	if got := s.LineCount(); got != 6 {
		t.Fatalf("LineCount = %d, want 6", got)
	}
	s.Reset()
	if got := s.LineCount(); got != 0 {
		t.Fatalf("LineCount after reset = %d, want 0", got)
	}
}

func TestRecentLinesMostRecentLast(t *testing.T) {
	s := NewSession("t")
	s.AppendVerse(testVerse("one", "two"))
	s.AppendVerse(testVerse("three", "four"))

	got := s.RecentLines(3)
	want := []string{"two", "three", "four"}
	if len(got) != len(want) {
		t.Fatalf("RecentLines = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("RecentLines[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := NewSession("t")
	s.Accept(imagehash.Hash(7), &SceneDescriptor{Activity: "gaming"})
	s.AppendVerse(testVerse("a"))
	s.AppendVerse(testVerse("b"))
	s.AppendVerse(testVerse("c"))

	s.Reset()

	if s.VerseCount() != 0 {
		t.Fatal("verses survived reset")
	}
	if s.CurrentScene() != nil {
		t.Fatal("descriptor survived reset")
	}
	changed, _ := s.Observe(imagehash.Hash(7), 10)
	if !changed {
		t.Fatal("identical frame after reset must be treated as first-ever")
	}
}

func TestVersesSnapshotIsIndependent(t *testing.T) {
	s := NewSession("t")
	s.AppendVerse(testVerse("a"))
	snap := s.Verses()
	s.AppendVerse(testVerse("b"))
	if len(snap) != 1 {
		t.Fatalf("snapshot length = %d, want 1", len(snap))
	}
}

func TestConcurrentAppendsKeepCount(t *testing.T) {
	s := NewSession("t")
	var wg sync.WaitGroup
	const n = 50
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AppendVerse(testVerse(fmt.Sprintf("line %d", i)))
		}(i)
	}
	wg.Wait()
	if got := s.VerseCount(); got != n {
		t.Fatalf("VerseCount = %d, want %d", got, n)
	}
}
