package buffer

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestPushKeepsNewestFirst(t *testing.T) {
	b := New[int](3)

	b.Push(1)
	b.Push(2)
	b.Push(3)

	got := b.Items()
	want := []int{3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Items() = %v, want %v", got, want)
		}
	}
}

func TestPushDropsOldestBeyondCapacity(t *testing.T) {
	b := New[int](3)

	for i := 1; i <= 5; i++ {
		b.Push(i)
	}

	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}
	got := b.Items()
	want := []int{5, 4, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Items() = %v, want %v", got, want)
		}
	}
}

func TestHeadEmpty(t *testing.T) {
	b := New[string](2)
	if _, ok := b.Head(); ok {
		t.Fatal("Head() on empty buffer reported ok")
	}

	b.Push("a")
	head, ok := b.Head()
	if !ok || head != "a" {
		t.Fatalf("Head() = %q, %v; want %q, true", head, ok, "a")
	}
}

func TestMinimumCapacity(t *testing.T) {
	b := New[int](0)
	b.Push(1)
	b.Push(2)
	if b.Cap() != 1 || b.Len() != 1 {
		t.Fatalf("Cap() = %d, Len() = %d; want 1, 1", b.Cap(), b.Len())
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	b := New[int](3)
	b.Push(1)
	b.Push(2)

	items := b.Items()
	items[0] = 99

	head, _ := b.Head()
	if head != 2 {
		t.Fatalf("mutating Items() result leaked into buffer: head = %d", head)
	}
}

func TestEachUpdatesInPlace(t *testing.T) {
	b := New[int](4)
	for i := 1; i <= 4; i++ {
		b.Push(i)
	}

	b.Each(func(v *int) { *v *= 10 })

	got := b.Items()
	want := []int{40, 30, 20, 10}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Items() = %v, want %v", got, want)
		}
	}
}

// Property: for any sequence of pushes into a buffer of capacity N,
// the length is min(totalPushes, N) and the head is always the most
// recently pushed item.
func TestProperty_BoundedLengthAndNewestHead(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("length bounded and head is newest", prop.ForAll(
		func(capacity int, values []int) bool {
			b := New[int](capacity)
			for _, v := range values {
				b.Push(v)
				head, ok := b.Head()
				if !ok || head != v {
					return false
				}
				if b.Len() > b.Cap() {
					return false
				}
			}

			wantLen := len(values)
			if wantLen > b.Cap() {
				wantLen = b.Cap()
			}
			return b.Len() == wantLen
		},
		gen.IntRange(1, 50),
		gen.SliceOf(gen.Int()),
	))

	properties.TestingRun(t)
}

func BenchmarkPush(b *testing.B) {
	buf := New[int](1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Push(i)
	}
}
