package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubject_ReplaysLatest(t *testing.T) {
	s := NewSubject[int]()

	var early []int
	s.Subscribe(func(v int) { early = append(early, v) })
	s.Publish(1)
	s.Publish(2)

	var late []int
	s.Subscribe(func(v int) { late = append(late, v) })
	s.Publish(3)

	assert.Equal(t, []int{1, 2, 3}, early)
	assert.Equal(t, []int{2, 3}, late)

	v, ok := s.Value()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestSubject_UnsubscribeReleasesListener(t *testing.T) {
	s := NewSubject[string]()
	sub := s.Subscribe(func(string) {})
	other := s.Subscribe(func(string) {})
	assert.Equal(t, 2, s.Listeners())

	sub.Unsubscribe()
	sub.Unsubscribe()

	assert.Equal(t, 1, s.Listeners())
	other.Unsubscribe()
	assert.Equal(t, 0, s.Listeners())
}

func TestObservable_PipelinesAreIndependent(t *testing.T) {
	s := NewSubject[int]()
	tens := DistinctUntilChanged(Map(s.Observable(), func(v int) int { return v / 10 }), Same[int])

	var a []int
	subA := tens.Subscribe(func(v int) { a = append(a, v) })
	s.Publish(11)
	s.Publish(12)

	var b []int
	subB := tens.Subscribe(func(v int) { b = append(b, v) })
	s.Publish(25)
	subA.Unsubscribe()
	s.Publish(31)
	subB.Unsubscribe()

	assert.Equal(t, []int{1, 2}, a)
	assert.Equal(t, []int{1, 2, 3}, b)
	assert.Equal(t, 0, s.Listeners())
}

func TestSame(t *testing.T) {
	m := map[string]int{"a": 1}
	sl := []int{1, 2}

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"equal strings", "x", "x", true},
		{"different ints", 1, 2, false},
		{"same map", m, m, true},
		{"equal but distinct maps", map[string]int{"a": 1}, map[string]int{"a": 1}, false},
		{"same slice", sl, sl, true},
		{"slice prefix", sl[:1], sl, false},
		{"nil values", nil, nil, true},
		{"nil and value", nil, 1, false},
		{"different types", 1, int64(1), false},
		{"structs sharing a map", struct{ M map[string]int }{m}, struct{ M map[string]int }{m}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Same(tt.a, tt.b))
		})
	}
}
