package coro

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestFlow(t *testing.T) {
	defer goleak.VerifyNone(t)

	var log []string
	cr := New(func(v string, yield func(int) string) int {
		log = append(log, "enter "+v)
		for i := 1; i < 4; i++ {
			v = yield(i)
			log = append(log, fmt.Sprint("resumed ", i, " with ", v))
		}
		return 4
	})
	defer cr.Stop()

	var received []int
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		v, ok := cr.Resume(s)
		if !ok {
			break
		}
		received = append(received, v)
	}

	assert.Equal(t, []int{1, 2, 3, 4}, received)
	assert.Equal(t, []string{
		"enter a",
		"resumed 1 with b",
		"resumed 2 with c",
		"resumed 3 with d",
	}, log)
	assert.True(t, cr.Done())
}

func TestStop(t *testing.T) {
	t.Run("Suspended", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		cleaned := false
		cr := New(func(_ int, yield func(int) int) int {
			defer func() {
				cleaned = true
				// Goexit unwinding is not a panic
				assert.Nil(t, recover())
			}()
			for {
				yield(1)
			}
		})

		v, ok := cr.Resume(0)
		assert.True(t, ok)
		assert.Equal(t, 1, v)

		cr.Stop()
		assert.True(t, cleaned)
		assert.True(t, cr.Done())

		_, ok = cr.Resume(0)
		assert.False(t, ok)
	})

	t.Run("NeverStarted", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		ran := false
		cr := New(func(_ int, _ func(int) int) int {
			ran = true
			return 0
		})
		cr.Stop()
		cr.Stop()
		assert.False(t, ran)
	})

	t.Run("AfterCompletion", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		cr := New(func(in int, _ func(int) int) int { return in * 2 })
		v, ok := cr.Resume(21)
		assert.True(t, ok)
		assert.Equal(t, 42, v)
		assert.NotPanics(t, cr.Stop)
	})
}

func TestPanicPropagation(t *testing.T) {
	tt := []struct {
		name string
		fn   func(cr *C[any, int])
	}{
		{"Resume", func(cr *C[any, int]) {
			cr.Resume(nil)
		}},
		{"Stop", func(cr *C[any, int]) {
			cr.Stop()
		}},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			cr := New(func(_ any, yield func(int) any) int {
				defer func() {
					panic("yikes!")
				}()
				yield(13)
				return 0
			})

			var (
				yielded int
				ok      bool
			)
			assert.NotPanics(t, func() {
				yielded, ok = cr.Resume(nil)
			})
			assert.True(t, ok)
			assert.Equal(t, 13, yielded)

			assert.PanicsWithValue(t, "yikes!", func() {
				tc.fn(cr)
			})
			assert.True(t, cr.Done())
		})
	}
}
