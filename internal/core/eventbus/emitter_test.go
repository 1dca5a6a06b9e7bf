package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitter_FireAndUnsubscribe(t *testing.T) {
	var e Emitter[int]
	var got []int

	unsubscribe := e.Subscribe(func(v int) { got = append(got, v) })
	e.Subscribe(func(v int) { got = append(got, v*10) })

	e.Fire(1)
	assert.Equal(t, []int{1, 10}, got)

	unsubscribe()
	e.Fire(2)
	assert.Equal(t, []int{1, 10, 20}, got)
	assert.Equal(t, 1, e.Len())
}

func TestDisposer_RunsInReverseOrder(t *testing.T) {
	var d Disposer
	var order []string

	d.Add(func() { order = append(order, "first") })
	d.Add(nil)
	d.Add(func() { order = append(order, "second") })
	assert.Equal(t, 2, d.Len())

	d.Dispose()
	assert.Equal(t, []string{"second", "first"}, order)
	assert.Equal(t, 0, d.Len())

	d.Dispose()
	assert.Len(t, order, 2)
}
