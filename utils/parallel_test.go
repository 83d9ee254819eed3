package utils

import (
	"image"
	"sync/atomic"
	"testing"

	"go.viam.com/test"
)

func TestParallelForEachPixel(t *testing.T) {
	for _, size := range []image.Point{{0, 0}, {1, 1}, {3, 2}, {17, 5}, {64, 48}} {
		visits := make([]int32, size.X*size.Y)
		var total atomic.Int32
		ParallelForEachPixel(size, func(x, y int) {
			atomic.AddInt32(&visits[y*size.X+x], 1)
			total.Add(1)
		})
		test.That(t, int(total.Load()), test.ShouldEqual, size.X*size.Y)
		for _, v := range visits {
			test.That(t, v, test.ShouldEqual, 1)
		}
	}
}
