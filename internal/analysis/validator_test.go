package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeIntervals(n int, value float64) []float64 {
	intervals := make([]float64, n)
	for i := range intervals {
		intervals[i] = value
	}
	return intervals
}

func TestValidateWindow_Accepts(t *testing.T) {
	rr := makeIntervals(60, 800)

	valid, err := ValidateWindow(rr, 48.0)
	assert.NoError(t, err)
	assert.Len(t, valid, 60)
}

func TestValidateWindow_TooFewIntervals(t *testing.T) {
	rr := makeIntervals(39, 800)

	_, err := ValidateWindow(rr, 31.2)
	assert.ErrorIs(t, err, ErrTooFewIntervals)
}

func TestValidateWindow_TooManyIntervals(t *testing.T) {
	rr := makeIntervals(201, 500)

	_, err := ValidateWindow(rr, 100.0)
	assert.ErrorIs(t, err, ErrTooManyIntervals)
}

func TestValidateWindow_FiltersOutOfRange(t *testing.T) {
	rr := makeIntervals(50, 800)
	// 混入少量伪差（artifact）采样，应被剔除而不是整窗拒绝
	rr[3] = 150   // 太短
	rr[17] = 2500 // 太长
	rr[40] = 50

	valid, err := ValidateWindow(rr, 40.0)
	assert.NoError(t, err)
	assert.Len(t, valid, 47)
	for _, v := range valid {
		assert.Equal(t, 800.0, v)
	}
}

func TestValidateWindow_TooManyInvalid(t *testing.T) {
	rr := makeIntervals(80, 800)
	for i := 0; i < 41; i++ {
		rr[i] = 100 // 超过一半出界
	}

	_, err := ValidateWindow(rr, 60.0)
	assert.ErrorIs(t, err, ErrTooManyInvalid)
}

func TestValidateWindow_FilteredBelowMinimum(t *testing.T) {
	// 45 条里 10 条出界：比例未超标，但剩余 35 条不足最小长度
	rr := makeIntervals(45, 800)
	for i := 0; i < 10; i++ {
		rr[i] = 100
	}

	_, err := ValidateWindow(rr, 36.0)
	assert.ErrorIs(t, err, ErrTooFewIntervals)
}

func TestValidateWindow_WindowTooShort(t *testing.T) {
	rr := makeIntervals(60, 400)

	_, err := ValidateWindow(rr, 24.0)
	assert.ErrorIs(t, err, ErrWindowTooShort)
}

func TestValidateWindow_WindowTooLong(t *testing.T) {
	rr := makeIntervals(150, 900)

	_, err := ValidateWindow(rr, 135.0)
	assert.ErrorIs(t, err, ErrWindowTooLong)
}

func TestValidateWindow_BoundaryLengths(t *testing.T) {
	valid, err := ValidateWindow(makeIntervals(MinRRCount, 750), 30.0)
	assert.NoError(t, err)
	assert.Len(t, valid, MinRRCount)

	valid, err = ValidateWindow(makeIntervals(MaxRRCount, 600), 120.0)
	assert.NoError(t, err)
	assert.Len(t, valid, MaxRRCount)
}
