package analysis

import (
	"errors"
	"fmt"
)

// RR 窗口准入规则，与推理服务侧的校验保持一致：
// 不满足的窗口在本地直接拒绝，不发起远程调用
const (
	MinRRCount = 40
	MaxRRCount = 200

	// 生理合理区间，对应心率 30~300 bpm
	MinRRValueMS = 200.0
	MaxRRValueMS = 2000.0

	// 区间外的采样超过一半时整窗拒绝
	MaxInvalidFraction = 0.5

	MinWindowSeconds = 30.0
	MaxWindowSeconds = 120.0
)

var (
	ErrTooFewIntervals  = errors.New("too few RR intervals")
	ErrTooManyIntervals = errors.New("too many RR intervals")
	ErrTooManyInvalid   = errors.New("too many out-of-range RR intervals")
	ErrWindowTooShort   = errors.New("analysis window too short")
	ErrWindowTooLong    = errors.New("analysis window too long")
)

// ValidateWindow 校验一个 RR 窗口并过滤掉区间外的采样
// 返回过滤后的序列；任何一条规则不满足都返回可用 errors.Is 判别的错误
func ValidateWindow(rrIntervals []float64, windowSeconds float64) ([]float64, error) {
	if len(rrIntervals) < MinRRCount {
		return nil, fmt.Errorf("%w: got %d, need at least %d", ErrTooFewIntervals, len(rrIntervals), MinRRCount)
	}
	if len(rrIntervals) > MaxRRCount {
		return nil, fmt.Errorf("%w: got %d, limit is %d", ErrTooManyIntervals, len(rrIntervals), MaxRRCount)
	}

	valid := make([]float64, 0, len(rrIntervals))
	for _, v := range rrIntervals {
		if v >= MinRRValueMS && v <= MaxRRValueMS {
			valid = append(valid, v)
		}
	}

	invalidCount := len(rrIntervals) - len(valid)
	if float64(invalidCount) > MaxInvalidFraction*float64(len(rrIntervals)) {
		return nil, fmt.Errorf("%w: %d of %d outside [%.0f, %.0f] ms",
			ErrTooManyInvalid, invalidCount, len(rrIntervals), MinRRValueMS, MaxRRValueMS)
	}

	// 过滤之后仍须满足最小长度
	if len(valid) < MinRRCount {
		return nil, fmt.Errorf("%w: only %d intervals left after filtering", ErrTooFewIntervals, len(valid))
	}

	if windowSeconds < MinWindowSeconds {
		return nil, fmt.Errorf("%w: %.1fs, need at least %.0fs", ErrWindowTooShort, windowSeconds, MinWindowSeconds)
	}
	if windowSeconds > MaxWindowSeconds {
		return nil, fmt.Errorf("%w: %.1fs, limit is %.0fs", ErrWindowTooLong, windowSeconds, MaxWindowSeconds)
	}

	return valid, nil
}
