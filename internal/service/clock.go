package service

import "time"

// Clock 抽象"现在"，让引擎不直接读系统时钟，测试中可以冻结日期。
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock 返回基于系统时间的 Clock。
func SystemClock() Clock {
	return systemClock{}
}
