package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTimeStamp = errors.New("时间格式错误")
	ErrInvalidInterval  = errors.New("时间段的开始时间必须早于结束时间")
	ErrInvalidDay       = errors.New("星期必须在 1 到 7 之间")
	ErrInvalidParity    = errors.New("未知的单双周类型")
)

// Day 星期，周一为 1，周日为 7
type Day int32

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

func (d Day) Valid() bool {
	return d >= Monday && d <= Sunday
}

// Parity 单双周
type Parity uint8

const (
	ParityBoth Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return "both"
	}
}

func (p Parity) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Parity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "both":
		*p = ParityBoth
	case "even":
		*p = ParityEven
	case "odd":
		*p = ParityOdd
	default:
		return fmt.Errorf("%w: %q", ErrInvalidParity, string(text))
	}
	return nil
}

// Compatible 判断两个单双周类型是否会在同一周出现
func (p Parity) Compatible(other Parity) bool {
	return p == other || p == ParityBoth || other == ParityBoth
}

// TimeStamp 一天中的某个时刻
type TimeStamp struct {
	Hour   uint8
	Minute uint8
}

func NewTimeStamp(hour, minute int) (TimeStamp, error) {
	if hour < 0 || hour >= 24 || minute < 0 || minute >= 60 {
		return TimeStamp{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeStamp, hour, minute)
	}
	return TimeStamp{Hour: uint8(hour), Minute: uint8(minute)}, nil
}

// Minutes 返回从零点开始经过的分钟数
func (t TimeStamp) Minutes() int {
	return int(t.Hour)*60 + int(t.Minute)
}

func (t TimeStamp) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeStamp) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeStamp) UnmarshalText(text []byte) error {
	var hour, minute int
	if _, err := fmt.Sscanf(string(text), "%d:%d", &hour, &minute); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimeStamp, string(text))
	}

	ts, err := NewTimeStamp(hour, minute)
	if err != nil {
		return err
	}
	*t = ts
	return nil
}

// TimeInterval 一周中某天的一个时间段
type TimeInterval struct {
	Day    Day       `json:"day"`
	Start  TimeStamp `json:"start"`
	End    TimeStamp `json:"end"`
	Parity Parity    `json:"parity"`
}

func NewTimeInterval(day Day, start, end TimeStamp, parity Parity) (TimeInterval, error) {
	ti := TimeInterval{Day: day, Start: start, End: end, Parity: parity}
	if err := ti.Validate(); err != nil {
		return TimeInterval{}, err
	}
	return ti, nil
}

func (ti TimeInterval) Validate() error {
	if !ti.Day.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidDay, ti.Day)
	}
	if ti.Start.Hour >= 24 || ti.Start.Minute >= 60 || ti.End.Hour >= 24 || ti.End.Minute >= 60 {
		return ErrInvalidTimeStamp
	}
	if ti.Start.Minutes() >= ti.End.Minutes() {
		return fmt.Errorf("%w: %s - %s", ErrInvalidInterval, ti.Start, ti.End)
	}
	if ti.Parity > ParityOdd {
		return ErrInvalidParity
	}
	return nil
}

// Less 按 (星期, 开始时间, 结束时间) 排序
func (ti TimeInterval) Less(other TimeInterval) bool {
	if ti.Day != other.Day {
		return ti.Day < other.Day
	}
	if ti.Start != other.Start {
		return ti.Start.Minutes() < other.Start.Minutes()
	}
	return ti.End.Minutes() < other.End.Minutes()
}

// Compare 用于 slices.SortFunc
func (ti TimeInterval) Compare(other TimeInterval) int {
	switch {
	case ti.Less(other):
		return -1
	case other.Less(ti):
		return 1
	default:
		return 0
	}
}

// Length 时间段长度（分钟）
func (ti TimeInterval) Length() int {
	return ti.End.Minutes() - ti.Start.Minutes()
}
