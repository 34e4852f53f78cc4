package scheduler

import (
	"fmt"

	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
)

// ScoreKind 评分项
type ScoreKind int

const (
	ScoreCollisions ScoreKind = iota
	ScoreCoherentInDay
	ScoreCoherentInWeek
	ScoreManyConsecutiveHours
	ScoreWrongStartTimes
	ScoreBonuses
)

// 开始时间不在偏好范围内时的固定惩罚
const wrongStartTimePenalty = 60

// 归一化后的评分范围为 [0, maxScaledScore]
const maxScaledScore = 10.0

func (k ScoreKind) String() string {
	switch k {
	case ScoreCollisions:
		return "collisions"
	case ScoreCoherentInDay:
		return "coherentInDay"
	case ScoreCoherentInWeek:
		return "coherentInWeek"
	case ScoreManyConsecutiveHours:
		return "manyConsecutiveHours"
	case ScoreWrongStartTimes:
		return "wrongStartTimes"
	case ScoreBonuses:
		return "bonuses"
	default:
		return fmt.Sprintf("ScoreKind(%d)", int(k))
	}
}

func (k ScoreKind) Weight() float64 {
	switch k {
	case ScoreCollisions:
		return 0.6
	case ScoreCoherentInDay, ScoreCoherentInWeek, ScoreBonuses:
		return 0.2
	case ScoreManyConsecutiveHours:
		return 0.07
	case ScoreWrongStartTimes:
		return 0.13
	default:
		return 0
	}
}

// Normalized 加分项直接按原值计入适应度，其余评分项都按本代的最小值和最大值反向映射到 [0, 10]
func (k ScoreKind) Normalized() bool {
	return k != ScoreBonuses
}

// ActiveScoreKinds 根据偏好设置返回参与计算适应度的评分项
func ActiveScoreKinds(p domain.Priorities) []ScoreKind {
	kinds := []ScoreKind{ScoreCollisions, ScoreBonuses}

	if p.KeepCoherentInDay {
		kinds = append(kinds, ScoreCoherentInDay)
	}
	if p.KeepCoherentInWeek {
		kinds = append(kinds, ScoreCoherentInWeek)
	}
	if p.PenaliseBeforeHour != 0 || p.PenaliseAfterHour != 0 {
		kinds = append(kinds, ScoreWrongStartTimes)
	}
	if p.PenaliseManyConsecutiveHours != 0 {
		kinds = append(kinds, ScoreManyConsecutiveHours)
	}

	return kinds
}

type Score struct {
	Kind  ScoreKind
	Value float64
}

// Scores 一个基因组在所有启用的评分项上的原始评分，顺序与 ActiveScoreKinds 一致
type Scores []Score

func (s Scores) Value(kind ScoreKind) (float64, bool) {
	for _, score := range s {
		if score.Kind == kind {
			return score.Value, true
		}
	}
	return 0, false
}

func (s Scores) Map() map[string]float64 {
	m := make(map[string]float64, len(s))
	for _, score := range s {
		m[score.Kind.String()] = score.Value
	}
	return m
}

// Fitness 按本代的最小值和最大值计算适应度，越大越好
func (s Scores) Fitness(minValues, maxValues Scores) (float64, error) {
	if len(s) != len(minValues) || len(s) != len(maxValues) {
		return 0, ErrScoreMismatch
	}

	fitness := 0.0
	for i, score := range s {
		if minValues[i].Kind != score.Kind || maxValues[i].Kind != score.Kind {
			return 0, fmt.Errorf("%w: %s", ErrScoreMismatch, score.Kind)
		}

		if !score.Kind.Normalized() {
			fitness += score.Kind.Weight() * score.Value
			continue
		}

		scaled, err := inverseScale(score.Value, minValues[i].Value, maxValues[i].Value)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", score.Kind, err)
		}
		fitness += score.Kind.Weight() * scaled
	}

	return fitness, nil
}

// inverseScale 将 [min, max] 反向线性映射到 [0, 10]，最大值映射为 0，最小值映射为 10
func inverseScale(value, min, max float64) (float64, error) {
	if value < min || value > max {
		return 0, fmt.Errorf("%w: %v 不在 [%v, %v] 中", ErrOutOfRange, value, min, max)
	}

	if min == max {
		return maxScaledScore, nil
	}

	return (max - value) * maxScaledScore / (max - min), nil
}

// scoreBounds 记录一代中每个评分项的最小值和最大值
type scoreBounds struct {
	min Scores
	max Scores
}

func newScoreBounds(first Scores) scoreBounds {
	return scoreBounds{
		min: append(Scores(nil), first...),
		max: append(Scores(nil), first...),
	}
}

func (b *scoreBounds) observe(s Scores) {
	for i, score := range s {
		b.min[i].Value = min(b.min[i].Value, score.Value)
		b.max[i].Value = max(b.max[i].Value, score.Value)
	}
}

// intervalEntry 选中的 Entry 的一个时间段
type intervalEntry struct {
	interval domain.TimeInterval
	ignored  bool
}

// resolvedGenome 由基因组解析出的时间段（按开始时间排序）和加分总和
type resolvedGenome struct {
	intervals []intervalEntry
	bonuses   float64
}

// calculateScores 计算所有启用的评分项
func calculateScores(kinds []ScoreKind, r resolvedGenome, p domain.Priorities) Scores {
	scores := make(Scores, len(kinds))
	for i, kind := range kinds {
		scores[i].Kind = kind

		switch kind {
		case ScoreCollisions:
			scores[i].Value = collisionsScore(r.intervals)
		case ScoreCoherentInDay:
			scores[i].Value = coherentInDayScore(r.intervals, p)
		case ScoreCoherentInWeek:
			scores[i].Value = coherentInWeekScore(r.intervals)
		case ScoreManyConsecutiveHours:
			scores[i].Value = manyConsecutiveHoursScore(r.intervals, p)
		case ScoreWrongStartTimes:
			scores[i].Value = wrongStartTimesScore(r.intervals, p)
		case ScoreBonuses:
			scores[i].Value = r.bonuses
		}
	}
	return scores
}

// collisionsScore 同一天内有重叠且单双周相容的时间段对数
func collisionsScore(intervals []intervalEntry) float64 {
	value := 0.0

	for i, current := range intervals {
		if current.ignored {
			continue
		}

		for j := i + 1; j < len(intervals); j++ {
			other := intervals[j]
			if other.interval.Day != current.interval.Day || other.interval.Start.Minutes() >= current.interval.End.Minutes() {
				break
			}
			if other.ignored {
				continue
			}

			if current.interval.Parity.Compatible(other.interval.Parity) {
				value++
			}
		}
	}

	return value
}

// coherentInDayScore 同一天内相邻时间段之间的空档不小于 MinutesToBeConsecutive 的个数
func coherentInDayScore(intervals []intervalEntry, p domain.Priorities) float64 {
	value := 0.0

	for i, current := range intervals {
		if current.ignored {
			continue
		}

		for j := i + 1; j < len(intervals); j++ {
			next := intervals[j]
			if next.interval.Day != current.interval.Day {
				break
			}
			if next.ignored {
				continue
			}

			// 重叠的时间段之间没有空档
			if next.interval.Start.Minutes() < current.interval.End.Minutes() {
				break
			}

			gap := next.interval.Start.Minutes() - current.interval.End.Minutes()
			if gap >= int(p.MinutesToBeConsecutive) {
				value++
			}
			break
		}
	}

	return value
}

// coherentInWeekScore 第一个和最后一个时间段之间相隔的天数
func coherentInWeekScore(intervals []intervalEntry) float64 {
	first, last := -1, -1
	for i, current := range intervals {
		if current.ignored {
			continue
		}
		if first == -1 {
			first = i
		}
		last = i
	}

	if first == -1 {
		return 0
	}

	return float64(intervals[last].interval.Day - intervals[first].interval.Day)
}

// manyConsecutiveHoursScore 每段连续上课时间超出 PenaliseManyConsecutiveHours 小时的分钟数之和
func manyConsecutiveHoursScore(intervals []intervalEntry, p domain.Priorities) float64 {
	limit := int(p.PenaliseManyConsecutiveHours) * 60
	value := 0.0

	overLimit := func(run domain.TimeInterval) {
		if length := run.Length(); length > limit {
			value += float64(length - limit)
		}
	}

	var run domain.TimeInterval
	started := false
	for _, current := range intervals {
		if current.ignored {
			continue
		}

		if !started {
			run = current.interval
			started = true
			continue
		}

		gap := current.interval.Start.Minutes() - run.End.Minutes()
		if current.interval.Day != run.Day || gap >= int(p.MinutesToBeConsecutive) {
			overLimit(run)
			run = current.interval
			continue
		}

		// 与当前连续段相接或重叠，延长连续段
		if current.interval.End.Minutes() > run.End.Minutes() {
			run.End = current.interval.End
		}
	}

	if started {
		overLimit(run)
	}

	return value
}

// wrongStartTimesScore 开始时间不晚于 PenaliseBeforeHour 或不早于 PenaliseAfterHour 的惩罚
func wrongStartTimesScore(intervals []intervalEntry, p domain.Priorities) float64 {
	before := int(p.PenaliseBeforeHour) * 60
	after := int(p.PenaliseAfterHour) * 60
	value := 0.0

	for _, current := range intervals {
		if current.ignored {
			continue
		}

		start := current.interval.Start.Minutes()
		if p.PenaliseBeforeHour != 0 && start <= before {
			value += float64(wrongStartTimePenalty + before - start)
		}
		if p.PenaliseAfterHour != 0 && start >= after {
			value += float64(wrongStartTimePenalty + start - after)
		}
	}

	return value
}
