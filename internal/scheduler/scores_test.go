package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
)

func TestInverseScale(t *testing.T) {
	v, err := inverseScale(2, 2, 6)
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)

	v, err = inverseScale(6, 2, 6)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = inverseScale(3, 2, 6)
	require.NoError(t, err)
	assert.InDelta(t, 7.5, v, 1e-9)

	// 没有区分度时所有值都映射为 10
	v, err = inverseScale(4, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)

	_, err = inverseScale(1, 2, 6)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = inverseScale(7, 2, 6)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestActiveScoreKinds(t *testing.T) {
	assert.Equal(t, []ScoreKind{ScoreCollisions, ScoreBonuses}, ActiveScoreKinds(domain.Priorities{}))

	kinds := ActiveScoreKinds(domain.Priorities{
		KeepCoherentInDay:            true,
		KeepCoherentInWeek:           true,
		PenaliseAfterHour:            18,
		PenaliseManyConsecutiveHours: 4,
	})
	assert.Equal(t, []ScoreKind{
		ScoreCollisions,
		ScoreBonuses,
		ScoreCoherentInDay,
		ScoreCoherentInWeek,
		ScoreWrongStartTimes,
		ScoreManyConsecutiveHours,
	}, kinds)

	assert.Contains(t, ActiveScoreKinds(domain.Priorities{PenaliseBeforeHour: 8}), ScoreWrongStartTimes)
}

func TestScoreKind_Weights(t *testing.T) {
	assert.Equal(t, 0.6, ScoreCollisions.Weight())
	assert.Equal(t, 0.2, ScoreCoherentInDay.Weight())
	assert.Equal(t, 0.2, ScoreCoherentInWeek.Weight())
	assert.Equal(t, 0.07, ScoreManyConsecutiveHours.Weight())
	assert.Equal(t, 0.13, ScoreWrongStartTimes.Weight())
	assert.Equal(t, 0.2, ScoreBonuses.Weight())
	assert.False(t, ScoreBonuses.Normalized())
	assert.True(t, ScoreCollisions.Normalized())
}

func TestCollisionsScore(t *testing.T) {
	intervals := sorted(
		active(iv(t, domain.Monday, "09:00", "10:30", domain.ParityBoth)),
		active(iv(t, domain.Monday, "10:00", "11:00", domain.ParityOdd)),
		active(iv(t, domain.Monday, "10:15", "11:00", domain.ParityEven)),
		active(iv(t, domain.Monday, "11:00", "12:00", domain.ParityBoth)),
		active(iv(t, domain.Tuesday, "09:00", "10:00", domain.ParityBoth)),
	)

	// 09:00 与 10:00、10:15 冲突；10:00(单周) 与 10:15(双周) 不冲突；11:00 恰好相接不算冲突
	assert.Equal(t, 2.0, collisionsScore(intervals))
}

func TestCollisionsScore_MonotoneWhenAddingOverlap(t *testing.T) {
	base := sorted(
		active(iv(t, domain.Monday, "09:00", "10:00", domain.ParityBoth)),
		active(iv(t, domain.Monday, "09:30", "11:00", domain.ParityOdd)),
		active(iv(t, domain.Friday, "13:00", "14:00", domain.ParityEven)),
	)
	before := collisionsScore(base)

	extended := sorted(
		base[0],
		active(iv(t, domain.Monday, "09:15", "09:45", domain.ParityOdd)),
		base[1],
		base[2],
	)
	assert.GreaterOrEqual(t, collisionsScore(extended), before+1)
}

func TestCollisionsScore_SkipsIgnored(t *testing.T) {
	intervals := sorted(
		active(iv(t, domain.Monday, "09:00", "10:30", domain.ParityBoth)),
		ignored(iv(t, domain.Monday, "09:00", "12:00", domain.ParityBoth)),
		active(iv(t, domain.Monday, "10:00", "11:00", domain.ParityBoth)),
	)
	assert.Equal(t, 1.0, collisionsScore(intervals))
}

func TestCoherentInDayScore(t *testing.T) {
	p := domain.Priorities{MinutesToBeConsecutive: 30}
	intervals := sorted(
		active(iv(t, domain.Monday, "09:00", "10:00", domain.ParityBoth)),
		active(iv(t, domain.Monday, "10:15", "11:00", domain.ParityBoth)),
		ignored(iv(t, domain.Monday, "11:00", "11:45", domain.ParityBoth)),
		active(iv(t, domain.Monday, "12:00", "13:00", domain.ParityBoth)),
		active(iv(t, domain.Tuesday, "09:00", "10:00", domain.ParityBoth)),
		active(iv(t, domain.Tuesday, "10:30", "11:00", domain.ParityBoth)),
	)

	// 11:00 -> 12:00 和 10:00 -> 10:30 的空档都不小于 30 分钟
	assert.Equal(t, 2.0, coherentInDayScore(intervals, p))
}

func TestCoherentInWeekScore(t *testing.T) {
	intervals := sorted(
		ignored(iv(t, domain.Monday, "09:00", "10:00", domain.ParityBoth)),
		active(iv(t, domain.Tuesday, "09:00", "10:00", domain.ParityBoth)),
		active(iv(t, domain.Thursday, "09:00", "10:00", domain.ParityBoth)),
		ignored(iv(t, domain.Sunday, "09:00", "10:00", domain.ParityBoth)),
	)
	assert.Equal(t, 2.0, coherentInWeekScore(intervals))

	assert.Equal(t, 0.0, coherentInWeekScore(sorted(
		ignored(iv(t, domain.Monday, "09:00", "10:00", domain.ParityBoth)),
	)))
	assert.Equal(t, 0.0, coherentInWeekScore(nil))
}

func TestManyConsecutiveHoursScore(t *testing.T) {
	p := domain.Priorities{PenaliseManyConsecutiveHours: 2, MinutesToBeConsecutive: 30}
	intervals := sorted(
		active(iv(t, domain.Monday, "08:00", "10:00", domain.ParityBoth)),
		active(iv(t, domain.Monday, "10:10", "11:30", domain.ParityBoth)),
		active(iv(t, domain.Monday, "13:00", "14:00", domain.ParityBoth)),
		active(iv(t, domain.Tuesday, "08:00", "11:00", domain.ParityBoth)),
	)

	// 周一 08:00-11:30 超出 90 分钟，周二 08:00-11:00 超出 60 分钟
	assert.Equal(t, 150.0, manyConsecutiveHoursScore(intervals, p))
}

func TestManyConsecutiveHoursScore_IgnoredDoesNotJoinRuns(t *testing.T) {
	p := domain.Priorities{PenaliseManyConsecutiveHours: 2, MinutesToBeConsecutive: 30}
	intervals := sorted(
		ignored(iv(t, domain.Monday, "07:00", "09:00", domain.ParityBoth)),
		active(iv(t, domain.Monday, "09:00", "10:00", domain.ParityBoth)),
		ignored(iv(t, domain.Monday, "10:00", "11:00", domain.ParityBoth)),
		active(iv(t, domain.Monday, "11:00", "12:00", domain.ParityBoth)),
	)

	// 忽略的时间段不存在，两个一小时的时间段之间有 60 分钟空档
	assert.Equal(t, 0.0, manyConsecutiveHoursScore(intervals, p))
}

func TestWrongStartTimesScore(t *testing.T) {
	p := domain.Priorities{PenaliseBeforeHour: 8, PenaliseAfterHour: 18}
	intervals := sorted(
		active(iv(t, domain.Monday, "07:30", "09:00", domain.ParityBoth)),
		active(iv(t, domain.Monday, "08:00", "09:00", domain.ParityBoth)),
		active(iv(t, domain.Monday, "12:00", "13:00", domain.ParityBoth)),
		active(iv(t, domain.Monday, "18:15", "19:00", domain.ParityBoth)),
		ignored(iv(t, domain.Monday, "06:00", "07:00", domain.ParityBoth)),
	)

	// 60+30, 60+0, 60+15
	assert.Equal(t, 225.0, wrongStartTimesScore(intervals, p))

	onlyAfter := domain.Priorities{PenaliseAfterHour: 18}
	assert.Equal(t, 75.0, wrongStartTimesScore(intervals, onlyAfter))
}

func TestScores_Fitness(t *testing.T) {
	scores := Scores{{ScoreCollisions, 2}, {ScoreBonuses, 5}}
	minValues := Scores{{ScoreCollisions, 0}, {ScoreBonuses, -3}}
	maxValues := Scores{{ScoreCollisions, 4}, {ScoreBonuses, 7}}

	fitness, err := scores.Fitness(minValues, maxValues)
	require.NoError(t, err)
	// 0.6 * 5 + 0.2 * 5，加分项不做归一化
	assert.InDelta(t, 4.0, fitness, 1e-9)
}

func TestScores_FitnessErrors(t *testing.T) {
	scores := Scores{{ScoreCollisions, 5}}

	_, err := scores.Fitness(Scores{{ScoreCollisions, 0}}, Scores{{ScoreCollisions, 4}})
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = scores.Fitness(Scores{{ScoreBonuses, 0}}, Scores{{ScoreBonuses, 9}})
	assert.ErrorIs(t, err, ErrScoreMismatch)

	_, err = scores.Fitness(nil, nil)
	assert.ErrorIs(t, err, ErrScoreMismatch)
}

func TestScoreBounds(t *testing.T) {
	bounds := newScoreBounds(Scores{{ScoreCollisions, 3}, {ScoreBonuses, 1}})
	bounds.observe(Scores{{ScoreCollisions, 1}, {ScoreBonuses, 4}})
	bounds.observe(Scores{{ScoreCollisions, 5}, {ScoreBonuses, -2}})

	assert.Equal(t, Scores{{ScoreCollisions, 1}, {ScoreBonuses, -2}}, bounds.min)
	assert.Equal(t, Scores{{ScoreCollisions, 5}, {ScoreBonuses, 4}}, bounds.max)
}

func TestScores_Map(t *testing.T) {
	m := Scores{{ScoreCollisions, 1}, {ScoreWrongStartTimes, 60}}.Map()
	assert.Equal(t, map[string]float64{"collisions": 1, "wrongStartTimes": 60}, m)
}
