package scheduler

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

// RandomGenome 为每个安排随机选择一个可选项
func RandomGenome(schedules []domain.Schedule, rng *rand.Rand) Genome {
	genome := make(Genome, len(schedules))
	for i, schedule := range schedules {
		genome[i] = uint32(rng.IntN(len(schedule.Entries)))
	}
	return genome
}

// DecodeGenome 将基因组还原为每个安排选中的 Entry，顺序与 schedules 一致
func DecodeGenome(genome Genome, schedules []domain.Schedule) ([]domain.Selection, error) {
	if len(genome) != len(schedules) {
		return nil, fmt.Errorf("%w: 基因组长度 %d，安排数量 %d", ErrLengthMismatch, len(genome), len(schedules))
	}

	selections := make([]domain.Selection, len(genome))
	for i, gene := range genome {
		schedule := schedules[i]
		if int(gene) >= len(schedule.Entries) {
			return nil, fmt.Errorf("%w: 安排 %s/%s 的基因 %d", ErrGeneOutOfRange, schedule.Course, schedule.Name, gene)
		}

		selections[i] = domain.Selection{
			ScheduleID: schedule.ID,
			Course:     schedule.Course,
			Schedule:   schedule.Name,
			Entry:      schedule.Entries[gene],
		}
	}

	return selections, nil
}

// mutate 以一定概率将随机一个基因替换为对应安排中随机的可选项
func (s *Scheduler) mutate(genome Genome) bool {
	if s.rng.IntN(s.mutationOneIn) != 0 {
		return false
	}

	index := s.rng.IntN(len(genome))
	genome[index] = uint32(s.rng.IntN(len(s.schedules[index].Entries)))
	return true
}

// resolve 取出基因组选中的所有时间段并排序
func (s *Scheduler) resolve(genome Genome) resolvedGenome {
	r := resolvedGenome{
		intervals: make([]intervalEntry, 0, len(genome)*2),
	}

	for i, gene := range genome {
		schedule := &s.schedules[i]
		entry := &schedule.Entries[gene]

		if !schedule.Ignored {
			r.bonuses += entry.Bonus
		}
		for _, interval := range entry.Timeslots {
			r.intervals = append(r.intervals, intervalEntry{
				interval: interval,
				ignored:  schedule.Ignored,
			})
		}
	}

	slices.SortStableFunc(r.intervals, func(a, b intervalEntry) int {
		return a.interval.Compare(b.interval)
	})

	return r
}

// score 计算基因组的原始评分
func (s *Scheduler) score(genome Genome) Scores {
	return calculateScores(s.kinds, s.resolve(genome), s.priorities)
}

// scoreAll 计算所有基因组的评分，Parallelism 大于 1 时分块并行计算
func (s *Scheduler) scoreAll(pool []Genome) []scoredGenome {
	scored := make([]scoredGenome, len(pool))

	workers := min(s.parameters.Parallelism, len(pool))
	if workers <= 1 {
		for i, genome := range pool {
			scored[i] = scoredGenome{genome: genome, scores: s.score(genome)}
		}
		return scored
	}

	chunkSize := (len(pool) + workers - 1) / workers
	var g errgroup.Group
	for start := 0; start < len(pool); start += chunkSize {
		end := min(start+chunkSize, len(pool))
		g.Go(func() error {
			for i := start; i < end; i++ {
				scored[i] = scoredGenome{genome: pool[i], scores: s.score(pool[i])}
			}
			return nil
		})
	}
	// 必须等所有基因组都评分完毕后才能统计最小值和最大值
	_ = g.Wait()

	return scored
}

// selection 计算评分和适应度，按适应度从大到小排序后保留前 size 个
func (s *Scheduler) selection(pool []Genome, size int) []scoredGenome {
	scored := s.scoreAll(pool)
	if len(scored) == 0 {
		return scored
	}

	bounds := newScoreBounds(scored[0].scores)
	for _, sg := range scored[1:] {
		bounds.observe(sg.scores)
	}

	for i := range scored {
		fitness, err := scored[i].scores.Fitness(bounds.min, bounds.max)
		if err != nil {
			// 评分一定落在本代的最小值和最大值之间，出错说明统计逻辑有问题
			panic(fmt.Sprintf("无法计算适应度: %v", err))
		}
		scored[i].fitness = fitness
	}

	slices.SortStableFunc(scored, func(a, b scoredGenome) int {
		switch {
		case a.fitness > b.fitness:
			return -1
		case a.fitness < b.fitness:
			return 1
		default:
			return 0
		}
	})

	return scored[:min(size, len(scored))]
}
