package scheduler

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
)

type Scheduler struct {
	parameters    Parameters
	priorities    domain.Priorities
	kinds         []ScoreKind
	schedules     []domain.Schedule // 第 i 个基因对应第 i 个安排
	crossovers    []Crossover
	mutationOneIn int
	rng           *rand.Rand
	progress      func(GenerationStats)
}

// NewRand 创建随机数生成器，seed 为 0 时使用随机种子
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

func New(parameters Parameters, semester *domain.Semester, priorities domain.Priorities, rng *rand.Rand) (*Scheduler, error) {
	if err := parameters.validate(); err != nil {
		return nil, err
	}
	if len(semester.Schedules) == 0 {
		return nil, ErrEmptySemester
	}
	for _, schedule := range semester.Schedules {
		if len(schedule.Entries) == 0 {
			return nil, fmt.Errorf("%w: %s/%s", ErrEmptySchedule, schedule.Course, schedule.Name)
		}
	}

	if rng == nil {
		rng = NewRand(0)
	}

	mutationOneIn := parameters.MutationOneIn
	if mutationOneIn == 0 {
		mutationOneIn = defaultMutationOneIn
	}

	s := &Scheduler{
		parameters:    parameters,
		priorities:    priorities,
		kinds:         ActiveScoreKinds(priorities),
		schedules:     semester.Schedules,
		mutationOneIn: mutationOneIn,
		rng:           rng,
	}
	s.crossovers = newCrossovers(s.GenomeSize())

	return s, nil
}

// SetProgressHook 设置每一代结束后调用的函数
func (s *Scheduler) SetProgressHook(hook func(GenerationStats)) {
	s.progress = hook
}

func (s *Scheduler) GenomeSize() int {
	return len(s.schedules)
}

// Evolve 运行遗传算法，返回最后一代中适应度最高的课表
func (s *Scheduler) Evolve(ctx context.Context) (*Result, error) {
	generationSize := s.parameters.GenerationSize

	// 生成初始种群
	current := make([]scoredGenome, generationSize)
	for i := range current {
		current[i] = scoredGenome{genome: RandomGenome(s.schedules, s.rng)}
	}

	// 迭代
	for gen := 0; gen < s.parameters.MaxGenerations; gen++ {
		// 两代之间检查是否已被取消
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		pool, err := s.breed(current)
		if err != nil {
			return nil, err
		}

		current = s.selection(pool, generationSize)

		if s.progress != nil {
			s.progress(GenerationStats{
				Generation:     gen + 1,
				MaxGenerations: s.parameters.MaxGenerations,
				BestFitness:    current[0].fitness,
				BestScores:     current[0].scores,
			})
		}
	}

	// 返回结果
	best := current[0]
	selections, err := DecodeGenome(best.genome, s.schedules)
	if err != nil {
		return nil, err
	}

	return &Result{
		Selections: selections,
		Genome:     best.genome,
		Fitness:    best.fitness,
		Scores:     best.scores,
	}, nil
}

// breed 通过交叉和变异生成 generationSize^2 个子代，再加上上一代的精英
func (s *Scheduler) breed(current []scoredGenome) ([]Genome, error) {
	generationSize := s.parameters.GenerationSize
	eliteSize := min(generationSize/10+1, len(current))

	pool := make([]Genome, 0, generationSize*generationSize+eliteSize)

	// 繁殖
	for len(pool) < generationSize*generationSize {
		// 随机选择两个父本
		lhs := current[s.rng.IntN(len(current))].genome
		rhs := current[s.rng.IntN(len(current))].genome

		// 随机选择交叉算子
		crossover := s.crossovers[s.rng.IntN(len(s.crossovers))]
		child, err := crossover.Perform(lhs, rhs, s.rng)
		if err != nil {
			return nil, err
		}

		// 基因越多，变异的尝试次数越多
		s.mutate(child)
		for i := 0; i < s.GenomeSize()/mutationDivider; i++ {
			s.mutate(child)
		}

		pool = append(pool, child)
	}

	// 保留精英，上一代已经按适应度排好序
	for _, elite := range current[:eliteSize] {
		pool = append(pool, elite.genome)
	}

	return pool, nil
}
