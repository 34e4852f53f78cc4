package scheduler

import (
	"errors"
	"slices"

	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
)

var (
	ErrInvalidArgument   = errors.New("代的大小和迭代次数都必须大于 0")
	ErrEmptySemester     = errors.New("学期中没有任何需要选择的安排")
	ErrEmptySchedule     = errors.New("安排中没有任何可选项")
	ErrLengthMismatch    = errors.New("交叉的两个父本基因组长度不一致")
	ErrInvalidPointCount = errors.New("交叉点数量必须大于 0")
	ErrTooManyPoints     = errors.New("基因组长度不足以进行多点交叉")
	ErrOutOfRange        = errors.New("评分不在本代的最小值和最大值之间")
	ErrScoreMismatch     = errors.New("评分项与最小值、最大值的评分项不一致")
	ErrGeneOutOfRange    = errors.New("基因超出了对应安排的可选项范围")
)

const (
	// 每 N 个基因额外增加一个多点交叉算子
	pointCrossoverDivider = 10
	// 每 N 个基因额外进行一次变异尝试
	mutationDivider = 25
	// 每次变异尝试的成功概率为 1/N
	defaultMutationOneIn = 2
)

// Genome 整个课表，第 i 个基因为第 i 个安排中被选中的 Entry 的下标
type Genome []uint32

func (g Genome) Clone() Genome {
	return slices.Clone(g)
}

// 遗传算法参数
type Parameters struct {
	GenerationSize int // 每一代的大小
	MaxGenerations int // 迭代次数
	Parallelism    int // 计算评分时并行的 goroutine 数量，不大于 1 时串行计算
	MutationOneIn  int // 每次变异尝试以 1/MutationOneIn 的概率发生，为 0 时使用默认值 2
}

func (p Parameters) validate() error {
	if p.GenerationSize <= 0 || p.MaxGenerations <= 0 {
		return ErrInvalidArgument
	}
	if p.MutationOneIn < 0 {
		return ErrInvalidArgument
	}
	return nil
}

// scoredGenome 已经计算过评分和适应度的基因组
type scoredGenome struct {
	genome  Genome
	scores  Scores
	fitness float64
}

// GenerationStats 每一代选择结束后汇报的信息
type GenerationStats struct {
	Generation     int
	MaxGenerations int
	BestFitness    float64
	BestScores     Scores
}

// Result 最后一代中最优基因组解码后的结果
type Result struct {
	Selections []domain.Selection
	Genome     Genome
	Fitness    float64
	Scores     Scores
}
