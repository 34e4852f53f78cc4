package scheduler

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Crossover 由两个父本生成一个子代
type Crossover interface {
	Perform(lhs, rhs Genome, rng *rand.Rand) (Genome, error)
}

func checkLength(lhs, rhs Genome) (int, error) {
	if len(lhs) != len(rhs) {
		return 0, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(lhs), len(rhs))
	}
	return len(lhs), nil
}

// UniformCrossover 均匀交叉，每个基因以 1/2 的概率来自任一父本
//
// 随机位从一个 64 位的缓冲区中依次取出，用完再重新填充
type UniformCrossover struct {
	bits      uint64
	remaining int
}

func (c *UniformCrossover) Perform(lhs, rhs Genome, rng *rand.Rand) (Genome, error) {
	length, err := checkLength(lhs, rhs)
	if err != nil {
		return nil, err
	}

	child := make(Genome, length)
	for i := range length {
		if c.remaining == 0 {
			c.bits = rng.Uint64()
			c.remaining = 64
		}

		bit := c.bits & 1
		c.bits >>= 1
		c.remaining--

		if bit == 0 {
			child[i] = lhs[i]
		} else {
			child[i] = rhs[i]
		}
	}

	return child, nil
}

// PointCrossover k 点交叉，基因组被 k 个交叉点切成 k+1 段，各段交替来自两个父本（从 lhs 开始）
type PointCrossover struct {
	points int
}

func NewPointCrossover(points int) (*PointCrossover, error) {
	if points <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPointCount, points)
	}
	return &PointCrossover{points: points}, nil
}

func (c *PointCrossover) Points() int {
	return c.points
}

func (c *PointCrossover) Perform(lhs, rhs Genome, rng *rand.Rand) (Genome, error) {
	length, err := checkLength(lhs, rhs)
	if err != nil {
		return nil, err
	}
	if c.points >= length {
		return nil, fmt.Errorf("%w: 交叉点 %d 个，基因组长度 %d", ErrTooManyPoints, c.points, length)
	}

	cuts := c.cutPoints(length, rng)

	child := make(Genome, length)
	fromLeft := true
	next := 0
	for i := range length {
		// 每越过一个交叉点就切换父本
		if next < len(cuts) && cuts[next] == i {
			fromLeft = !fromLeft
			next++
		}

		if fromLeft {
			child[i] = lhs[i]
		} else {
			child[i] = rhs[i]
		}
	}

	return child, nil
}

// cutPoints 在 [1, length) 中不放回地选出 points 个交叉点，升序返回
func (c *PointCrossover) cutPoints(length int, rng *rand.Rand) []int {
	cuts := make([]int, 0, c.points)
	for len(cuts) < c.points {
		point := rng.IntN(length-1) + 1
		if slices.Contains(cuts, point) {
			continue
		}
		cuts = append(cuts, point)
	}
	slices.Sort(cuts)
	return cuts
}

// newCrossovers 生成交叉算子池：一个均匀交叉，以及 k = 1..genomeSize/10 的多点交叉
func newCrossovers(genomeSize int) []Crossover {
	crossovers := []Crossover{&UniformCrossover{}}

	// 只有一个基因时无法进行单点交叉
	if genomeSize < 2 {
		return crossovers
	}

	maxPoints := max(1, genomeSize/pointCrossoverDivider)
	for k := 1; k <= maxPoints; k++ {
		crossover, _ := NewPointCrossover(k)
		crossovers = append(crossovers, crossover)
	}

	return crossovers
}
