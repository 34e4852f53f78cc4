package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
)

var ErrJobNotFound = errors.New("排课任务不存在或已过期")

// JobStore 在 redis 中保存排课任务的状态和进度，任务在 Evolution.JobExpiration 秒后过期
type JobStore struct {
	cfg *config.Config
	rdb *redis.Client
}

func NewJobStore(cfg *config.Config, rdb *redis.Client) *JobStore {
	return &JobStore{
		cfg: cfg,
		rdb: rdb,
	}
}

func jobKey(id string) string {
	return fmt.Sprintf("generation_job_%s", id)
}

func (s *JobStore) SaveJob(job *domain.GenerationJob) error {
	job.UpdatedAt = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Redis.OperationTimeout)
	defer cancel()

	return s.rdb.Set(ctx, jobKey(job.ID), data, s.cfg.Evolution.JobExpiration).Err()
}

func (s *JobStore) GetJob(id string) (*domain.GenerationJob, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Redis.OperationTimeout)
	defer cancel()

	data, err := s.rdb.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	job := &domain.GenerationJob{}
	if err := json.Unmarshal(data, job); err != nil {
		return nil, err
	}

	return job, nil
}
