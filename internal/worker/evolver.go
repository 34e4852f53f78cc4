package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/outputter"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/utils"
)

type Repository interface {
	GetSemesterByID(id int64) (*domain.Semester, error)
	GetUserByID(id int64) (*domain.User, error)
	InsertTimetable(t *domain.Timetable) error
}

type JobStore interface {
	SaveJob(job *domain.GenerationJob) error
}

type Publisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

// Evolver 从队列中取出排课任务，运行遗传算法并保存结果
type Evolver struct {
	cfg       *config.Config
	repo      Repository
	jobs      JobStore
	publisher Publisher
}

func NewEvolver(cfg *config.Config, repo Repository, jobs JobStore, publisher Publisher) *Evolver {
	return &Evolver{
		cfg:       cfg,
		repo:      repo,
		jobs:      jobs,
		publisher: publisher,
	}
}

// ErrInterrupted 任务因为 evolver 关闭而中断，消息会重新入队，任务保持排队状态
var ErrInterrupted = errors.New("排课任务被中断，等待重新执行")

// Run 消费队列中的任务直到 ctx 被取消或者 deliveries 被关闭
func (e *Evolver) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				slog.Warn("消息通道已关闭")
				return
			}
			e.deliver(ctx, msg)
		}
	}
}

// deliver 处理一条消息并确认，被中断的任务重新入队，失败的任务不重新入队
func (e *Evolver) deliver(ctx context.Context, msg amqp.Delivery) {
	err := e.Handle(ctx, msg.Body)
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.Is(err, ErrInterrupted):
		slog.Warn("排课任务被中断，重新入队", "error", err)
		_ = msg.Nack(false, true)
	default:
		slog.Error("排课任务失败", "error", err)
		_ = msg.Nack(false, false)
	}
}

// Handle 反序列化并处理一条任务消息
func (e *Evolver) Handle(ctx context.Context, body []byte) error {
	job := &domain.GenerationJob{}
	if err := json.Unmarshal(body, job); err != nil {
		return fmt.Errorf("任务反序列化失败: %w", err)
	}
	if job.ID == "" {
		return errors.New("任务缺少 ID")
	}

	return e.Process(ctx, job)
}

// Process 运行一个排课任务，任务的状态和进度会随时写入 JobStore
func (e *Evolver) Process(ctx context.Context, job *domain.GenerationJob) (err error) {
	logger := slog.With("job", job.ID, "semester", job.SemesterID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("排课任务 panic", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}

		if err == nil {
			return
		}

		// evolver 正在关闭，任务本身没有失败；单个任务超时仍然视为失败
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			e.requeue(job)
			err = fmt.Errorf("%w: %w", ErrInterrupted, err)
			return
		}

		e.fail(ctx, job, err)
	}()

	job.Status = domain.JobStatusRunning
	if err := e.jobs.SaveJob(job); err != nil {
		return fmt.Errorf("无法更新任务状态: %w", err)
	}
	start := time.Now()

	semester, err := e.repo.GetSemesterByID(job.SemesterID)
	if err != nil {
		return fmt.Errorf("无法获取学期: %w", err)
	}
	logger.Info("开始排课", "courses", len(semester.Courses()), "schedules", len(semester.Schedules),
		"generationSize", job.GenerationSize, "maxGenerations", job.MaxGenerations)
	if err := utils.ValidatePriorities(semester.Priorities); err != nil {
		return err
	}

	s, err := scheduler.New(e.parameters(job), semester, semester.Priorities, scheduler.NewRand(e.seed(job)))
	if err != nil {
		return err
	}

	s.SetProgressHook(func(stats scheduler.GenerationStats) {
		job.Generation = stats.Generation
		job.BestFitness = stats.BestFitness
		logger.Debug("已完成一代", "generation", stats.Generation, "bestFitness", stats.BestFitness, "scores", stats.BestScores.Map())
		if err := e.jobs.SaveJob(job); err != nil {
			logger.Warn("无法更新任务进度", "error", err)
		}
	})

	evolveCtx, cancel := context.WithTimeout(ctx, e.cfg.Evolution.Timeout)
	defer cancel()

	result, err := s.Evolve(evolveCtx)
	if err != nil {
		return fmt.Errorf("排课中断: %w", err)
	}

	if err := utils.ValidateSelectionsWithSemester(result.Selections, semester); err != nil {
		return err
	}

	timetable := &domain.Timetable{
		SemesterID: semester.ID,
		JobID:      job.ID,
		Fitness:    result.Fitness,
		Scores:     result.Scores.Map(),
		Selections: result.Selections,
	}
	if err := e.repo.InsertTimetable(timetable); err != nil {
		return fmt.Errorf("无法保存课表: %w", err)
	}

	job.Status = domain.JobStatusSucceeded
	job.TimetableID = timetable.ID
	job.BestFitness = result.Fitness
	if err := e.jobs.SaveJob(job); err != nil {
		logger.Warn("无法更新任务状态", "error", err)
	}
	logger.Info("排课完成", "timetable", timetable.ID, "fitness", result.Fitness, "duration", time.Since(start))

	e.notify(ctx, job.RequestedBy, domain.MailTypeTimetableGenerated, func(user *domain.User) any {
		return domain.TimetableGeneratedMailData{
			FullName:     user.FullName,
			SemesterName: semester.Name,
			TimetableID:  timetable.ID,
			Fitness:      timetable.Fitness,
			Rendered:     outputter.RenderString(timetable.Selections, outputter.English),
		}
	})

	return nil
}

func (e *Evolver) parameters(job *domain.GenerationJob) scheduler.Parameters {
	p := scheduler.Parameters{
		GenerationSize: job.GenerationSize,
		MaxGenerations: job.MaxGenerations,
		Parallelism:    e.cfg.Evolution.Parallelism,
	}
	if p.GenerationSize == 0 {
		p.GenerationSize = e.cfg.Evolution.GenerationSize
	}
	if p.MaxGenerations == 0 {
		p.MaxGenerations = e.cfg.Evolution.MaxGenerations
	}
	return p
}

// seed 任务指定的种子优先，其次是配置中的种子，都为 0 时随机
func (e *Evolver) seed(job *domain.GenerationJob) uint64 {
	if job.Seed != 0 {
		return job.Seed
	}
	return e.cfg.Evolution.Seed
}

// requeue 将任务恢复为排队状态并清空进度，不发送通知
func (e *Evolver) requeue(job *domain.GenerationJob) {
	job.Status = domain.JobStatusQueued
	job.Generation = 0
	job.BestFitness = 0
	if err := e.jobs.SaveJob(job); err != nil {
		slog.Warn("无法更新任务状态", "job", job.ID, "error", err)
	}
}

func (e *Evolver) fail(ctx context.Context, job *domain.GenerationJob, cause error) {
	job.Status = domain.JobStatusFailed
	job.Error = cause.Error()
	if err := e.jobs.SaveJob(job); err != nil {
		slog.Warn("无法更新任务状态", "job", job.ID, "error", err)
	}

	e.notify(ctx, job.RequestedBy, domain.MailTypeGenerationFailed, func(user *domain.User) any {
		return domain.GenerationFailedMailData{
			FullName: user.FullName,
			JobID:    job.ID,
			Reason:   cause.Error(),
		}
	})
}

// notify 给发起任务的用户发送邮件，失败只记录日志
func (e *Evolver) notify(ctx context.Context, userID int64, mailType string, data func(user *domain.User) any) {
	if userID == 0 {
		return
	}

	user, err := e.repo.GetUserByID(userID)
	if err != nil {
		slog.Warn("无法获取任务发起人", "user", userID, "error", err)
		return
	}

	message := domain.MailMessage{
		Type: mailType,
		To:   user.Email,
		Data: data(user),
	}
	if err := e.publisher.Publish(ctx, e.cfg.RabbitMQ.EmailQueue, message); err != nil {
		slog.Warn("无法发送邮件到消息队列", "user", userID, "error", err)
	}
}
