package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
)

type fakeRepository struct {
	semesters  map[int64]*domain.Semester
	users      map[int64]*domain.User
	timetables []*domain.Timetable
	insertErr  error
}

func (f *fakeRepository) GetSemesterByID(id int64) (*domain.Semester, error) {
	s, ok := f.semesters[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func (f *fakeRepository) GetUserByID(id int64) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeRepository) InsertTimetable(t *domain.Timetable) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	t.ID = int64(len(f.timetables) + 1)
	f.timetables = append(f.timetables, t)
	return nil
}

type fakeJobStore struct {
	mu      sync.Mutex
	history []domain.GenerationJob
}

func (f *fakeJobStore) SaveJob(job *domain.GenerationJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, *job)
	return nil
}

func (f *fakeJobStore) statuses() []domain.JobStatus {
	var statuses []domain.JobStatus
	for _, job := range f.history {
		if len(statuses) == 0 || statuses[len(statuses)-1] != job.Status {
			statuses = append(statuses, job.Status)
		}
	}
	return statuses
}

type published struct {
	queue   string
	message domain.MailMessage
}

type fakePublisher struct {
	messages []published
}

func (f *fakePublisher) Publish(_ context.Context, queue string, v any) error {
	f.messages = append(f.messages, published{queue: queue, message: v.(domain.MailMessage)})
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Evolution.GenerationSize = 6
	cfg.Evolution.MaxGenerations = 5
	cfg.Evolution.Parallelism = 2
	cfg.Evolution.Seed = 7
	cfg.Evolution.Timeout = time.Minute
	cfg.RabbitMQ.EmailQueue = "email_queue"
	return cfg
}

func testSemester() *domain.Semester {
	slot := func(day domain.Day, hour uint8) domain.TimeInterval {
		return domain.TimeInterval{Day: day, Start: domain.TimeStamp{Hour: hour}, End: domain.TimeStamp{Hour: hour + 1}}
	}
	s := &domain.Semester{
		ID:         3,
		Name:       "2025 秋",
		Priorities: domain.DefaultPriorities(),
		Schedules: []domain.Schedule{
			{ID: 10, Course: "GDSX001", Name: "讲授", Entries: []domain.Entry{
				{Identifier: "101", Timeslots: []domain.TimeInterval{slot(domain.Monday, 9)}},
				{Identifier: "102", Timeslots: []domain.TimeInterval{slot(domain.Tuesday, 9)}},
			}},
			{ID: 11, Course: "GDSX001", Name: "实验", Entries: []domain.Entry{
				{Identifier: "201", Timeslots: []domain.TimeInterval{slot(domain.Monday, 9)}},
				{Identifier: "202", Timeslots: []domain.TimeInterval{slot(domain.Monday, 10)}},
			}},
		},
	}
	s.Normalize()
	return s
}

func newTestEvolver() (*Evolver, *fakeRepository, *fakeJobStore, *fakePublisher) {
	repo := &fakeRepository{
		semesters: map[int64]*domain.Semester{3: testSemester()},
		users:     map[int64]*domain.User{1: {ID: 1, FullName: "张伟", Email: "zhangwei@example.com"}},
	}
	jobs := &fakeJobStore{}
	publisher := &fakePublisher{}
	return NewEvolver(testConfig(), repo, jobs, publisher), repo, jobs, publisher
}

func TestProcess_Succeeds(t *testing.T) {
	evolver, repo, jobs, publisher := newTestEvolver()

	job := &domain.GenerationJob{ID: "job-1", SemesterID: 3, RequestedBy: 1, Status: domain.JobStatusQueued}
	require.NoError(t, evolver.Process(context.Background(), job))

	assert.Equal(t, domain.JobStatusSucceeded, job.Status)
	assert.Equal(t, 5, job.Generation)
	assert.Equal(t, []domain.JobStatus{domain.JobStatusRunning, domain.JobStatusSucceeded}, jobs.statuses())

	require.Len(t, repo.timetables, 1)
	timetable := repo.timetables[0]
	assert.Equal(t, job.TimetableID, timetable.ID)
	assert.Equal(t, "job-1", timetable.JobID)
	assert.Len(t, timetable.Selections, 2)
	assert.Contains(t, timetable.Scores, "collisions")

	require.Len(t, publisher.messages, 1)
	msg := publisher.messages[0]
	assert.Equal(t, "email_queue", msg.queue)
	assert.Equal(t, domain.MailTypeTimetableGenerated, msg.message.Type)
	assert.Equal(t, "zhangwei@example.com", msg.message.To)
	data := msg.message.Data.(domain.TimetableGeneratedMailData)
	assert.Equal(t, "2025 秋", data.SemesterName)
	assert.Contains(t, data.Rendered, "GDSX001")
}

func TestProcess_UsesDefaultsFromConfig(t *testing.T) {
	evolver, _, _, _ := newTestEvolver()

	p := evolver.parameters(&domain.GenerationJob{})
	assert.Equal(t, 6, p.GenerationSize)
	assert.Equal(t, 5, p.MaxGenerations)
	assert.Equal(t, 2, p.Parallelism)

	p = evolver.parameters(&domain.GenerationJob{GenerationSize: 20, MaxGenerations: 3})
	assert.Equal(t, 20, p.GenerationSize)
	assert.Equal(t, 3, p.MaxGenerations)

	assert.Equal(t, uint64(7), evolver.seed(&domain.GenerationJob{}))
	assert.Equal(t, uint64(99), evolver.seed(&domain.GenerationJob{Seed: 99}))
}

func TestProcess_SameSeedSameTimetable(t *testing.T) {
	evolver, repo, _, _ := newTestEvolver()

	for _, id := range []string{"a", "b"} {
		require.NoError(t, evolver.Process(context.Background(), &domain.GenerationJob{ID: id, SemesterID: 3}))
	}

	require.Len(t, repo.timetables, 2)
	assert.Equal(t, repo.timetables[0].Selections, repo.timetables[1].Selections)
	assert.Equal(t, repo.timetables[0].Fitness, repo.timetables[1].Fitness)
}

func TestProcess_MissingSemester(t *testing.T) {
	evolver, repo, jobs, publisher := newTestEvolver()

	job := &domain.GenerationJob{ID: "job-2", SemesterID: 404, RequestedBy: 1}
	err := evolver.Process(context.Background(), job)
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.NotEmpty(t, job.Error)
	assert.Equal(t, []domain.JobStatus{domain.JobStatusRunning, domain.JobStatusFailed}, jobs.statuses())
	assert.Empty(t, repo.timetables)

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, domain.MailTypeGenerationFailed, publisher.messages[0].message.Type)
}

func TestProcess_InsertFails(t *testing.T) {
	evolver, repo, _, _ := newTestEvolver()
	repo.insertErr = errors.New("数据库不可用")

	job := &domain.GenerationJob{ID: "job-3", SemesterID: 3}
	err := evolver.Process(context.Background(), job)
	require.Error(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
}

func TestProcess_ShutdownKeepsJobQueued(t *testing.T) {
	evolver, repo, jobs, publisher := newTestEvolver()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := &domain.GenerationJob{ID: "job-4", SemesterID: 3, RequestedBy: 1, Status: domain.JobStatusQueued}
	err := evolver.Process(ctx, job)
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, domain.JobStatusQueued, job.Status)
	assert.Empty(t, job.Error)
	assert.Equal(t, []domain.JobStatus{domain.JobStatusRunning, domain.JobStatusQueued}, jobs.statuses())
	assert.Empty(t, repo.timetables)
	assert.Empty(t, publisher.messages)
}

func TestProcess_TimeoutFails(t *testing.T) {
	evolver, _, _, publisher := newTestEvolver()
	evolver.cfg.Evolution.Timeout = -time.Second

	job := &domain.GenerationJob{ID: "job-7", SemesterID: 3, RequestedBy: 1}
	err := evolver.Process(context.Background(), job)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrInterrupted)

	assert.Equal(t, domain.JobStatusFailed, job.Status)
	require.Len(t, publisher.messages, 1)
	assert.Equal(t, domain.MailTypeGenerationFailed, publisher.messages[0].message.Type)
}

// fakeAcknowledger 记录消息最终是被确认还是拒绝
type fakeAcknowledger struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (f *fakeAcknowledger) Ack(uint64, bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func TestDeliver(t *testing.T) {
	jobBody := func(id string, semesterID int64) []byte {
		body, err := json.Marshal(domain.GenerationJob{ID: id, SemesterID: semesterID})
		require.NoError(t, err)
		return body
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name     string
		ctx      context.Context
		body     []byte
		acked    bool
		requeued bool
	}{
		{"succeeds", context.Background(), jobBody("d-1", 3), true, false},
		{"fails", context.Background(), jobBody("d-2", 404), false, false},
		{"malformed", context.Background(), []byte("{"), false, false},
		{"shutdown", cancelled, jobBody("d-3", 3), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evolver, _, _, _ := newTestEvolver()
			ack := &fakeAcknowledger{}

			evolver.deliver(tt.ctx, amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: tt.body})

			assert.Equal(t, tt.acked, ack.acked)
			assert.Equal(t, !tt.acked, ack.nacked)
			assert.Equal(t, tt.requeued, ack.requeued)
		})
	}
}

func TestProcess_EmptySemester(t *testing.T) {
	evolver, repo, _, _ := newTestEvolver()
	repo.semesters[5] = &domain.Semester{ID: 5, Name: "空学期", Priorities: domain.DefaultPriorities()}

	job := &domain.GenerationJob{ID: "job-5", SemesterID: 5}
	assert.Error(t, evolver.Process(context.Background(), job))
	assert.Equal(t, domain.JobStatusFailed, job.Status)
}

func TestHandle(t *testing.T) {
	evolver, repo, _, _ := newTestEvolver()

	assert.Error(t, evolver.Handle(context.Background(), []byte("not json")))
	assert.Error(t, evolver.Handle(context.Background(), []byte(`{"semesterID": 3}`)))

	body, err := json.Marshal(domain.GenerationJob{ID: "job-6", SemesterID: 3, Status: domain.JobStatusQueued})
	require.NoError(t, err)
	require.NoError(t, evolver.Handle(context.Background(), body))
	require.Len(t, repo.timetables, 1)
	assert.Equal(t, "job-6", repo.timetables[0].JobID)
}
