package domain

import "time"

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// GenerationJob 一次异步排课任务，通过消息队列交给 evolver 处理
type GenerationJob struct {
	ID             string    `json:"id"`
	SemesterID     int64     `json:"semesterID"`
	GenerationSize int       `json:"generationSize"`
	MaxGenerations int       `json:"maxGenerations"`
	Seed           uint64    `json:"seed"` // 为 0 时随机
	RequestedBy    int64     `json:"requestedBy"`
	Status         JobStatus `json:"status"`
	Generation     int       `json:"generation"`
	BestFitness    float64   `json:"bestFitness"`
	TimetableID    int64     `json:"timetableID,omitempty"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
