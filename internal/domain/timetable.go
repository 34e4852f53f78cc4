package domain

import "time"

// Selection 为某个安排选中的 Entry
type Selection struct {
	ScheduleID int64  `json:"scheduleID"`
	Course     string `json:"course"`
	Schedule   string `json:"schedule"`
	Entry      Entry  `json:"entry"`
}

// Timetable 一次排课生成的结果
type Timetable struct {
	ID         int64              `json:"id"`
	SemesterID int64              `json:"semesterID"`
	JobID      string             `json:"jobID"`
	Fitness    float64            `json:"fitness"`
	Scores     map[string]float64 `json:"scores"`
	Selections []Selection        `json:"selections"`
	CreatedAt  time.Time          `json:"createdAt"`
	Version    int32              `json:"-"`
}
