package domain

import "time"

const (
	MinBonus = -10.0
	MaxBonus = 10.0
)

// Entry 某个课程安排下的一个具体可选项（比如某个讲座的平行班）
type Entry struct {
	ID         int64          `json:"id"`
	Identifier string         `json:"identifier"`
	Annotation string         `json:"annotation"`
	Timeslots  []TimeInterval `json:"timeslots"`
	Bonus      float64        `json:"bonus"`

	// 在 Semester.Schedules 中所属安排的下标，以及自己在该安排 Entries 中的下标
	ScheduleIndex int `json:"-"`
	Index         int `json:"-"`
}

// SetBonus 设置加分或减分，超出 [-10, 10] 的值会被截断
func (e *Entry) SetBonus(value float64) {
	e.Bonus = ClampBonus(value)
}

func ClampBonus(value float64) float64 {
	return min(max(value, MinBonus), MaxBonus)
}

// Schedule 某门课程需要选择的一项安排（比如讲座、实验）
type Schedule struct {
	ID      int64   `json:"id"`
	Course  string  `json:"course"`
	Name    string  `json:"name"`
	Ignored bool    `json:"ignored"` // 被忽略的安排仍然会被选择和输出，但不参与任何评分
	Entries []Entry `json:"entries"`
}

// Semester 一次排课的完整输入
type Semester struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Schedules   []Schedule `json:"schedules"`
	Priorities  Priorities `json:"priorities"`
	CreatedBy   int64      `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	Version     int32      `json:"-"`
}

// Normalize 回填每个 Entry 的下标，并截断越界的加分
func (s *Semester) Normalize() {
	for i := range s.Schedules {
		for j := range s.Schedules[i].Entries {
			entry := &s.Schedules[i].Entries[j]
			entry.ScheduleIndex = i
			entry.Index = j
			entry.SetBonus(entry.Bonus)
		}
	}
}

// Courses 按首次出现的顺序返回所有课程名
func (s *Semester) Courses() []string {
	seen := make(map[string]bool)
	courses := make([]string, 0)
	for _, schedule := range s.Schedules {
		if seen[schedule.Course] {
			continue
		}
		seen[schedule.Course] = true
		courses = append(courses, schedule.Course)
	}
	return courses
}

// SemesterMeta 不包含安排的学期信息，用于列表
type SemesterMeta struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	ScheduleCount int       `json:"scheduleCount"`
	CreatedBy     int64     `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
}
