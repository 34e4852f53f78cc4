package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
)

func ts(t *testing.T, value string) domain.TimeStamp {
	t.Helper()
	var stamp domain.TimeStamp
	require.NoError(t, stamp.UnmarshalText([]byte(value)))
	return stamp
}

func iv(t *testing.T, day domain.Day, start, end string, parity domain.Parity) domain.TimeInterval {
	t.Helper()
	interval, err := domain.NewTimeInterval(day, ts(t, start), ts(t, end), parity)
	require.NoError(t, err)
	return interval
}

func entry(id string, bonus float64, timeslots ...domain.TimeInterval) domain.Entry {
	e := domain.Entry{Identifier: id, Timeslots: timeslots}
	e.SetBonus(bonus)
	return e
}

// sorted 将时间段按顺序包装成评分函数的输入
func sorted(intervals ...intervalEntry) []intervalEntry {
	return intervals
}

func active(interval domain.TimeInterval) intervalEntry {
	return intervalEntry{interval: interval}
}

func ignored(interval domain.TimeInterval) intervalEntry {
	return intervalEntry{interval: interval, ignored: true}
}

// twoScheduleSemester 两个安排各两个可选项，其中 A 的两个可选项都和 B0 冲突，和 B1 都不冲突
func twoScheduleSemester(t *testing.T) *domain.Semester {
	t.Helper()
	semester := &domain.Semester{
		Name: "测试学期",
		Schedules: []domain.Schedule{
			{
				ID: 1, Course: "BI-PA2", Name: "lecture",
				Entries: []domain.Entry{
					entry("A0", 0, iv(t, domain.Monday, "09:00", "10:00", domain.ParityBoth)),
					entry("A1", 0, iv(t, domain.Monday, "09:30", "10:30", domain.ParityBoth)),
				},
			},
			{
				ID: 2, Course: "BI-AG1", Name: "lab",
				Entries: []domain.Entry{
					entry("B0", 0, iv(t, domain.Monday, "09:00", "10:00", domain.ParityBoth)),
					entry("B1", 0, iv(t, domain.Wednesday, "14:00", "15:00", domain.ParityBoth)),
				},
			},
		},
	}
	semester.Normalize()
	return semester
}

// wideSemester 生成 n 个安排，每个安排有 entries 个可选项，时间分散在一周内
func wideSemester(t *testing.T, n, entries int) *domain.Semester {
	t.Helper()
	semester := &domain.Semester{Name: "大学期"}
	for i := range n {
		schedule := domain.Schedule{ID: int64(i + 1), Course: "C" + string(rune('A'+i%26)), Name: "s"}
		for j := range entries {
			day := domain.Day((i+j)%5 + 1)
			hour := 8 + (i*3+j*2)%10
			start, err := domain.NewTimeStamp(hour, 0)
			require.NoError(t, err)
			end, err := domain.NewTimeStamp(hour+1, 30)
			require.NoError(t, err)
			interval, err := domain.NewTimeInterval(day, start, end, domain.ParityBoth)
			require.NoError(t, err)
			schedule.Entries = append(schedule.Entries, entry("e", float64(j%3-1), interval))
		}
		semester.Schedules = append(semester.Schedules, schedule)
	}
	semester.Normalize()
	return semester
}
