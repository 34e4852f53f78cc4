package utils

import (
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
)

// ValidateSemester 检查学期中的每个安排和可选项是否合法
func ValidateSemester(semester *domain.Semester) error {
	if len(semester.Schedules) == 0 {
		return errors.New("学期中至少需要一个安排")
	}

	type key struct{ course, name string }
	seen := make(map[key]bool)

	for i, schedule := range semester.Schedules {
		if schedule.Course == "" || schedule.Name == "" {
			return fmt.Errorf("第 %d 个安排缺少课程名或安排名称", i+1)
		}

		k := key{schedule.Course, schedule.Name}
		if seen[k] {
			return fmt.Errorf("课程 %s 中存在重复的安排 %s", schedule.Course, schedule.Name)
		}
		seen[k] = true

		if len(schedule.Entries) == 0 {
			return fmt.Errorf("安排 %s/%s 没有任何可选项", schedule.Course, schedule.Name)
		}

		identifiers := make(map[string]bool)
		for _, entry := range schedule.Entries {
			if entry.Identifier == "" {
				return fmt.Errorf("安排 %s/%s 中存在没有编号的可选项", schedule.Course, schedule.Name)
			}
			if identifiers[entry.Identifier] {
				return fmt.Errorf("安排 %s/%s 中存在重复的编号 %s", schedule.Course, schedule.Name, entry.Identifier)
			}
			identifiers[entry.Identifier] = true

			if entry.Bonus < domain.MinBonus || entry.Bonus > domain.MaxBonus {
				return fmt.Errorf("可选项 %s 的加分必须在 %v 到 %v 之间", entry.Identifier, domain.MinBonus, domain.MaxBonus)
			}

			for _, interval := range entry.Timeslots {
				if err := interval.Validate(); err != nil {
					return fmt.Errorf("可选项 %s 的时间段无效: %w", entry.Identifier, err)
				}
			}
		}
	}

	return nil
}

// ValidatePriorities 检查偏好设置中的小时数和分钟数是否在合理范围内
func ValidatePriorities(p domain.Priorities) error {
	if p.PenaliseBeforeHour >= 24 {
		return errors.New("早于该时间开始的课程受惩罚的小时数必须小于 24")
	}
	if p.PenaliseAfterHour >= 24 {
		return errors.New("晚于该时间开始的课程受惩罚的小时数必须小于 24")
	}
	if p.PenaliseManyConsecutiveHours > 24 {
		return errors.New("连续上课的小时数不能超过 24")
	}
	if p.MinutesToBeConsecutive > 24*60 {
		return errors.New("视为连续上课的空档分钟数不能超过一天")
	}
	return nil
}

// ValidateSelectionsWithSemester 检查排课结果是否为每个安排恰好选择了一个该安排中的可选项
func ValidateSelectionsWithSemester(selections []domain.Selection, semester *domain.Semester) error {
	if len(selections) != len(semester.Schedules) {
		return fmt.Errorf("排课结果中的安排数量 %d 和学期中的安排数量 %d 不匹配", len(selections), len(semester.Schedules))
	}

	for i, selection := range selections {
		schedule := semester.Schedules[i]
		if selection.Course != schedule.Course || selection.Schedule != schedule.Name {
			return fmt.Errorf("排课结果中的第 %d 项 %s/%s 和学期中的安排 %s/%s 不对应", i+1, selection.Course, selection.Schedule, schedule.Course, schedule.Name)
		}

		// Entry 中记录的下标必须指回这个安排中的同一个可选项
		entry := selection.Entry
		if entry.ScheduleIndex != i || entry.Index < 0 || entry.Index >= len(schedule.Entries) ||
			schedule.Entries[entry.Index].Identifier != entry.Identifier {
			return fmt.Errorf("安排 %s/%s 中不存在编号为 %s 的可选项", schedule.Course, schedule.Name, entry.Identifier)
		}
	}

	return nil
}
