package domain

// Priorities 一次排课的偏好设置，排课过程中只读
type Priorities struct {
	KeepCoherentInDay  bool `json:"keepCoherentInDay"`
	KeepCoherentInWeek bool `json:"keepCoherentInWeek"`

	// 以下三个小时数为 0 时表示不启用
	PenaliseBeforeHour           uint8 `json:"penaliseBeforeHour"`
	PenaliseAfterHour            uint8 `json:"penaliseAfterHour"`
	PenaliseManyConsecutiveHours uint8 `json:"penaliseManyConsecutiveHours"`

	MinutesToBeConsecutive uint32 `json:"minutesToBeConsecutive"`
}

func DefaultPriorities() Priorities {
	return Priorities{
		KeepCoherentInDay:      true,
		KeepCoherentInWeek:     true,
		MinutesToBeConsecutive: 30,
	}
}
