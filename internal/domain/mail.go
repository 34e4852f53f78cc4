package domain

const (
	MailTypeCreateUser         = "create_user"
	MailTypeTimetableGenerated = "timetable_generated"
	MailTypeGenerationFailed   = "generation_failed"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type TimetableGeneratedMailData struct {
	FullName     string  `json:"fullName"`
	SemesterName string  `json:"semesterName"`
	TimetableID  int64   `json:"timetableID"`
	Fitness      float64 `json:"fitness"`
	Rendered     string  `json:"rendered"` // 纯文本形式的课表
}

type GenerationFailedMailData struct {
	FullName     string `json:"fullName"`
	SemesterName string `json:"semesterName"`
	JobID        string `json:"jobID"`
	Reason       string `json:"reason"`
}
