package outputter

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
)

const (
	daySeparator    = "*"
	entrySeparator  = "_"
	separatorLength = 55
)

// Labels 输出时使用的文字
type Labels struct {
	Days   [7]string // 周一到周日
	Parity string
	Odd    string
	Even   string
}

var English = Labels{
	Days:   [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"},
	Parity: "parity",
	Odd:    "odd",
	Even:   "even",
}

var Czech = Labels{
	Days:   [7]string{"pondělí", "úterý", "středa", "čtvrtek", "pátek", "sobota", "neděle"},
	Parity: "parita",
	Odd:    "lichý",
	Even:   "sudý",
}

// LabelsFor 根据语言代码返回文字，未知语言使用英文
func LabelsFor(lang string) Labels {
	if strings.EqualFold(lang, "cs") {
		return Czech
	}
	return English
}

type slot struct {
	interval  domain.TimeInterval
	selection *domain.Selection
}

// Render 按时间顺序逐天输出课表，同一天内两节课之间每空一个小时多输出一个空行
func Render(w io.Writer, selections []domain.Selection, labels Labels) error {
	var slots []slot
	for i := range selections {
		for _, interval := range selections[i].Entry.Timeslots {
			slots = append(slots, slot{interval: interval, selection: &selections[i]})
		}
	}
	slices.SortStableFunc(slots, func(a, b slot) int {
		return a.interval.Compare(b.interval)
	})

	bw := bufio.NewWriter(w)
	daySeparatorLine := strings.Repeat(daySeparator, separatorLength)
	entrySeparatorLine := strings.Repeat(entrySeparator, separatorLength)

	for i, s := range slots {
		if i == 0 || slots[i-1].interval.Day != s.interval.Day {
			fmt.Fprintf(bw, "\n%s\n%s\n%s\n", daySeparatorLine, dayName(labels, s.interval.Day), daySeparatorLine)
		} else {
			gap := s.interval.Start.Minutes() - slots[i-1].interval.End.Minutes()
			hours := 0
			if gap > 0 {
				hours = gap / 60
			}
			bw.WriteString(strings.Repeat("\n", hours+1))
		}

		fmt.Fprintf(bw, "%s\n", entrySeparatorLine)
		fmt.Fprintf(bw, "%s\n%s\n\n", s.selection.Course, s.selection.Schedule)
		fmt.Fprintf(bw, "%s - %s\n", s.interval.Start, s.interval.End)
		switch s.interval.Parity {
		case domain.ParityOdd:
			fmt.Fprintf(bw, "%s: %s\n", labels.Parity, labels.Odd)
		case domain.ParityEven:
			fmt.Fprintf(bw, "%s: %s\n", labels.Parity, labels.Even)
		}
		fmt.Fprintf(bw, "\n%s\n", s.selection.Entry.Identifier)
		if s.selection.Entry.Annotation != "" {
			fmt.Fprintf(bw, "%s\n", s.selection.Entry.Annotation)
		}
		fmt.Fprintf(bw, "%s\n", entrySeparatorLine)
	}

	return bw.Flush()
}

// RenderString 以字符串形式返回 Render 的结果
func RenderString(selections []domain.Selection, labels Labels) string {
	var sb strings.Builder
	// strings.Builder 的写入不会失败
	_ = Render(&sb, selections, labels)
	return sb.String()
}

func dayName(labels Labels, day domain.Day) string {
	if !day.Valid() {
		return fmt.Sprintf("%d", day)
	}
	return labels.Days[day-1]
}
