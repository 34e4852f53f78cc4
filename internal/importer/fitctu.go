package importer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
)

var ErrFormat = errors.New("课程文件格式错误")

// FormatError 带行号的格式错误，可以用 errors.Is(err, ErrFormat) 判断
type FormatError struct {
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("第 %d 行: %s", e.Line, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

var (
	capacityRegex = regexp.MustCompile(`^[0-9]+/[0-9]+$`)
	timeRegex     = regexp.MustCompile(`^(po|út|st|čt|pá|so|ne) ([0-9]{2}):([0-9]{2}) - ([0-9]{2}):([0-9]{2})$`)
)

var dayMapping = map[string]domain.Day{
	"po": domain.Monday,
	"út": domain.Tuesday,
	"st": domain.Wednesday,
	"čt": domain.Thursday,
	"pá": domain.Friday,
	"so": domain.Saturday,
	"ne": domain.Sunday,
}

var parityMapping = map[string]domain.Parity{
	"(týden: Sudý)":  domain.ParityEven,
	"(týden: Lichý)": domain.ParityOdd,
}

type readingState int

const (
	readingCourse readingState = iota
	readingID
	readingSchedule
	readingCapacity
	readingTime
)

// LoadFile 读取 FIT CTU 导出的课程文件，学期名称为文件名（不含扩展名）
func LoadFile(path string) (*domain.Semester, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(f, name)
}

// Parse 解析 FIT CTU 格式的课程目录
//
// 每门课程以空行分隔：第一行为课程名，之后是若干条目，每个条目依次为编号、安排名称、容量、
// 一行或多行上课时间（每行之后可以跟一行单双周说明），最后是任意行的附加信息，
// 直到遇到空行或者下一个条目的编号。
func Parse(r io.Reader, name string) (*domain.Semester, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	p := &parser{
		lines:     lines,
		semester:  &domain.Semester{Name: name, Priorities: domain.DefaultPriorities()},
		schedules: make(map[scheduleKey]int),
	}
	if err := p.parse(); err != nil {
		return nil, err
	}

	p.semester.Normalize()
	return p.semester, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &FormatError{Line: len(lines) + 1, Reason: "行过长"}
		}
		return nil, fmt.Errorf("读取课程文件失败: %w", err)
	}
	return lines, nil
}

type scheduleKey struct {
	course string
	name   string
}

type parser struct {
	lines []string
	pos   int // 下一行的下标，同时也是刚读出的那一行的行号

	semester  *domain.Semester
	schedules map[scheduleKey]int
}

func (p *parser) next() string {
	line := p.lines[p.pos]
	p.pos++
	return line
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.lines) {
		return "", false
	}
	return p.lines[p.pos], true
}

func (p *parser) errorf(format string, args ...any) error {
	return &FormatError{Line: p.pos, Reason: fmt.Sprintf(format, args...)}
}

// schedule 返回课程中对应名称的安排的下标，不存在则创建
func (p *parser) schedule(course, name string) int {
	key := scheduleKey{course: course, name: name}
	if index, ok := p.schedules[key]; ok {
		return index
	}

	p.semester.Schedules = append(p.semester.Schedules, domain.Schedule{Course: course, Name: name})
	index := len(p.semester.Schedules) - 1
	p.schedules[key] = index
	return index
}

func (p *parser) parse() error {
	state := readingCourse

	var (
		course     string
		scheduleAt int
		entry      domain.Entry
		annotation []string
	)

	for p.pos < len(p.lines) {
		line := p.next()

		if line == "" {
			// 在等待下一个条目编号时遇到空行，说明这门课程已经结束
			if state == readingID {
				state = readingCourse
			}
			continue
		}

		switch state {
		case readingCourse:
			course = line
			state = readingID

		case readingID:
			if !isNumber(line) {
				return p.errorf("条目编号 %q 不是数字", line)
			}
			entry = domain.Entry{Identifier: line}
			annotation = annotation[:0]
			state = readingSchedule

		case readingSchedule:
			scheduleAt = p.schedule(course, line)
			state = readingCapacity

		case readingCapacity:
			if !capacityRegex.MatchString(line) {
				return p.errorf("容量 %q 的格式应为 N/M", line)
			}
			annotation = append(annotation, line)
			state = readingTime

		case readingTime:
			interval, err := p.parseTime(line)
			if err != nil {
				return err
			}
			entry.Timeslots = append(entry.Timeslots, interval)

			// 下一行仍是上课时间则继续读取时间
			if next, ok := p.peek(); ok && timeRegex.MatchString(next) {
				continue
			}

			// 剩下的都是附加信息，直到空行或者下一个条目的编号
			for {
				next, ok := p.peek()
				if !ok || next == "" || isNumber(next) {
					break
				}
				annotation = append(annotation, p.next())
			}

			entry.Annotation = strings.Join(annotation, "\n")
			schedule := &p.semester.Schedules[scheduleAt]
			schedule.Entries = append(schedule.Entries, entry)
			state = readingID
		}
	}

	if state != readingID && state != readingCourse {
		return p.errorf("文件在条目中间结束")
	}

	return nil
}

// parseTime 解析一行上课时间，以及紧随其后的单双周说明（如果有）
func (p *parser) parseTime(line string) (domain.TimeInterval, error) {
	match := timeRegex.FindStringSubmatch(line)
	if match == nil {
		return domain.TimeInterval{}, p.errorf("上课时间 %q 的格式应为 \"po 09:15 - 10:45\"", line)
	}
	lineNo := p.pos

	numbers := make([]int, 4)
	for i := range numbers {
		// 正则已保证是两位数字
		numbers[i], _ = strconv.Atoi(match[i+2])
	}

	start, err := domain.NewTimeStamp(numbers[0], numbers[1])
	if err != nil {
		return domain.TimeInterval{}, p.errorf("%v", err)
	}
	end, err := domain.NewTimeStamp(numbers[2], numbers[3])
	if err != nil {
		return domain.TimeInterval{}, p.errorf("%v", err)
	}

	parity := domain.ParityBoth
	if next, ok := p.peek(); ok {
		if value, found := parityMapping[next]; found {
			parity = value
			p.next()
		}
	}

	interval, err := domain.NewTimeInterval(dayMapping[match[1]], start, end, parity)
	if err != nil {
		return domain.TimeInterval{}, &FormatError{Line: lineNo, Reason: err.Error()}
	}

	return interval, nil
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
