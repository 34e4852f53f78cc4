package utils

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

// 大多数用户都是学生
func GenerateRandomRole() domain.Role {
	if rand.Intn(10) == 0 {
		return domain.RoleAdmin
	}
	return domain.RoleStudent
}

var digits = "0123456789"

func randomDigits(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(digits[rand.Intn(len(digits))])
	}
	return sb.String()
}

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, py := range pinyinArray {
		length := rand.Intn(len(py)) + 1
		username += py[:length]
	}

	return username + randomDigits(rand.Intn(3)+1)
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

var courseNames = []string{
	"高等数学", "线性代数", "概率论与数理统计", "离散数学", "数据结构与算法",
	"操作系统", "计算机网络", "数据库系统", "编译原理", "计算机组成原理",
	"软件工程", "人工智能导论", "机器学习", "数字图像处理", "信息安全基础",
	"大学物理", "大学英语", "程序设计基础", "分布式系统", "形式语言与自动机",
}

var scheduleNames = []string{"讲授", "习题课", "实验"}

// CourseCodeFromName 取课程名拼音的首字母作为课程代码，比如 "数据结构与算法" -> "SJJGYSF"
func CourseCodeFromName(name string) string {
	args := pinyin.NewArgs()
	args.Style = pinyin.FirstLetter

	var sb strings.Builder
	for _, letters := range pinyin.Pinyin(name, args) {
		if len(letters) > 0 {
			sb.WriteString(strings.ToUpper(letters[0]))
		}
	}
	return sb.String()
}

// GenerateRandomTimeInterval 在工作日 8 点到 21 点之间随机生成一个时间段
func GenerateRandomTimeInterval() domain.TimeInterval {
	lengths := []int{45, 90, 120}
	length := lengths[rand.Intn(len(lengths))]

	startMinutes := 8*60 + rand.Intn((21-8)*4)*15
	endMinutes := min(startMinutes+length, 22*60)

	parity := domain.ParityBoth
	switch rand.Intn(6) {
	case 0:
		parity = domain.ParityEven
	case 1:
		parity = domain.ParityOdd
	}

	return domain.TimeInterval{
		Day:    domain.Day(rand.Intn(5) + 1),
		Start:  domain.TimeStamp{Hour: uint8(startMinutes / 60), Minute: uint8(startMinutes % 60)},
		End:    domain.TimeStamp{Hour: uint8(endMinutes / 60), Minute: uint8(endMinutes % 60)},
		Parity: parity,
	}
}

// GenerateRandomSemester 随机生成一个包含 courses 门课程的学期，每门课程有 1 到 3 个安排
func GenerateRandomSemester(courses int) *domain.Semester {
	semester := &domain.Semester{
		Name:        "随机学期" + randomDigits(4),
		Description: fmt.Sprintf("随机生成的 %d 门课程", courses),
		Priorities:  domain.DefaultPriorities(),
	}

	perm := rand.Perm(len(courseNames))
	for i := 0; i < courses; i++ {
		name := courseNames[perm[i%len(perm)]]
		if i >= len(courseNames) {
			name += fmt.Sprintf("（%d）", i/len(courseNames)+1)
		}
		course := fmt.Sprintf("%s%03d", CourseCodeFromName(name), i+1)

		for _, scheduleName := range scheduleNames[:rand.Intn(len(scheduleNames))+1] {
			schedule := domain.Schedule{Course: course, Name: scheduleName}

			entries := rand.Intn(4) + 1
			for j := 0; j < entries; j++ {
				entry := domain.Entry{
					Identifier: fmt.Sprintf("%d", (i+1)*100+j+1),
					Annotation: fmt.Sprintf("%s %d/%d", name, rand.Intn(60), 60),
				}

				slots := rand.Intn(2) + 1
				for k := 0; k < slots; k++ {
					entry.Timeslots = append(entry.Timeslots, GenerateRandomTimeInterval())
				}
				schedule.Entries = append(schedule.Entries, entry)
			}

			semester.Schedules = append(semester.Schedules, schedule)
		}
	}

	semester.Normalize()
	return semester
}
