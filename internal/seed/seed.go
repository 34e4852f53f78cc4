package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/importer"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/utils"
)

// bonusHeader 加分文件的表头，每一行给某个可选项设置加分
var bonusHeader = []string{"课程", "安排", "编号", "加分"}

type SemesterCreator interface {
	CreateSemester(s *domain.Semester) error
}

// ApplyBonuses 从 csv 中读取加分并写入学期，找不到对应可选项的行只记录日志
func ApplyBonuses(semester *domain.Semester, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("读取表头失败: %w", err)
	}
	columns := make(map[string]int)
	for i, header := range headers {
		columns[strings.TrimSpace(header)] = i
	}
	for _, header := range bonusHeader {
		if _, ok := columns[header]; !ok {
			return 0, fmt.Errorf("没有找到列 %q", header)
		}
	}

	applied := 0
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return applied, fmt.Errorf("读取文件失败: %w", err)
		}

		course := row[columns["课程"]]
		name := row[columns["安排"]]
		identifier := row[columns["编号"]]

		bonus, err := strconv.ParseFloat(row[columns["加分"]], 64)
		if err != nil {
			slog.Error("加分不是合法的数字", "row", row)
			continue
		}

		entry := findEntry(semester, course, name, identifier)
		if entry == nil {
			slog.Error("没有找到对应的可选项", "course", course, "schedule", name, "identifier", identifier)
			continue
		}

		entry.SetBonus(bonus)
		applied++
	}

	return applied, nil
}

func findEntry(semester *domain.Semester, course, name, identifier string) *domain.Entry {
	for i := range semester.Schedules {
		schedule := &semester.Schedules[i]
		if schedule.Course != course || schedule.Name != name {
			continue
		}
		for j := range schedule.Entries {
			if schedule.Entries[j].Identifier == identifier {
				return &schedule.Entries[j]
			}
		}
	}
	return nil
}

// SeedCatalog 导入课程目录文件，bonusPath 不为空时同时导入加分
func SeedCatalog(repo SemesterCreator, path, bonusPath string) (*domain.Semester, error) {
	semester, err := importer.LoadFile(path)
	if err != nil {
		return nil, err
	}

	if bonusPath != "" {
		file, err := os.Open(bonusPath)
		if err != nil {
			return nil, fmt.Errorf("打开加分文件失败: %w", err)
		}
		defer file.Close()

		applied, err := ApplyBonuses(semester, file)
		if err != nil {
			return nil, err
		}
		slog.Info("导入加分完成", "count", applied)
	}

	if err := utils.ValidateSemester(semester); err != nil {
		return nil, err
	}

	if err := repo.CreateSemester(semester); err != nil {
		return nil, err
	}

	return semester, nil
}
