package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
)

const catalog = `BI-PA1
101
Lecture
30/60
po 09:15 - 10:45
102
Lecture
30/60
út 11:00 - 12:30
`

type fakeCreator struct {
	created []*domain.Semester
}

func (f *fakeCreator) CreateSemester(s *domain.Semester) error {
	s.ID = int64(len(f.created) + 1)
	f.created = append(f.created, s)
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestApplyBonuses(t *testing.T) {
	semester := &domain.Semester{
		Schedules: []domain.Schedule{
			{Course: "BI-PA1", Name: "Lecture", Entries: []domain.Entry{{Identifier: "101"}, {Identifier: "102"}}},
		},
	}

	csv := "课程,安排,编号,加分\nBI-PA1,Lecture,102,25\nBI-PA1,Lecture,999,1\nBI-PA1,Lecture,101,abc\n"
	applied, err := ApplyBonuses(semester, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, 0.0, semester.Schedules[0].Entries[0].Bonus)
	assert.Equal(t, domain.MaxBonus, semester.Schedules[0].Entries[1].Bonus)
}

func TestApplyBonusesMissingColumn(t *testing.T) {
	_, err := ApplyBonuses(&domain.Semester{}, strings.NewReader("课程,安排,加分\n"))
	assert.Error(t, err)
}

func TestSeedCatalog(t *testing.T) {
	path := writeFile(t, "winter.txt", catalog)
	bonusPath := writeFile(t, "bonus.csv", "课程,安排,编号,加分\nBI-PA1,Lecture,101,-3\n")

	creator := &fakeCreator{}
	semester, err := SeedCatalog(creator, path, bonusPath)
	require.NoError(t, err)

	require.Len(t, creator.created, 1)
	assert.Equal(t, "winter", semester.Name)
	require.Len(t, semester.Schedules, 1)
	assert.Equal(t, -3.0, semester.Schedules[0].Entries[0].Bonus)
}

func TestSeedCatalogMissingFile(t *testing.T) {
	_, err := SeedCatalog(&fakeCreator{}, filepath.Join(t.TempDir(), "missing.txt"), "")
	assert.Error(t, err)
}
