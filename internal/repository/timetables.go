package repository

import (
	"encoding/json"

	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
)

func (r *Repository) InsertTimetable(t *domain.Timetable) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	scores, err := json.Marshal(t.Scores)
	if err != nil {
		return err
	}
	selections, err := json.Marshal(t.Selections)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO timetables (semester_id, job_id, fitness, scores, selections)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	args := []any{t.SemesterID, t.JobID, t.Fitness, string(scores), string(selections)}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&t.ID, &t.CreatedAt, &t.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetTimetableByID(id int64) (*domain.Timetable, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		SELECT semester_id, job_id, fitness, scores, selections, created_at, version
		FROM timetables WHERE id = $1
	`

	t := &domain.Timetable{
		ID: id,
	}

	var scores, selections []byte
	dst := []any{&t.SemesterID, &t.JobID, &t.Fitness, &scores, &selections, &t.CreatedAt, &t.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(scores, &t.Scores); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(selections, &t.Selections); err != nil {
		return nil, err
	}

	return t, nil
}

// GetTimetablesBySemesterID 按生成时间倒序返回学期的所有课表，不包含具体的选择
func (r *Repository) GetTimetablesBySemesterID(semesterID int64) ([]*domain.Timetable, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		SELECT id, job_id, fitness, scores, created_at, version
		FROM timetables WHERE semester_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query, semesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	timetables := make([]*domain.Timetable, 0)
	for rows.Next() {
		t := &domain.Timetable{
			SemesterID: semesterID,
		}

		var scores []byte
		if err := rows.Scan(&t.ID, &t.JobID, &t.Fitness, &scores, &t.CreatedAt, &t.Version); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(scores, &t.Scores); err != nil {
			return nil, err
		}

		timetables = append(timetables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return timetables, nil
}
