package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
)

func nullableUserID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func (r *Repository) CreateSemester(s *domain.Semester) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO semesters (
			name, description, created_by,
			keep_coherent_in_day, keep_coherent_in_week,
			penalise_before_hour, penalise_after_hour, penalise_many_consecutive_hours,
			minutes_to_be_consecutive
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, version
	`
	p := s.Priorities
	args := []any{
		s.Name, s.Description, nullableUserID(s.CreatedBy),
		p.KeepCoherentInDay, p.KeepCoherentInWeek,
		p.PenaliseBeforeHour, p.PenaliseAfterHour, p.PenaliseManyConsecutiveHours,
		p.MinutesToBeConsecutive,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.CreatedAt, &s.Version); err != nil {
		return err
	}

	for i := range s.Schedules {
		schedule := &s.Schedules[i]

		query = `
			INSERT INTO semester_schedules (semester_id, position, course, name, ignored)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		if err := tx.QueryRowContext(ctx, query, s.ID, i, schedule.Course, schedule.Name, schedule.Ignored).Scan(&schedule.ID); err != nil {
			return err
		}

		for j := range schedule.Entries {
			entry := &schedule.Entries[j]

			timeslots, err := json.Marshal(entry.Timeslots)
			if err != nil {
				return err
			}

			query = `
				INSERT INTO schedule_entries (schedule_id, position, identifier, annotation, bonus, timeslots)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id
			`
			params := []any{schedule.ID, j, entry.Identifier, entry.Annotation, entry.Bonus, string(timeslots)}
			if err := tx.QueryRowContext(ctx, query, params...).Scan(&entry.ID); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllSemesters() ([]*domain.SemesterMeta, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		SELECT s.id, s.name, s.description, s.created_by, s.created_at, COUNT(ss.id)
		FROM semesters s
		LEFT JOIN semester_schedules ss ON s.id = ss.semester_id
		GROUP BY s.id
		ORDER BY s.id DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	semesters := make([]*domain.SemesterMeta, 0)
	for rows.Next() {
		meta := &domain.SemesterMeta{}
		var createdBy sql.NullInt64
		if err := rows.Scan(&meta.ID, &meta.Name, &meta.Description, &createdBy, &meta.CreatedAt, &meta.ScheduleCount); err != nil {
			return nil, err
		}
		meta.CreatedBy = createdBy.Int64
		semesters = append(semesters, meta)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return semesters, nil
}

// GetSemesterByID 读取学期及其所有安排和可选项，安排和可选项保持创建时的顺序
func (r *Repository) GetSemesterByID(id int64) (*domain.Semester, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		SELECT
			s.name,
			s.description,
			s.created_by,
			s.keep_coherent_in_day,
			s.keep_coherent_in_week,
			s.penalise_before_hour,
			s.penalise_after_hour,
			s.penalise_many_consecutive_hours,
			s.minutes_to_be_consecutive,
			s.created_at,
			s.version,
			ss.id,
			ss.course,
			ss.name,
			ss.ignored,
			se.id,
			se.identifier,
			se.annotation,
			se.bonus,
			se.timeslots
		FROM semesters s
		LEFT JOIN semester_schedules ss ON s.id = ss.semester_id
		LEFT JOIN schedule_entries se ON ss.id = se.schedule_id
		WHERE s.id = $1
		ORDER BY ss.position, se.position
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s := &domain.Semester{
		ID: id,
	}
	found := false

	for rows.Next() {
		var row struct {
			CreatedBy sql.NullInt64

			ScheduleID      sql.NullInt64
			Course          sql.NullString
			ScheduleName    sql.NullString
			ScheduleIgnored sql.NullBool

			EntryID    sql.NullInt64
			Identifier sql.NullString
			Annotation sql.NullString
			Bonus      sql.NullFloat64
			Timeslots  []byte
		}

		dst := []any{
			&s.Name,
			&s.Description,
			&row.CreatedBy,
			&s.Priorities.KeepCoherentInDay,
			&s.Priorities.KeepCoherentInWeek,
			&s.Priorities.PenaliseBeforeHour,
			&s.Priorities.PenaliseAfterHour,
			&s.Priorities.PenaliseManyConsecutiveHours,
			&s.Priorities.MinutesToBeConsecutive,
			&s.CreatedAt,
			&s.Version,
			&row.ScheduleID,
			&row.Course,
			&row.ScheduleName,
			&row.ScheduleIgnored,
			&row.EntryID,
			&row.Identifier,
			&row.Annotation,
			&row.Bonus,
			&row.Timeslots,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		found = true
		s.CreatedBy = row.CreatedBy.Int64

		if !row.ScheduleID.Valid {
			// 说明该学期没有任何安排
			continue
		}

		// 按 position 排序后同一个安排的行是连续的
		if len(s.Schedules) == 0 || s.Schedules[len(s.Schedules)-1].ID != row.ScheduleID.Int64 {
			s.Schedules = append(s.Schedules, domain.Schedule{
				ID:      row.ScheduleID.Int64,
				Course:  row.Course.String,
				Name:    row.ScheduleName.String,
				Ignored: row.ScheduleIgnored.Bool,
				Entries: make([]domain.Entry, 0),
			})
		}

		if !row.EntryID.Valid {
			continue
		}

		entry := domain.Entry{
			ID:         row.EntryID.Int64,
			Identifier: row.Identifier.String,
			Annotation: row.Annotation.String,
			Bonus:      row.Bonus.Float64,
		}
		if err := json.Unmarshal(row.Timeslots, &entry.Timeslots); err != nil {
			return nil, err
		}

		schedule := &s.Schedules[len(s.Schedules)-1]
		schedule.Entries = append(schedule.Entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !found {
		return nil, sql.ErrNoRows
	}

	s.Normalize()
	return s, nil
}

func (r *Repository) DeleteSemester(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		DELETE FROM semesters WHERE id = $1
	`

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}

// UpdateSemesterPriorities 使用乐观锁更新学期的偏好设置
func (r *Repository) UpdateSemesterPriorities(s *domain.Semester) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		UPDATE semesters
		SET
			keep_coherent_in_day = $1,
			keep_coherent_in_week = $2,
			penalise_before_hour = $3,
			penalise_after_hour = $4,
			penalise_many_consecutive_hours = $5,
			minutes_to_be_consecutive = $6,
			version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING version
	`

	p := s.Priorities
	params := []any{
		p.KeepCoherentInDay, p.KeepCoherentInWeek,
		p.PenaliseBeforeHour, p.PenaliseAfterHour, p.PenaliseManyConsecutiveHours,
		p.MinutesToBeConsecutive,
		s.ID, s.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&s.Version); err != nil {
		return err
	}

	return nil
}

// UpdateScheduleIgnored 设置某个安排是否被忽略，安排不属于该学期时返回 sql.ErrNoRows
func (r *Repository) UpdateScheduleIgnored(semesterID, scheduleID int64, ignored bool) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		UPDATE semester_schedules
		SET ignored = $1
		WHERE id = $2 AND semester_id = $3
	`

	result, err := r.dbpool.ExecContext(ctx, query, ignored, scheduleID, semesterID)
	if err != nil {
		return err
	}

	return checkAffected(result)
}

// UpdateEntryBonus 设置某个可选项的加分，可选项不属于该学期时返回 sql.ErrNoRows
func (r *Repository) UpdateEntryBonus(semesterID, entryID int64, bonus float64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		UPDATE schedule_entries se
		SET bonus = $1
		FROM semester_schedules ss
		WHERE se.id = $2 AND se.schedule_id = ss.id AND ss.semester_id = $3
	`

	result, err := r.dbpool.ExecContext(ctx, query, domain.ClampBonus(bonus), entryID, semesterID)
	if err != nil {
		return err
	}

	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
