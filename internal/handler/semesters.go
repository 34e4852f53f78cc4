package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/importer"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/utils"
)

// createSemester 校验并保存学期，名称冲突时返回 false 并已写入响应
func (h *Handler) createSemester(w http.ResponseWriter, r *http.Request, semester *domain.Semester) bool {
	if err := utils.ValidateSemester(semester); err != nil {
		h.badRequest(w, r, err)
		return false
	}
	if err := utils.ValidatePriorities(semester.Priorities); err != nil {
		h.badRequest(w, r, err)
		return false
	}

	if err := h.repository.CreateSemester(semester); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "semesters_name_key" {
			h.errorResponse(w, r, "学期名称已存在")
			return false
		}
		h.internalServerError(w, r, err)
		return false
	}

	return true
}

func (h *Handler) GetAllSemesters(w http.ResponseWriter, r *http.Request) {
	semesters, err := h.repository.GetAllSemesters()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取学期列表成功", semesters)
}

func (h *Handler) CreateSemester(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string             `json:"name" validate:"required"`
		Description string             `json:"description"`
		Priorities  *domain.Priorities `json:"priorities"`
		Schedules   []domain.Schedule  `json:"schedules" validate:"required,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	semester := &domain.Semester{
		Name:        req.Name,
		Description: req.Description,
		Schedules:   req.Schedules,
		Priorities:  domain.DefaultPriorities(),
		CreatedBy:   myInfo.ID,
	}
	if req.Priorities != nil {
		semester.Priorities = *req.Priorities
	}
	semester.Normalize()

	if !h.createSemester(w, r, semester) {
		return
	}

	h.successResponse(w, r, "创建学期成功", semester)
}

// ImportSemester 从请求体中读取课程目录文本并创建学期，学期名称通过 name 参数指定
func (h *Handler) ImportSemester(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		h.errorResponse(w, r, "学期名称不能为空")
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.config.Server.MaxImportSize)
	semester, err := importer.Parse(body, name)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		var formatErr *importer.FormatError
		switch {
		case errors.As(err, &maxBytesErr):
			h.errorResponse(w, r, "导入的文件过大")
		case errors.As(err, &formatErr):
			h.badRequest(w, r, formatErr)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	semester.Description = r.URL.Query().Get("description")
	semester.CreatedBy = myInfo.ID

	if !h.createSemester(w, r, semester) {
		return
	}

	h.successResponse(w, r, "导入学期成功", semester)
}

func (h *Handler) GetSemester(w http.ResponseWriter, r *http.Request) {
	semester := r.Context().Value(SemesterCtx).(*domain.Semester)
	h.successResponse(w, r, "获取学期成功", semester)
}

func (h *Handler) DeleteSemester(w http.ResponseWriter, r *http.Request) {
	semester := r.Context().Value(SemesterCtx).(*domain.Semester)

	if err := h.repository.DeleteSemester(semester.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除学期成功", nil)
}

func (h *Handler) GetSemesterPriorities(w http.ResponseWriter, r *http.Request) {
	semester := r.Context().Value(SemesterCtx).(*domain.Semester)
	h.successResponse(w, r, "获取偏好设置成功", semester.Priorities)
}

func (h *Handler) UpdateSemesterPriorities(w http.ResponseWriter, r *http.Request) {
	var req domain.Priorities

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := utils.ValidatePriorities(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	semester := r.Context().Value(SemesterCtx).(*domain.Semester)
	semester.Priorities = req

	if err := h.repository.UpdateSemesterPriorities(semester); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新偏好设置失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新偏好设置成功", semester.Priorities)
}

func (h *Handler) UpdateScheduleIgnored(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := int64Param(r, "scheduleID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var req struct {
		Ignored *bool `json:"ignored" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	semester := r.Context().Value(SemesterCtx).(*domain.Semester)

	if err := h.repository.UpdateScheduleIgnored(semester.ID, scheduleID, *req.Ignored); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "该学期中不存在此安排")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新安排成功", nil)
}

func (h *Handler) UpdateEntryBonus(w http.ResponseWriter, r *http.Request) {
	entryID, err := int64Param(r, "entryID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var req struct {
		Bonus *float64 `json:"bonus" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	semester := r.Context().Value(SemesterCtx).(*domain.Semester)

	if err := h.repository.UpdateEntryBonus(semester.ID, entryID, *req.Bonus); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "该学期中不存在此可选项")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 超出范围的加分会被截断
	h.successResponse(w, r, "更新加分成功", domain.ClampBonus(*req.Bonus))
}
