package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/utils"
)

// GenerateTimetable 创建一个排课任务并投递到消息队列，由 evolver 异步执行
func (h *Handler) GenerateTimetable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GenerationSize int    `json:"generationSize" validate:"omitempty,min=1"`
		MaxGenerations int    `json:"maxGenerations" validate:"omitempty,min=1"`
		Seed           uint64 `json:"seed"`
	}

	// 请求体可以为空，此时全部使用默认参数
	if err := h.readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.GenerationSize > h.config.Evolution.MaxGenerationSize {
		h.errorResponse(w, r, fmt.Sprintf("代的大小不能超过 %d", h.config.Evolution.MaxGenerationSize))
		return
	}

	semester := r.Context().Value(SemesterCtx).(*domain.Semester)
	if err := utils.ValidateSemester(semester); err != nil {
		h.badRequest(w, r, err)
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	now := time.Now()
	job := &domain.GenerationJob{
		ID:             uuid.NewString(),
		SemesterID:     semester.ID,
		GenerationSize: req.GenerationSize,
		MaxGenerations: req.MaxGenerations,
		Seed:           req.Seed,
		RequestedBy:    myInfo.ID,
		Status:         domain.JobStatusQueued,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.jobs.SaveJob(job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.publisher.Publish(r.Context(), h.config.RabbitMQ.EvolutionQueue, job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "排课任务已提交", job)
}

func (h *Handler) GetGenerationJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetJob(chi.URLParam(r, "jobID"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrJobNotFound):
			h.errorResponse(w, r, "排课任务不存在或已过期")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	if myInfo.Role != domain.RoleAdmin && job.RequestedBy != myInfo.ID {
		h.errorResponse(w, r, "无权查看该排课任务")
		return
	}

	h.successResponse(w, r, "获取排课任务成功", job)
}
