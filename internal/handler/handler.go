package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/queue"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/repository"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	jobs       *repository.JobStore
	publisher  *queue.Publisher
	translator ut.Translator

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, jobs *repository.JobStore, publisher *queue.Publisher) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		jobs:       jobs,
		publisher:  publisher,
		translator: trans,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteUser)
			})
		})

		r.Route("/semesters", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetAllSemesters)
			r.Post("/", h.CreateSemester)
			r.Post("/import", h.ImportSemester)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.semester)
				r.Get("/", h.GetSemester)
				r.Get("/priorities", h.GetSemesterPriorities)
				r.Get("/timetables", h.GetSemesterTimetables)
				r.Post("/generate", h.GenerateTimetable)

				// 只有学期的创建者和管理员可以修改学期
				r.Group(func(r chi.Router) {
					r.Use(h.semesterOwner)
					r.Delete("/", h.DeleteSemester)
					r.Put("/priorities", h.UpdateSemesterPriorities)
					r.Patch("/schedules/{scheduleID}", h.UpdateScheduleIgnored)
					r.Patch("/entries/{entryID}", h.UpdateEntryBonus)
				})
			})
		})

		r.With(h.myInfo).Get("/jobs/{jobID}", h.GetGenerationJob)

		r.Route("/timetables/{id}", func(r chi.Router) {
			r.Use(h.timetable)
			r.Get("/", h.GetTimetable)
			r.Get("/text", h.GetTimetableText)
		})
	})
}
