package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/timetabler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetabler/backend/internal/outputter"
)

func (h *Handler) GetSemesterTimetables(w http.ResponseWriter, r *http.Request) {
	semester := r.Context().Value(SemesterCtx).(*domain.Semester)

	timetables, err := h.repository.GetTimetablesBySemesterID(semester.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取课表列表成功", timetables)
}

func (h *Handler) GetTimetable(w http.ResponseWriter, r *http.Request) {
	timetable := r.Context().Value(TimetableCtx).(*domain.Timetable)
	h.successResponse(w, r, "获取课表成功", timetable)
}

// GetTimetableText 以纯文本返回课表，lang=cs 时使用捷克语标签
func (h *Handler) GetTimetableText(w http.ResponseWriter, r *http.Request) {
	timetable := r.Context().Value(TimetableCtx).(*domain.Timetable)
	labels := outputter.LabelsFor(r.URL.Query().Get("lang"))

	h.writeText(w, r, outputter.RenderString(timetable.Selections, labels))
}
