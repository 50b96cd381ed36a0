package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"mrk/internal/domain/project"
)

// ProjectService is the project API the handler drives.
type ProjectService interface {
	List(ctx context.Context, filter project.ListFilter) (*project.Page, error)
	Counts(ctx context.Context, filter project.QueryFilter) (*project.Counts, error)
	Get(ctx context.Context, code string) (*project.ProjectView, error)
}

type ProjectHandler struct {
	service ProjectService
}

func NewProjectHandler(service ProjectService) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// HandleList returns classified projects filtered by status and the
// dashboard ranges, most urgent first.
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProjectFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		if errors.Is(err, project.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, r, "Failed to list projects", err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// HandleCounts returns the dashboard counters for the filtered projects.
func (h *ProjectHandler) HandleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Counts(r.Context(), parseQueryFilter(r))
	if err != nil {
		writeInternalError(w, r, "Failed to count projects", err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// HandleGet returns a single project with its timeline profile.
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.PathValue("code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "Project code is required")
		return
	}

	view, err := h.service.Get(r.Context(), code)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			writeError(w, http.StatusNotFound, "Project not found")
			return
		}
		writeInternalError(w, r, "Failed to get project", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func parseQueryFilter(r *http.Request) project.QueryFilter {
	return project.QueryFilter{
		Search:      queryString(r, "search"),
		Coordinator: queryString(r, "coordinator"),
		Client:      queryString(r, "client"),
		StartFrom:   queryString(r, "start_date"),
		StartTo:     queryString(r, "end_date"),
	}
}

func parseProjectFilter(r *http.Request) (project.ListFilter, error) {
	filter := project.ListFilter{
		QueryFilter:    parseQueryFilter(r),
		Status:         strings.ToLower(queryString(r, "status")),
		VigenciaRange:  queryString(r, "vigencia_range"),
		RenderingRange: queryString(r, "rendering_range"),
		ExecutionRange: queryString(r, "execution_range"),
	}

	var err error
	if filter.Page, err = queryInt(r, "page", 1); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryInt(r, "limit", project.DefaultLimit); err != nil {
		return filter, err
	}
	if filter.CustomMinDays, err = queryIntPtr(r, "custom_min_days"); err != nil {
		return filter, err
	}
	if filter.CustomMaxDays, err = queryIntPtr(r, "custom_max_days"); err != nil {
		return filter, err
	}
	if filter.CustomMinUsage, err = queryFloatPtr(r, "custom_min_usage"); err != nil {
		return filter, err
	}
	if filter.CustomMaxUsage, err = queryFloatPtr(r, "custom_max_usage"); err != nil {
		return filter, err
	}
	return filter, nil
}
