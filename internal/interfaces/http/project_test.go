package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mrk/internal/domain/project"
)

// MockProjectService implements ProjectService for testing
type MockProjectService struct {
	ListFunc   func(ctx context.Context, filter project.ListFilter) (*project.Page, error)
	CountsFunc func(ctx context.Context, filter project.QueryFilter) (*project.Counts, error)
	GetFunc    func(ctx context.Context, code string) (*project.ProjectView, error)
}

func (m *MockProjectService) List(ctx context.Context, filter project.ListFilter) (*project.Page, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return &project.Page{}, nil
}

func (m *MockProjectService) Counts(ctx context.Context, filter project.QueryFilter) (*project.Counts, error) {
	if m.CountsFunc != nil {
		return m.CountsFunc(ctx, filter)
	}
	return &project.Counts{}, nil
}

func (m *MockProjectService) Get(ctx context.Context, code string) (*project.ProjectView, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, code)
	}
	return nil, project.ErrProjectNotFound
}

func TestProjectHandleList(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		listErr        error
		expectedStatus int
		check          func(t *testing.T, f project.ListFilter)
	}{
		{
			name:           "Defaults",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, f project.ListFilter) {
				if f.Page != 1 || f.Limit != project.DefaultLimit {
					t.Errorf("page/limit = %d/%d", f.Page, f.Limit)
				}
				if f.Status != "" {
					t.Errorf("status = %q, want empty so the service applies its default", f.Status)
				}
			},
		},
		{
			name: "All filters",
			query: "?page=2&limit=25&search=lab&coordinator=Ana&client=FINEP&start_date=20240101&end_date=20241231" +
				"&status=IN_EXECUTION&vigencia_range=custom&custom_min_days=5&custom_max_days=30" +
				"&rendering_range=week&execution_range=custom&custom_min_usage=10.5&custom_max_usage=90",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, f project.ListFilter) {
				if f.Page != 2 || f.Limit != 25 {
					t.Errorf("page/limit = %d/%d", f.Page, f.Limit)
				}
				if f.Search != "lab" || f.Coordinator != "Ana" || f.Client != "FINEP" {
					t.Errorf("query filter = %+v", f.QueryFilter)
				}
				if f.StartFrom != "20240101" || f.StartTo != "20241231" {
					t.Errorf("start range = %q..%q", f.StartFrom, f.StartTo)
				}
				if f.Status != project.StatusInExecution {
					t.Errorf("status = %q", f.Status)
				}
				if f.VigenciaRange != "custom" || f.RenderingRange != "week" || f.ExecutionRange != "custom" {
					t.Errorf("ranges = %q/%q/%q", f.VigenciaRange, f.RenderingRange, f.ExecutionRange)
				}
				if f.CustomMinDays == nil || *f.CustomMinDays != 5 || f.CustomMaxDays == nil || *f.CustomMaxDays != 30 {
					t.Errorf("custom days = %v..%v", f.CustomMinDays, f.CustomMaxDays)
				}
				if f.CustomMinUsage == nil || *f.CustomMinUsage != 10.5 || f.CustomMaxUsage == nil || *f.CustomMaxUsage != 90 {
					t.Errorf("custom usage = %v..%v", f.CustomMinUsage, f.CustomMaxUsage)
				}
			},
		},
		{name: "Bad page", query: "?page=x", expectedStatus: http.StatusBadRequest},
		{name: "Bad custom days", query: "?custom_min_days=soon", expectedStatus: http.StatusBadRequest},
		{name: "Bad custom usage", query: "?custom_max_usage=lots", expectedStatus: http.StatusBadRequest},
		{name: "Invalid status", query: "?status=archived", listErr: project.ErrInvalidStatus, expectedStatus: http.StatusBadRequest},
		{name: "Store failure", listErr: errors.New("db down"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewProjectHandler(&MockProjectService{
				ListFunc: func(ctx context.Context, filter project.ListFilter) (*project.Page, error) {
					if tt.check != nil {
						tt.check(t, filter)
					}
					if tt.listErr != nil {
						return nil, tt.listErr
					}
					return &project.Page{Total: 1, Page: 1, Limit: 10, Items: []project.ProjectView{{}}}, nil
				},
			})

			rr := httptest.NewRecorder()
			handler.HandleList(rr, httptest.NewRequest(http.MethodGet, "/api/projects"+tt.query, nil))

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tt.expectedStatus, rr.Body.String())
			}
		})
	}
}

func TestProjectHandleCounts(t *testing.T) {
	handler := NewProjectHandler(&MockProjectService{
		CountsFunc: func(ctx context.Context, filter project.QueryFilter) (*project.Counts, error) {
			if filter.Coordinator != "Ana" {
				t.Errorf("coordinator = %q, want Ana", filter.Coordinator)
			}
			return &project.Counts{
				ByStatus:      project.StatusCounts{InExecution: 3},
				ByCoordinator: map[string]int{"Ana": 3},
			}, nil
		},
	})

	rr := httptest.NewRecorder()
	handler.HandleCounts(rr, httptest.NewRequest(http.MethodGet, "/api/projects/counts?coordinator=Ana", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var counts project.Counts
	if err := json.NewDecoder(rr.Body).Decode(&counts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if counts.ByStatus.InExecution != 3 || counts.ByCoordinator["Ana"] != 3 {
		t.Errorf("counts = %+v", counts)
	}
}

func TestProjectHandleGet(t *testing.T) {
	tests := []struct {
		name           string
		code           string
		getErr         error
		expectedStatus int
	}{
		{name: "Success", code: "PRJ-01", expectedStatus: http.StatusOK},
		{name: "Not found", code: "NOPE", getErr: project.ErrProjectNotFound, expectedStatus: http.StatusNotFound},
		{name: "Store failure", code: "PRJ-01", getErr: errors.New("db down"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewProjectHandler(&MockProjectService{
				GetFunc: func(ctx context.Context, code string) (*project.ProjectView, error) {
					if code != tt.code {
						t.Errorf("code = %q, want %q", code, tt.code)
					}
					if tt.getErr != nil {
						return nil, tt.getErr
					}
					return &project.ProjectView{Project: project.Project{Code: code}}, nil
				},
			})

			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/projects/{code}", handler.HandleGet)

			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/projects/"+tt.code, nil))

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
		})
	}
}
