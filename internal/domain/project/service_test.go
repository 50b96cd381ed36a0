package project

import (
	"context"
	"errors"
	"testing"
	"time"

	"mrk/internal/domain/timeline"
)

// MockRepository is a mock implementation of Repository interface
type MockRepository struct {
	ListFunc              func(ctx context.Context, filter QueryFilter) ([]*Project, error)
	GetByCodeFunc         func(ctx context.Context, code string) (*Project, error)
	ListCodesAndNamesFunc func(ctx context.Context) ([]CodeName, error)

	listCalls int
}

func (m *MockRepository) List(ctx context.Context, filter QueryFilter) ([]*Project, error) {
	m.listCalls++
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockRepository) GetByCode(ctx context.Context, code string) (*Project, error) {
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, code)
	}
	return nil, nil
}

func (m *MockRepository) ListCodesAndNames(ctx context.Context) ([]CodeName, error) {
	if m.ListCodesAndNamesFunc != nil {
		return m.ListCodesAndNamesFunc(ctx)
	}
	return nil, nil
}

var (
	brt   = time.FixedZone("BRT", -3*60*60)
	now   = time.Date(2024, time.June, 15, 14, 30, 0, 0, brt)
	clock = timeline.FixedClock(now)
)

func day(n int) string {
	return now.AddDate(0, 0, n).Format("20060102")
}

func fixtures() []*Project {
	return []*Project{
		{Code: "A", StartDate: day(-100), EndDate: day(200), UsagePercent: 10, Coordinator: " Ana ", Client: "FINEP"},
		{Code: "B", StartDate: day(-100), EndDate: day(5), UsagePercent: 40, Coordinator: "Ana", Client: ""},
		{Code: "C", StartDate: day(-300), EndDate: day(-10), UsagePercent: 90, Coordinator: "", Client: "CNPq"},
		{Code: "D", StartDate: day(-400), EndDate: day(-90), ClosedDate: day(-30), UsagePercent: 100},
		{Code: "E", StartDate: day(10), EndDate: day(300), UsagePercent: 0},
		{Code: "F", StartDate: day(-50), EndDate: day(0), UsagePercent: 120},
		{Code: "G", StartDate: "", EndDate: "", UsagePercent: 60},
	}
}

func codes(items []ProjectView) string {
	s := ""
	for _, v := range items {
		s += v.Code
	}
	return s
}

func TestListFilter_Validate(t *testing.T) {
	tests := []struct {
		name      string
		filter    ListFilter
		wantErr   error
		wantLimit int
		wantPage  int
	}{
		{"defaults", ListFilter{}, nil, DefaultLimit, 1},
		{"clamps limit", ListFilter{Limit: 10000}, nil, MaxLimit, 1},
		{"keeps page", ListFilter{Page: 3, Limit: 20}, nil, 20, 3},
		{"bad status", ListFilter{Status: "archived"}, ErrInvalidStatus, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.filter
			err := f.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if f.Limit != tt.wantLimit || f.Page != tt.wantPage {
				t.Errorf("Validate() page=%d limit=%d, want page=%d limit=%d", f.Page, f.Limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestList_StatusFilters(t *testing.T) {
	repo := &MockRepository{
		ListFunc: func(ctx context.Context, filter QueryFilter) ([]*Project, error) {
			return fixtures(), nil
		},
	}
	svc := NewService(repo, clock, time.Minute)

	tests := []struct {
		status string
		want   string
	}{
		{StatusActive, "FBCAE"},
		{StatusAll, "FDBCAEG"},
		{StatusInExecution, "FBA"},
		{StatusRenderingAccounts, "C"},
		{StatusFinished, "D"},
		{StatusNotStarted, "E"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			page, err := svc.List(context.Background(), ListFilter{Status: tt.status, Limit: 50})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got := codes(page.Items); got != tt.want {
				t.Errorf("List(%s) = %q, want %q", tt.status, got, tt.want)
			}
			if page.Total != len(tt.want) {
				t.Errorf("Total = %d, want %d", page.Total, len(tt.want))
			}
		})
	}
}

func TestList_Stats(t *testing.T) {
	repo := &MockRepository{
		ListFunc: func(ctx context.Context, filter QueryFilter) ([]*Project, error) {
			return fixtures(), nil
		},
	}
	svc := NewService(repo, clock, time.Minute)

	page, err := svc.List(context.Background(), ListFilter{Status: StatusFinished})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := StatusStats{Total: 7, InExecution: 3, RenderingAccounts: 1, Finished: 1, NotStarted: 1}
	if page.Stats != want {
		t.Errorf("Stats = %+v, want %+v", page.Stats, want)
	}
}

func TestList_RangeFilters(t *testing.T) {
	repo := &MockRepository{
		ListFunc: func(ctx context.Context, filter QueryFilter) ([]*Project, error) {
			return fixtures(), nil
		},
	}
	svc := NewService(repo, clock, time.Minute)

	tests := []struct {
		name   string
		filter ListFilter
		want   string
	}{
		{"vigencia week", ListFilter{Status: StatusAll, VigenciaRange: timeline.RangeWeek}, "B"},
		{"vigencia today", ListFilter{Status: StatusAll, VigenciaRange: timeline.RangeToday}, "F"},
		{"rendering 60days", ListFilter{Status: StatusAll, RenderingRange: timeline.Range60Days}, "C"},
		{"execution exceeded", ListFilter{Status: StatusAll, ExecutionRange: timeline.RangeExceeded}, "F"},
		{"execution high", ListFilter{Status: StatusAll, ExecutionRange: timeline.RangeHigh}, "DC"},
		{
			"custom vigencia",
			ListFilter{Status: StatusAll, VigenciaRange: timeline.RangeCustom, CustomMinDays: intPtr(100), CustomMaxDays: intPtr(250)},
			"A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got := codes(page.Items); got != tt.want {
				t.Errorf("List() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestList_Pagination(t *testing.T) {
	repo := &MockRepository{
		ListFunc: func(ctx context.Context, filter QueryFilter) ([]*Project, error) {
			return fixtures(), nil
		},
	}
	svc := NewService(repo, clock, time.Minute)

	page, err := svc.List(context.Background(), ListFilter{Status: StatusAll, Page: 2, Limit: 3})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got := codes(page.Items); got != "CAE" {
		t.Errorf("page 2 = %q, want %q", got, "CAE")
	}

	page, err = svc.List(context.Background(), ListFilter{Status: StatusAll, Page: 9, Limit: 3})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Items == nil || len(page.Items) != 0 {
		t.Errorf("past the end: items = %v, want empty slice", page.Items)
	}
	if page.Total != 7 {
		t.Errorf("Total = %d, want 7", page.Total)
	}
}

func TestList_CachesRowsButReclassifies(t *testing.T) {
	repo := &MockRepository{
		ListFunc: func(ctx context.Context, filter QueryFilter) ([]*Project, error) {
			return []*Project{{Code: "X", StartDate: day(-10), EndDate: day(1)}}, nil
		},
	}
	movable := &movingClock{t: now}
	svc := NewService(repo, movable, time.Minute)

	first, err := svc.List(context.Background(), ListFilter{Status: StatusAll})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	movable.t = now.AddDate(0, 0, 1)
	second, err := svc.List(context.Background(), ListFilter{Status: StatusAll})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if repo.listCalls != 1 {
		t.Errorf("repository calls = %d, want 1", repo.listCalls)
	}
	if *first.Items[0].Profile.DaysRemaining != 1 || *second.Items[0].Profile.DaysRemaining != 0 {
		t.Errorf("DaysRemaining = %d then %d, want 1 then 0",
			*first.Items[0].Profile.DaysRemaining, *second.Items[0].Profile.DaysRemaining)
	}

	svc.Invalidate()
	if _, err := svc.List(context.Background(), ListFilter{Status: StatusAll}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if repo.listCalls != 2 {
		t.Errorf("repository calls after Invalidate = %d, want 2", repo.listCalls)
	}
}

func TestList_RepositoryError(t *testing.T) {
	boom := errors.New("connection refused")
	repo := &MockRepository{
		ListFunc: func(ctx context.Context, filter QueryFilter) ([]*Project, error) {
			return nil, boom
		},
	}
	svc := NewService(repo, clock, time.Minute)

	if _, err := svc.List(context.Background(), ListFilter{}); !errors.Is(err, boom) {
		t.Errorf("List() error = %v, want %v", err, boom)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		mock    func(ctx context.Context, code string) (*Project, error)
		wantErr error
	}{
		{
			name: "found",
			code: " B ",
			mock: func(ctx context.Context, code string) (*Project, error) {
				if code != "B" {
					t.Errorf("GetByCode(%q), want trimmed code", code)
				}
				return &Project{Code: "B", StartDate: day(-1), EndDate: day(5)}, nil
			},
		},
		{
			name: "not found error",
			code: "Z",
			mock: func(ctx context.Context, code string) (*Project, error) {
				return nil, ErrProjectNotFound
			},
			wantErr: ErrProjectNotFound,
		},
		{
			name: "nil project",
			code: "Z",
			mock: func(ctx context.Context, code string) (*Project, error) {
				return nil, nil
			},
			wantErr: ErrProjectNotFound,
		},
		{
			name:    "blank code",
			code:    "  ",
			wantErr: ErrProjectNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&MockRepository{GetByCodeFunc: tt.mock}, clock, time.Minute)
			view, err := svc.Get(context.Background(), tt.code)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Get() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && (view.Profile.DaysRemaining == nil || *view.Profile.DaysRemaining != 5) {
				t.Errorf("Get() profile = %+v", view.Profile)
			}
		})
	}
}

func TestCounts(t *testing.T) {
	repo := &MockRepository{
		ListFunc: func(ctx context.Context, filter QueryFilter) ([]*Project, error) {
			return fixtures(), nil
		},
	}
	svc := NewService(repo, clock, time.Minute)

	counts, err := svc.Counts(context.Background(), QueryFilter{})
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}

	wantStatus := StatusCounts{NotStarted: 1, InExecution: 3, Closed: 1, RenderingAccounts: 1}
	if counts.ByStatus != wantStatus {
		t.Errorf("ByStatus = %+v, want %+v", counts.ByStatus, wantStatus)
	}

	wantDays := DayCounts{Today: 1, Week: 1, Month: 0, TwoMonths: 0}
	if counts.ByDaysRemaining != wantDays {
		t.Errorf("ByDaysRemaining = %+v, want %+v", counts.ByDaysRemaining, wantDays)
	}

	wantExec := ExecCounts{Low: 3, Medium: 1, High: 2, Exceeded: 1}
	if counts.ByExecution != wantExec {
		t.Errorf("ByExecution = %+v, want %+v", counts.ByExecution, wantExec)
	}

	if counts.ByCoordinator["Ana"] != 2 || counts.ByCoordinator[NoCoordinator] != 5 {
		t.Errorf("ByCoordinator = %v", counts.ByCoordinator)
	}
	if counts.ByClient["FINEP"] != 1 || counts.ByClient["CNPq"] != 1 || counts.ByClient[NoClient] != 5 {
		t.Errorf("ByClient = %v", counts.ByClient)
	}
}

func TestIsClosed(t *testing.T) {
	today := timeline.Today(clock)

	tests := []struct {
		closed string
		want   bool
	}{
		{"", false},
		{"        ", false},
		{day(0), true},
		{day(-5), true},
		{day(1), false},
	}

	for _, tt := range tests {
		if got := IsClosed(&Project{ClosedDate: tt.closed}, today); got != tt.want {
			t.Errorf("IsClosed(%q) = %v, want %v", tt.closed, got, tt.want)
		}
	}
}

type movingClock struct{ t time.Time }

func (c *movingClock) Now() time.Time { return c.t }

func intPtr(v int) *int { return &v }
