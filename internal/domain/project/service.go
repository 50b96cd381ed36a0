package project

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"mrk/internal/domain/timeline"
)

// DefaultCacheTTL matches how often the ERP mirror is refreshed.
const DefaultCacheTTL = 60 * time.Second

// Service contains the business logic for project listing
type Service struct {
	repo  Repository
	clock timeline.Clock
	cache *cache.Cache
}

// NewService creates a new project service. Rows loaded from storage are
// cached for ttl; classification is always recomputed against the clock.
func NewService(repo Repository, clock timeline.Clock, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		repo:  repo,
		clock: clock,
		cache: cache.New(ttl, 2*ttl),
	}
}

func cacheKey(f QueryFilter) string {
	return fmt.Sprintf("projects|%s|%s|%s|%s|%s", f.Search, f.Coordinator, f.Client, f.StartFrom, f.StartTo)
}

func (s *Service) load(ctx context.Context, filter QueryFilter) ([]*Project, error) {
	key := cacheKey(filter)
	if cached, found := s.cache.Get(key); found {
		return cached.([]*Project), nil
	}

	projects, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, projects, cache.DefaultExpiration)
	return projects, nil
}

// Invalidate drops every cached listing.
func (s *Service) Invalidate() {
	s.cache.Flush()
}

// List returns one page of classified projects matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (*Page, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	projects, err := s.load(ctx, filter.QueryFilter)
	if err != nil {
		return nil, err
	}

	today := timeline.Today(s.clock)
	stats := StatusStats{Total: len(projects)}
	views := make([]ProjectView, 0, len(projects))

	for _, p := range projects {
		v := classify(p, today)
		stats.add(v)

		if !matchesStatus(filter.Status, v) || !matchesRanges(filter, v, today) {
			continue
		}
		views = append(views, v)
	}

	sortByUrgency(views)

	page := &Page{
		Total: len(views),
		Page:  filter.Page,
		Limit: filter.Limit,
		Stats: stats,
	}

	start := (filter.Page - 1) * filter.Limit
	if start >= len(views) {
		page.Items = []ProjectView{}
		return page, nil
	}
	end := min(start+filter.Limit, len(views))
	page.Items = views[start:end]

	return page, nil
}

// Get returns a single classified project.
func (s *Service) Get(ctx context.Context, code string) (*ProjectView, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrProjectNotFound
	}

	p, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}

	v := classify(p, timeline.Today(s.clock))
	return &v, nil
}

// Counts tallies the projects matching the storage filter into the sidebar
// buckets.
func (s *Service) Counts(ctx context.Context, filter QueryFilter) (*Counts, error) {
	projects, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}

	today := timeline.Today(s.clock)
	counts := &Counts{
		ByCoordinator: make(map[string]int),
		ByClient:      make(map[string]int),
	}

	for _, p := range projects {
		v := classify(p, today)

		switch {
		case v.Profile.NotStarted:
			counts.ByStatus.NotStarted++
		case v.Profile.InExecution:
			counts.ByStatus.InExecution++
		case v.Closed:
			counts.ByStatus.Closed++
		case v.Profile.DaysSinceEnd > 0:
			counts.ByStatus.RenderingAccounts++
		}

		if d := v.Profile.DaysRemaining; d != nil && *d >= 0 {
			switch {
			case *d == 0:
				counts.ByDaysRemaining.Today++
			case *d <= 7:
				counts.ByDaysRemaining.Week++
			case *d <= 30:
				counts.ByDaysRemaining.Month++
			case *d <= 60:
				counts.ByDaysRemaining.TwoMonths++
			}
		}

		switch usage := p.UsagePercent; {
		case usage > 100:
			counts.ByExecution.Exceeded++
		case usage >= 85:
			counts.ByExecution.High++
		case usage >= 50:
			counts.ByExecution.Medium++
		default:
			counts.ByExecution.Low++
		}

		counts.ByCoordinator[orDefault(p.Coordinator, NoCoordinator)]++
		counts.ByClient[orDefault(p.Client, NoClient)]++
	}

	return counts, nil
}

// IsClosed reports whether the project has a valid closing date on or before
// today.
func IsClosed(p *Project, today time.Time) bool {
	closed, ok := timeline.ParseDate(p.ClosedDate, today.Location())
	if !ok {
		return false
	}
	return !closed.After(today)
}

func classify(p *Project, today time.Time) ProjectView {
	return ProjectView{
		Project: *p,
		Profile: timeline.Classify(p.StartDate, p.EndDate, p.UsagePercent, today),
		Closed:  IsClosed(p, today),
	}
}

func (st *StatusStats) add(v ProjectView) {
	if v.Profile.DaysRemaining == nil || !validDate(v.StartDate) {
		return
	}
	switch {
	case v.Profile.InExecution:
		st.InExecution++
	case v.Profile.InRenderingWindow:
		st.RenderingAccounts++
	case v.Profile.OverdueForAccounts:
		st.Finished++
	case v.Profile.NotStarted:
		st.NotStarted++
	}
}

func validDate(s string) bool {
	_, ok := timeline.ParseDate(s, time.UTC)
	return ok
}

func matchesStatus(status string, v ProjectView) bool {
	p := v.Profile
	switch status {
	case StatusAll:
		return true
	case StatusInExecution:
		return p.InExecution
	case StatusRenderingAccounts:
		return p.InRenderingWindow
	case StatusFinished:
		return p.OverdueForAccounts
	case StatusNotStarted:
		return p.NotStarted
	default:
		return p.DaysRemaining != nil && !p.OverdueForAccounts
	}
}

func matchesRanges(f ListFilter, v ProjectView, today time.Time) bool {
	if f.VigenciaRange != "" &&
		!timeline.MatchesVigenciaRange(f.VigenciaRange, v.EndDate, f.CustomMinDays, f.CustomMaxDays, today) {
		return false
	}
	if f.RenderingRange != "" &&
		!timeline.MatchesRenderingRange(f.RenderingRange, v.EndDate, f.CustomMinDays, f.CustomMaxDays, today) {
		return false
	}
	if f.ExecutionRange != "" &&
		!timeline.MatchesExecutionRange(f.ExecutionRange, v.UsagePercent, f.CustomMinUsage, f.CustomMaxUsage) {
		return false
	}
	return true
}

// sortByUrgency orders by urgency level (highest first), then fewest days
// remaining, with undated projects last and code as the final tiebreak.
func sortByUrgency(views []ProjectView) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i].Profile, views[j].Profile
		if a.UrgencyLevel != b.UrgencyLevel {
			return a.UrgencyLevel > b.UrgencyLevel
		}
		switch {
		case a.DaysRemaining == nil && b.DaysRemaining == nil:
		case a.DaysRemaining == nil:
			return false
		case b.DaysRemaining == nil:
			return true
		case *a.DaysRemaining != *b.DaysRemaining:
			return *a.DaysRemaining < *b.DaysRemaining
		}
		return views[i].Code < views[j].Code
	})
}

func orDefault(s, fallback string) string {
	if t := strings.TrimSpace(s); t != "" {
		return t
	}
	return fallback
}
