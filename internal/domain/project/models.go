package project

import (
	"errors"

	"mrk/internal/domain/timeline"
)

// Domain errors
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidStatus   = errors.New("invalid status filter")
)

// Status filters accepted by List.
const (
	StatusActive            = "active"
	StatusAll               = "all"
	StatusInExecution       = "in_execution"
	StatusRenderingAccounts = "rendering_accounts"
	StatusFinished          = "finished"
	StatusNotStarted        = "not_started"
)

var validStatuses = map[string]struct{}{
	StatusActive:            {},
	StatusAll:               {},
	StatusInExecution:       {},
	StatusRenderingAccounts: {},
	StatusFinished:          {},
	StatusNotStarted:        {},
}

// Default page size when none is requested.
const (
	DefaultLimit = 10
	MaxLimit     = 500
)

// Project is a cost center mirrored from the ERP. Dates are YYYYMMDD strings
// exactly as the ERP stores them; empty or malformed values are common.
type Project struct {
	Code         string  `json:"code"`
	Description  string  `json:"description"`
	StartDate    string  `json:"startDate"`
	EndDate      string  `json:"endDate"`
	ClosedDate   string  `json:"closedDate"`
	Coordinator  string  `json:"coordinator"`
	Client       string  `json:"client"`
	Budget       float64 `json:"budget"`
	Realized     float64 `json:"realized"`
	UsagePercent float64 `json:"usagePercent"`
}

// ProjectView pairs a project with its date-derived profile.
type ProjectView struct {
	Project
	Profile timeline.Profile `json:"profile"`
	Closed  bool             `json:"closed"`
}

// CodeName is the minimal projection used for memo matching.
type CodeName struct {
	Code string
	Name string
}

// QueryFilter narrows the rows loaded from storage.
type QueryFilter struct {
	Search      string
	Coordinator string
	Client      string
	StartFrom   string // YYYYMMDD, inclusive, on StartDate
	StartTo     string // YYYYMMDD, inclusive, on StartDate
}

// ListFilter combines storage filters with the date-derived filters that are
// evaluated against today's profile.
type ListFilter struct {
	QueryFilter

	Status string

	VigenciaRange  string
	RenderingRange string
	ExecutionRange string

	CustomMinDays  *int
	CustomMaxDays  *int
	CustomMinUsage *float64
	CustomMaxUsage *float64

	Page  int
	Limit int
}

// Validate checks the filter and applies defaults.
func (f *ListFilter) Validate() error {
	if f.Status == "" {
		f.Status = StatusActive
	}
	if _, ok := validStatuses[f.Status]; !ok {
		return ErrInvalidStatus
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return nil
}

// Page is one page of classified projects.
type Page struct {
	Items []ProjectView `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Stats StatusStats   `json:"stats"`
}

// StatusStats counts every project matching the storage filter by lifecycle
// phase, ignoring the status filter.
type StatusStats struct {
	Total             int `json:"total"`
	InExecution       int `json:"inExecution"`
	RenderingAccounts int `json:"renderingAccounts"`
	Finished          int `json:"finished"`
	NotStarted        int `json:"notStarted"`
}

// Counts feeds the filter sidebar badges.
type Counts struct {
	ByStatus        StatusCounts   `json:"byStatus"`
	ByDaysRemaining DayCounts      `json:"byDaysRemaining"`
	ByExecution     ExecCounts     `json:"byExecution"`
	ByCoordinator   map[string]int `json:"byCoordinator"`
	ByClient        map[string]int `json:"byClient"`
}

type StatusCounts struct {
	NotStarted        int `json:"notStarted"`
	InExecution       int `json:"inExecution"`
	Closed            int `json:"closed"`
	RenderingAccounts int `json:"renderingAccounts"`
}

type DayCounts struct {
	Today     int `json:"today"`
	Week      int `json:"week"`
	Month     int `json:"month"`
	TwoMonths int `json:"twoMonths"`
}

type ExecCounts struct {
	Low      int `json:"low"`
	Medium   int `json:"medium"`
	High     int `json:"high"`
	Exceeded int `json:"exceeded"`
}

// Fallback labels for blank coordinator and client names.
const (
	NoCoordinator = "Sem coordenador"
	NoClient      = "Sem cliente"
)
