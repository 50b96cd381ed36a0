package scheduler

import (
	"context"
	"errors"
	"testing"

	"mrk/internal/domain/reconciliation"
)

type MockReconciler struct {
	AutoMatchFunc       func(ctx context.Context) (int, error)
	ValidatePendingFunc func(ctx context.Context) (*reconciliation.ValidationSummary, error)
	calls               []string
}

func (m *MockReconciler) AutoMatch(ctx context.Context) (int, error) {
	m.calls = append(m.calls, "auto-match")
	if m.AutoMatchFunc != nil {
		return m.AutoMatchFunc(ctx)
	}
	return 0, nil
}

func (m *MockReconciler) ValidatePending(ctx context.Context) (*reconciliation.ValidationSummary, error) {
	m.calls = append(m.calls, "validate")
	if m.ValidatePendingFunc != nil {
		return m.ValidatePendingFunc(ctx)
	}
	return &reconciliation.ValidationSummary{}, nil
}

func TestReconcileJob_Execute(t *testing.T) {
	errDB := errors.New("db down")

	tests := []struct {
		name      string
		mock      *MockReconciler
		wantErr   error
		wantCalls []string
	}{
		{
			name: "runs auto-match then validation",
			mock: &MockReconciler{
				AutoMatchFunc: func(ctx context.Context) (int, error) { return 3, nil },
				ValidatePendingFunc: func(ctx context.Context) (*reconciliation.ValidationSummary, error) {
					return &reconciliation.ValidationSummary{Checked: 4, Validated: 3, Discrepancies: 1}, nil
				},
			},
			wantCalls: []string{"auto-match", "validate"},
		},
		{
			name: "auto-match failure skips validation",
			mock: &MockReconciler{
				AutoMatchFunc: func(ctx context.Context) (int, error) { return 0, errDB },
			},
			wantErr:   errDB,
			wantCalls: []string{"auto-match"},
		},
		{
			name: "validation failure is returned",
			mock: &MockReconciler{
				ValidatePendingFunc: func(ctx context.Context) (*reconciliation.ValidationSummary, error) {
					return nil, errDB
				},
			},
			wantErr:   errDB,
			wantCalls: []string{"auto-match", "validate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewReconcileJob(tt.mock).Execute(context.Background())

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Execute() error = %v, want %v", err, tt.wantErr)
			}
			if len(tt.mock.calls) != len(tt.wantCalls) {
				t.Fatalf("calls = %v, want %v", tt.mock.calls, tt.wantCalls)
			}
			for i := range tt.wantCalls {
				if tt.mock.calls[i] != tt.wantCalls[i] {
					t.Errorf("calls = %v, want %v", tt.mock.calls, tt.wantCalls)
				}
			}
		})
	}
}

func TestReconcileProvider(t *testing.T) {
	jobs, err := ReconcileProvider(&MockReconciler{})(context.Background())
	if err != nil {
		t.Fatalf("provider error = %v", err)
	}
	if len(jobs) != 1 || jobs[0].Name() != "reconcile" {
		t.Errorf("provider jobs = %v, want a single reconcile job", jobs)
	}
}
