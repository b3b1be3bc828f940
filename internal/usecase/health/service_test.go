package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockSearchChecker struct {
	err error
}

func (m *mockSearchChecker) SearchAvailable(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		search     SearchChecker
		wantStatus Status
		wantChecks map[string]CheckResult
	}{
		{
			name:       "all healthy",
			search:     &mockSearchChecker{},
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{"database": CheckOK, "search": CheckOK},
		},
		{
			name:       "database down",
			dbErr:      errors.New("conn refused"),
			search:     &mockSearchChecker{err: errors.New("conn refused")},
			wantStatus: Unhealthy,
			wantChecks: map[string]CheckResult{"database": CheckError, "search": CheckError},
		},
		{
			name:       "search module missing",
			search:     &mockSearchChecker{err: errors.New("unknown command")},
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{"database": CheckOK, "search": CheckError},
		},
		{
			name:       "no search checker",
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{"database": CheckOK},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockDBPinger{err: tt.dbErr}, tt.search)
			r := svc.Check(context.Background())

			if r.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", r.Status, tt.wantStatus)
			}
			if len(r.Checks) != len(tt.wantChecks) {
				t.Errorf("checks = %v, want %v", r.Checks, tt.wantChecks)
			}
			for k, v := range tt.wantChecks {
				if r.Checks[k] != v {
					t.Errorf("check %s = %q, want %q", k, r.Checks[k], v)
				}
			}
		})
	}
}
