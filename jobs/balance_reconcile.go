package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/peoplehub-hr/peoplehub/internal/leave"
)

// BalanceReconcileJob cross-checks approved leave totals against the stored
// balances. Approvals and deductions are separate writes, so a crash between
// them can leave a balance higher than the approvals imply. The job reports
// discrepancies for an operator to resolve; it never rewrites balances.
type BalanceReconcileJob struct {
	Repo   leave.Repository
	Logger *slog.Logger

	clock func() time.Time
}

// Handle processes a reconcile task.
func (j *BalanceReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("reconcile balances: handler not configured")
	}
	var payload ReconcileBalancesPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	year := payload.Year
	if year == 0 {
		year = j.now().Year()
	}

	totals, err := j.Repo.ApprovedTotals(ctx, year)
	if err != nil {
		return fmt.Errorf("reconcile balances: load approved totals: %w", err)
	}

	defaults := map[leave.Category]int{
		leave.CategorySick:   leave.DefaultSickDays,
		leave.CategoryCasual: leave.DefaultCasualDays,
		leave.CategoryEarned: leave.DefaultEarnedDays,
	}

	discrepancies := 0
	balances := map[string]*leave.Balance{}
	for _, total := range totals {
		entitlement, ok := defaults[total.Category]
		if !ok {
			continue
		}
		bal, cached := balances[total.EmployeeID.String()]
		if !cached {
			bal, err = j.Repo.GetBalance(ctx, total.EmployeeID, year)
			if err != nil {
				return fmt.Errorf("reconcile balances: load balance: %w", err)
			}
			balances[total.EmployeeID.String()] = bal
		}
		if bal == nil {
			discrepancies++
			j.Logger.Warn("leave balance missing for employee with approved leave",
				slog.String("employee_id", total.EmployeeID.String()),
				slog.Int("year", year),
				slog.String("category", string(total.Category)))
			continue
		}
		remaining, _ := bal.Remaining(total.Category)
		expected := entitlement - total.Days
		if expected < 0 {
			expected = 0
		}
		if remaining != expected {
			discrepancies++
			j.Logger.Warn("leave balance out of sync with approvals",
				slog.String("employee_id", total.EmployeeID.String()),
				slog.Int("year", year),
				slog.String("category", string(total.Category)),
				slog.Int("approved_days", total.Days),
				slog.Int("expected_remaining", expected),
				slog.Int("stored_remaining", remaining))
		}
	}

	j.Logger.Info("leave balance reconciliation complete",
		slog.Int("year", year),
		slog.Int("checked", len(totals)),
		slog.Int("discrepancies", discrepancies))
	return nil
}

func (j *BalanceReconcileJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
