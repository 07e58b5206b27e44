// Package dashboard aggregates role-scoped summaries over the ledgers. It
// only reads; every number comes from the owning module's service.
package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/peoplehub-hr/peoplehub/internal/attendance"
	"github.com/peoplehub-hr/peoplehub/internal/employee"
	"github.com/peoplehub-hr/peoplehub/internal/leave"
	"github.com/peoplehub-hr/peoplehub/internal/task"
)

// AdminSummary is the admin landing view.
type AdminSummary struct {
	TotalEmployees  int
	ActiveEmployees int
	PresentToday    int
	PendingLeaves   int
	OpenTasks       int
}

// EmployeeSummary is the employee landing view.
type EmployeeSummary struct {
	TodaySession *attendance.Session
	Balance      *leave.Balance
	TaskCounts   map[task.Status]int
}

// Service fans read queries out across the modules.
type Service struct {
	employees  *employee.Service
	attendance *attendance.Service
	leaves     *leave.Service
	tasks      *task.Service
}

// NewService constructs a new Service.
func NewService(employees *employee.Service, att *attendance.Service, leaves *leave.Service, tasks *task.Service) *Service {
	return &Service{employees: employees, attendance: att, leaves: leaves, tasks: tasks}
}

// AdminSummary aggregates organization-wide counters concurrently.
func (s *Service) AdminSummary(ctx context.Context) (AdminSummary, error) {
	var out AdminSummary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		_, total, err := s.employees.List(ctx, employee.ListFilter{PerPage: 1})
		if err != nil {
			return err
		}
		out.TotalEmployees = total
		_, active, err := s.employees.List(ctx, employee.ListFilter{Status: employee.StatusActive, PerPage: 1})
		if err != nil {
			return err
		}
		out.ActiveEmployees = active
		return nil
	})
	g.Go(func() error {
		n, err := s.attendance.PresentCount(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		out.PresentToday = n
		return nil
	})
	g.Go(func() error {
		n, err := s.leaves.PendingCount(ctx)
		if err != nil {
			return err
		}
		out.PendingLeaves = n
		return nil
	})
	g.Go(func() error {
		counts, err := s.tasks.CountByStatus(ctx, nil)
		if err != nil {
			return err
		}
		out.OpenTasks = counts[task.StatusAssigned] + counts[task.StatusInProgress]
		return nil
	})

	if err := g.Wait(); err != nil {
		return AdminSummary{}, err
	}
	return out, nil
}

// EmployeeSummary aggregates the caller's own counters concurrently.
func (s *Service) EmployeeSummary(ctx context.Context, employeeID uuid.UUID) (EmployeeSummary, error) {
	var out EmployeeSummary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sess, err := s.attendance.Today(ctx, employeeID)
		if err != nil {
			return err
		}
		out.TodaySession = sess
		return nil
	})
	g.Go(func() error {
		balance, err := s.leaves.GetBalance(ctx, employeeID, time.Now().UTC().Year())
		if err != nil {
			return err
		}
		out.Balance = balance
		return nil
	})
	g.Go(func() error {
		id := employeeID
		counts, err := s.tasks.CountByStatus(ctx, &id)
		if err != nil {
			return err
		}
		out.TaskCounts = counts
		return nil
	})

	if err := g.Wait(); err != nil {
		return EmployeeSummary{}, err
	}
	return out, nil
}
