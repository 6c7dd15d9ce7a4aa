package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"taskmanager-backend/pkg/api"
	"taskmanager-backend/pkg/client"

	"github.com/spf13/cobra"
)

// ----------------------------------------
// Session
// ----------------------------------------

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := readLine(cmd, "Password: ")
				if err != nil {
					return err
				}
				password = p
			}
			ctx, cancel := a.ctx()
			defer cancel()

			user, err := a.api.Login(ctx, email, password)
			if client.IsUnauthenticated(err) {
				return errors.New("invalid credentials")
			}
			if err != nil {
				return a.handle(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", user.Name, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx()
			defer cancel()
			if err := a.api.Logout(ctx); err != nil && !client.IsUnauthenticated(err) {
				return a.handle(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx()
			defer cancel()
			u, err := a.api.Me(ctx)
			if err != nil {
				return a.handle(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> role=%s branch=%s\n", u.Name, u.Email, u.Role, branchName(u.Branch))
			return nil
		},
	}
}

func (a *app) menuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "List the screens available to your role",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.session.LoggedIn() {
				return a.handle(client.ErrNotLoggedIn)
			}
			for _, s := range a.session.Sections() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", s.Name, s.Title)
			}
			return nil
		},
	}
}

// ----------------------------------------
// Dashboard
// ----------------------------------------

func (a *app) dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show task statistics and the latest tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx()
			defer cancel()
			d, err := a.api.LoadDashboard(ctx)
			if err != nil {
				return a.handle(err)
			}
			renderDashboard(cmd.OutOrStdout(), d)
			return nil
		},
	}

	var (
		period string
		count  int
		branch uint
	)
	chart := &cobra.Command{
		Use:   "chart",
		Short: "Tasks created and completed per day, week or month",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx()
			defer cancel()
			c, err := a.api.TaskChart(ctx, period, count, branch)
			if err != nil {
				return a.handle(err)
			}
			renderChart(cmd.OutOrStdout(), c)
			return nil
		},
	}
	chart.Flags().StringVar(&period, "period", "daily", "daily|weekly|monthly")
	chart.Flags().IntVarP(&count, "count", "n", 0, "number of periods (default 7, 8 or 12)")
	chart.Flags().UintVar(&branch, "branch", 0, "branch id (admins)")

	cmd.AddCommand(chart)
	return cmd
}

func (a *app) reportCmd() *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Monthly task report per branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx()
			defer cancel()
			r, err := a.api.MonthlyReport(ctx, year, month)
			if err != nil {
				return a.handle(err)
			}
			renderMonthlyReport(cmd.OutOrStdout(), r)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default current)")
	return cmd
}

// ----------------------------------------
// Tasks
// ----------------------------------------

func (a *app) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and manage tasks",
	}

	var filter api.TaskFilter
	var mine bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx()
			defer cancel()

			var (
				tasks []api.Task
				err   error
			)
			if mine {
				tasks, err = a.api.MyTasks(ctx)
				tasks = client.FilterTasks(tasks, filter.Status, filter.Search)
			} else {
				tasks, err = a.api.Tasks(ctx, filter)
			}
			if err != nil {
				return a.handle(err)
			}
			renderTasks(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
	list.Flags().StringVar(&filter.Status, "status", "", "pending|in-progress|completed|overdue")
	list.Flags().UintVar(&filter.AssignedTo, "manager", 0, "assignee id")
	list.Flags().UintVar(&filter.BranchID, "branch", 0, "branch id")
	list.Flags().StringVar(&filter.Search, "search", "", "text in title or description")
	list.Flags().BoolVar(&mine, "mine", false, "only tasks assigned to me")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx()
			defer cancel()
			t, err := a.api.Task(ctx, id)
			if err != nil {
				return a.handle(err)
			}
			renderTask(cmd.OutOrStdout(), t)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Set the status of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx()
			defer cancel()
			t, err := a.api.SetTaskStatus(ctx, id, args[1])
			if err != nil {
				return a.handle(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %s\n", t.ID, t.Status)
			return nil
		},
	}

	var create api.CreateTaskRequest
	var createStatus string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if createStatus != "" {
				create.Status = &createStatus
			}
			ctx, cancel := a.ctx()
			defer cancel()
			t, err := a.api.CreateTask(ctx, create)
			if err != nil {
				return a.handle(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %d\n", t.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&create.Title, "title", "", "title")
	createCmd.Flags().StringVar(&create.Description, "description", "", "description")
	createCmd.Flags().UintVar(&create.AssignedTo, "assign", 0, "manager id")
	createCmd.Flags().UintVar(&create.BranchID, "branch", 0, "branch id")
	createCmd.Flags().StringVar(&create.Priority, "priority", "medium", "low|medium|high")
	createCmd.Flags().StringVar(&create.DueDate, "due", "", "due date (YYYY-MM-DD)")
	createCmd.Flags().StringVar(&createStatus, "status", "", "initial status")

	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			req := api.UpdateTaskRequest{
				Title:       stringFlag(cmd, "title"),
				Description: stringFlag(cmd, "description"),
				Priority:    stringFlag(cmd, "priority"),
				Status:      stringFlag(cmd, "status"),
				DueDate:     stringFlag(cmd, "due"),
				AssignedTo:  uintFlag(cmd, "assign"),
				BranchID:    uintFlag(cmd, "branch"),
			}
			ctx, cancel := a.ctx()
			defer cancel()
			t, err := a.api.UpdateTask(ctx, id, req)
			if err != nil {
				return a.handle(err)
			}
			renderTask(cmd.OutOrStdout(), t)
			return nil
		},
	}
	update.Flags().String("title", "", "title")
	update.Flags().String("description", "", "description")
	update.Flags().String("priority", "", "low|medium|high")
	update.Flags().String("status", "", "pending|in-progress|completed|overdue")
	update.Flags().String("due", "", "due date (YYYY-MM-DD)")
	update.Flags().Uint("assign", 0, "manager id")
	update.Flags().Uint("branch", 0, "branch id")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx()
			defer cancel()
			if err := a.api.DeleteTask(ctx, id); err != nil {
				return a.handle(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
			return nil
		},
	}

	var exportFilter api.TaskFilter
	var format, out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Download tasks as xlsx or pdf",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx()
			defer cancel()
			b, err := a.api.ExportTasks(ctx, format, exportFilter)
			if err != nil {
				return a.handle(err)
			}
			if out == "" {
				out = "tasks." + format
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported -> %s\n", out)
			return nil
		},
	}
	export.Flags().StringVar(&format, "format", "xlsx", "xlsx|pdf")
	export.Flags().StringVarP(&out, "out", "o", "", "output file")
	export.Flags().StringVar(&exportFilter.Status, "status", "", "status filter")
	export.Flags().UintVar(&exportFilter.AssignedTo, "manager", 0, "assignee id")
	export.Flags().UintVar(&exportFilter.BranchID, "branch", 0, "branch id")
	export.Flags().StringVar(&exportFilter.Search, "search", "", "text filter")

	imp := &cobra.Command{
		Use:   "import FILE.xlsx",
		Short: "Create tasks from an Excel sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			ctx, cancel := a.ctx()
			defer cancel()
			res, err := a.api.ImportTasks(ctx, args[0], f)
			if err != nil {
				return a.handle(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d task(s)\n", res.Created)
			return nil
		},
	}

	cmd.AddCommand(list, show, status, createCmd, update, del, export, imp)
	return cmd
}

// ----------------------------------------
// Managers
// ----------------------------------------

func (a *app) managersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "managers",
		Short: "List and manage managers",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List managers with their task counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx()
			defer cancel()
			list, err := a.api.Managers(ctx)
			if err != nil {
				return a.handle(err)
			}
			renderManagers(cmd.OutOrStdout(), list)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show a manager and their tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx()
			defer cancel()
			m, err := a.api.Manager(ctx, id)
			if err != nil {
				return a.handle(err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s <%s> branch=%s phone=%s\n\n", m.Name, m.Email, branchName(m.Branch), m.Phone)
			renderTasks(w, m.Tasks)
			return nil
		},
	}

	var create api.CreateManagerRequest
	var phone string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			if phone != "" {
				create.Phone = &phone
			}
			ctx, cancel := a.ctx()
			defer cancel()
			u, err := a.api.CreateManager(ctx, create)
			if err != nil {
				return a.handle(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created manager %d (%s)\n", u.ID, u.Email)
			return nil
		},
	}
	createCmd.Flags().StringVar(&create.Name, "name", "", "full name")
	createCmd.Flags().StringVar(&create.Email, "email", "", "email")
	createCmd.Flags().StringVar(&create.Password, "password", "", "initial password (min 8)")
	createCmd.Flags().UintVar(&create.BranchID, "branch", 0, "branch id")
	createCmd.Flags().StringVar(&phone, "phone", "", "phone")

	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a manager",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			req := api.UpdateManagerRequest{
				Name:     stringFlag(cmd, "name"),
				Email:    stringFlag(cmd, "email"),
				Password: stringFlag(cmd, "password"),
				Phone:    stringFlag(cmd, "phone"),
				BranchID: uintFlag(cmd, "branch"),
			}
			ctx, cancel := a.ctx()
			defer cancel()
			u, err := a.api.UpdateManager(ctx, id, req)
			if err != nil {
				return a.handle(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated manager %d (%s)\n", u.ID, u.Email)
			return nil
		},
	}
	update.Flags().String("name", "", "full name")
	update.Flags().String("email", "", "email")
	update.Flags().String("password", "", "new password (min 8)")
	update.Flags().String("phone", "", "phone")
	update.Flags().Uint("branch", 0, "branch id")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a manager and every task assigned to them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx()
			defer cancel()
			if err := a.api.DeleteManager(ctx, id); err != nil {
				return a.handle(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted manager %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, show, createCmd, update, del)
	return cmd
}

// ----------------------------------------
// Branches
// ----------------------------------------

func (a *app) branchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branches",
		Short: "List and manage branches",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List branches with manager and task counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx()
			defer cancel()
			list, err := a.api.Branches(ctx)
			if err != nil {
				return a.handle(err)
			}
			renderBranches(cmd.OutOrStdout(), list)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show a branch with its users and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx()
			defer cancel()
			b, err := a.api.Branch(ctx, id)
			if err != nil {
				return a.handle(err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s, %s (%s) established %s\n\nUsers\n", b.Name, b.Address, b.Phone, deref(b.Established))
			tw := table(w)
			for _, u := range b.Users {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
			}
			tw.Flush()
			fmt.Fprintln(w, "\nTasks")
			renderTasks(w, b.Tasks)
			return nil
		},
	}

	var create api.CreateBranchRequest
	var established string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			if established != "" {
				create.Established = &established
			}
			ctx, cancel := a.ctx()
			defer cancel()
			b, err := a.api.CreateBranch(ctx, create)
			if err != nil {
				return a.handle(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created branch %d (%s)\n", b.ID, b.Name)
			return nil
		},
	}
	createCmd.Flags().StringVar(&create.Name, "name", "", "branch name")
	createCmd.Flags().StringVar(&create.Address, "address", "", "address")
	createCmd.Flags().StringVar(&create.Phone, "phone", "", "phone")
	createCmd.Flags().StringVar(&established, "established", "", "date (YYYY-MM-DD)")

	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			req := api.UpdateBranchRequest{
				Name:        stringFlag(cmd, "name"),
				Address:     stringFlag(cmd, "address"),
				Phone:       stringFlag(cmd, "phone"),
				Established: stringFlag(cmd, "established"),
			}
			ctx, cancel := a.ctx()
			defer cancel()
			b, err := a.api.UpdateBranch(ctx, id, req)
			if err != nil {
				return a.handle(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated branch %d (%s)\n", b.ID, b.Name)
			return nil
		},
	}
	update.Flags().String("name", "", "branch name")
	update.Flags().String("address", "", "address")
	update.Flags().String("phone", "", "phone")
	update.Flags().String("established", "", "date (YYYY-MM-DD), empty clears it")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a branch without users or tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx()
			defer cancel()
			if err := a.api.DeleteBranch(ctx, id); err != nil {
				return a.handle(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted branch %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, show, createCmd, update, del)
	return cmd
}

// ----------------------------------------
// Audit log
// ----------------------------------------

func (a *app) auditCmd() *cobra.Command {
	var f client.AuditFilter
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx()
			defer cancel()
			list, err := a.api.AuditLogs(ctx, f)
			if err != nil {
				return a.handle(err)
			}
			renderAuditLogs(cmd.OutOrStdout(), list)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.EntityType, "entity", "", "task|branch|manager")
	cmd.Flags().UintVar(&f.EntityID, "id", 0, "entity id")
	cmd.Flags().UintVar(&f.UserID, "user", 0, "acting user id")
	cmd.Flags().IntVar(&f.Limit, "limit", 50, "max entries")
	return cmd
}

// stringFlag returns nil unless the flag was given, so unset flags are left
// out of partial updates.
func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func uintFlag(cmd *cobra.Command, name string) *uint {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetUint(name)
	return &v
}

func parseID(s string) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(s, &id); err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func readLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
