package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"taskmanager-backend/pkg/api"
	"taskmanager-backend/pkg/client"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderTasks(w io.Writer, list []api.Task) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No tasks found")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tTITLE\tASSIGNEE\tBRANCH\tSTATUS\tPRIORITY\tDUE\tCOMPLETED")
	for _, t := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, clip(t.Title, 40), assigneeName(t), branchName(t.Branch),
			t.Status, t.Priority, t.DueDate, deref(t.CompletedDate))
	}
	tw.Flush()
}

func renderTask(w io.Writer, t *api.Task) {
	tw := table(w)
	fmt.Fprintf(tw, "ID:\t%d\n", t.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", t.Title)
	fmt.Fprintf(tw, "Assignee:\t%s\n", assigneeName(*t))
	fmt.Fprintf(tw, "Branch:\t%s\n", branchName(t.Branch))
	fmt.Fprintf(tw, "Status:\t%s\n", t.Status)
	fmt.Fprintf(tw, "Priority:\t%s\n", t.Priority)
	fmt.Fprintf(tw, "Due:\t%s\n", t.DueDate)
	fmt.Fprintf(tw, "Completed:\t%s\n", deref(t.CompletedDate))
	fmt.Fprintf(tw, "Created:\t%s\n", t.CreatedAt)
	tw.Flush()
	fmt.Fprintf(w, "\n%s\n", t.Description)
}

func renderDashboard(w io.Writer, d *client.Dashboard) {
	tw := table(w)
	if d.Stats.TotalManagers != nil {
		fmt.Fprintf(tw, "Total managers\t%d\n", *d.Stats.TotalManagers)
	}
	fmt.Fprintf(tw, "Total tasks\t%d\n", d.Stats.TotalTasks)
	fmt.Fprintf(tw, "Pending\t%d\n", d.Stats.PendingTasks)
	fmt.Fprintf(tw, "In progress\t%d\n", d.Stats.InProgressTasks)
	fmt.Fprintf(tw, "Completed\t%d\n", d.Stats.CompletedTasks)
	fmt.Fprintf(tw, "Overdue\t%d\n", d.Stats.OverdueTasks)
	fmt.Fprintf(tw, "Completion rate\t%.0f%%\n", d.CompletionRate())
	tw.Flush()

	fmt.Fprintln(w, "\nRecent tasks")
	renderTasks(w, d.Recent)

	if len(d.Managers) > 0 {
		fmt.Fprintln(w, "\nManagers")
		renderManagers(w, d.Managers)
	}
}

func renderChart(w io.Writer, c *api.TaskChart) {
	fmt.Fprintf(w, "%s, %s to %s\n", c.Period, c.From, c.To)
	tw := table(w)
	fmt.Fprintln(tw, "PERIOD\tCREATED\tCOMPLETED")
	for _, p := range append(c.Points, c.Totals) {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", p.Label, p.Created, p.Completed)
	}
	tw.Flush()
}

func renderMonthlyReport(w io.Writer, r *api.MonthlyReport) {
	fmt.Fprintf(w, "%04d-%02d (%s to %s)\n", r.Year, r.Month, r.From, r.To)
	tw := table(w)
	fmt.Fprintln(tw, "BRANCH\tCREATED\tCOMPLETED\tLATE\tDUE\tOPEN PAST DUE\tRATE")
	row := func(name string, b api.BranchMonthlyReport) {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%.1f%%\n",
			name, b.Created, b.Completed, b.CompletedLate, b.Due, b.OpenPastDue, b.CompletionRate)
	}
	for _, b := range r.Branches {
		row(b.BranchName, b)
	}
	row("Total", r.Totals)
	tw.Flush()
}

func renderManagers(w io.Writer, list []api.Manager) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No managers found")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tBRANCH\tPHONE\tCOMPLETED\tPENDING")
	for _, m := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\n",
			m.ID, m.Name, m.Email, branchName(m.Branch), m.Phone, m.TasksCompleted, m.TasksPending)
	}
	tw.Flush()
}

func renderBranches(w io.Writer, list []api.BranchSummary) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No branches found")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tADDRESS\tPHONE\tESTABLISHED\tMANAGERS\tTASKS")
	for _, b := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\n",
			b.ID, b.Name, clip(b.Address, 40), b.Phone, deref(b.Established), b.ManagersCount, b.TasksCount)
	}
	tw.Flush()
}

func renderAuditLogs(w io.Writer, list []api.AuditLog) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No audit entries")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "TIME\tUSER\tACTION\tENTITY\tDESCRIPTION")
	for _, l := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s #%d\t%s\n",
			l.CreatedAt, l.UserName, l.Action, l.EntityType, l.EntityID, l.Description)
	}
	tw.Flush()
}

func assigneeName(t api.Task) string {
	if t.Assignee != nil {
		return t.Assignee.Name
	}
	return fmt.Sprintf("#%d", t.AssignedTo)
}

func branchName(b *api.Branch) string {
	if b == nil {
		return "-"
	}
	return b.Name
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
