// Command taskctl is the terminal front end of the task manager. Admins get
// the full task, manager and branch screens; managers get their own tasks
// and status updates. The session is kept in a file between invocations.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"taskmanager-backend/pkg/client"

	"github.com/spf13/cobra"
)

type app struct {
	server      string
	sessionPath string
	timeout     time.Duration

	session *client.Session
	api     *client.Client
	events  <-chan client.Event
}

func main() {
	a := &app{}
	root := a.rootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskctl",
		Short:         "Branch task manager client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.syncSessionFile()
		},
	}

	root.PersistentFlags().StringVar(&a.server, "server", envOr("TASKCTL_SERVER", "http://localhost:8080"), "API server base URL")
	root.PersistentFlags().StringVar(&a.sessionPath, "session", envOr("TASKCTL_SESSION", defaultSessionPath()), "session file")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.menuCmd(),
		a.dashboardCmd(),
		a.tasksCmd(),
		a.managersCmd(),
		a.branchesCmd(),
		a.auditCmd(),
		a.reportCmd(),
	)
	return root
}

func (a *app) open() error {
	s, err := client.LoadSession(a.sessionPath)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	a.session = s
	a.api = client.New(a.server, client.WithSession(s))

	a.events, _ = s.Subscribe()
	return nil
}

// syncSessionFile applies the session events of this invocation to the
// session file.
func (a *app) syncSessionFile() error {
	for {
		select {
		case ev := <-a.events:
			switch ev.Kind {
			case client.EventLogin, client.EventRefresh:
				if err := a.session.Save(a.sessionPath); err != nil {
					return fmt.Errorf("save session: %w", err)
				}
			case client.EventLogout, client.EventExpired:
				if err := os.Remove(a.sessionPath); err != nil && !errors.Is(err, os.ErrNotExist) {
					return err
				}
			}
		default:
			return nil
		}
	}
}

func (a *app) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.timeout)
}

// handle turns the errors a user can act on into readable hints.
func (a *app) handle(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, client.ErrNotLoggedIn):
		return errors.New("not logged in, run: taskctl login")
	case errors.Is(err, client.ErrForbidden):
		return fmt.Errorf("your role (%s) cannot do this", a.session.Role())
	case client.IsUnauthenticated(err):
		_ = a.syncSessionFile()
		return errors.New("session expired, run: taskctl login")
	}
	return err
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".taskctl-session.json"
	}
	return filepath.Join(dir, "taskctl", "session.json")
}
