package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"projectarchitect/internal/config"
	"projectarchitect/internal/domain"
	"projectarchitect/internal/engine"
	"projectarchitect/internal/kv"
	"projectarchitect/internal/repo"
)

var rootCmd = &cobra.Command{
	Use:   "pa",
	Short: "ProjectArchitect CLI",
	Long: `ProjectArchitect tracks architecture and construction projects through five
fixed phases (Initiation, Design, Permit & Approval, Construction, Final
Delivery). Each phase holds tasks; every state change lands in the activity
feed. All state lives in the workspace store, seeded from a bundled sample
dataset on first run.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PROJECTARCHITECT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor", "Current User", "actor name recorded on activities")
	rootCmd.PersistentFlags().Bool("force", false, "skip boundary checks")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor", rootCmd.PersistentFlags().Lookup("actor"))
	_ = viper.BindPFlag("force", rootCmd.PersistentFlags().Lookup("force"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(phaseCmd())
	rootCmd.AddCommand(deliverCmd())
	rootCmd.AddCommand(activityCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(statusCmd())
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectUpdateCmd())
	prj.AddCommand(projectDeleteCmd())
	prj.AddCommand(projectResetCmd())
	return prj
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *repo.Store) error {
				projects := s.List()
				if viper.GetBool("json") {
					return printJSON(projects)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Customer", "Phase", "Status", "Value"})
				for _, p := range projects {
					tw.AppendRow(table.Row{
						p.ID, p.Name, p.CustomerName,
						fmt.Sprintf("%d/%d", p.CurrentPhase, len(p.Phases)),
						p.Status,
						fmt.Sprintf("%.0f %s", p.ProjectValue, p.Currency),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *repo.Store) error {
				p, err := s.Find(args[0])
				if err != nil {
					return err
				}
				return printJSONOrIndent(p)
			})
		},
	}
}

func projectCreateCmd() *cobra.Command {
	var p domain.Project
	var architects []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *repo.Store) error {
				p.Architects = trimAll(architects)
				if p.Currency == "" {
					p.Currency = s.Config.Defaults.Currency
				}
				if err := validateProject(p); err != nil {
					return err
				}
				if p.ProjectArchitect == "" && len(p.Architects) > 0 {
					p.ProjectArchitect = p.Architects[0]
				}
				if p.DesignConsultant == "" && len(p.Architects) > 1 {
					p.DesignConsultant = p.Architects[1]
				}
				created, err := s.Create(p)
				if err != nil {
					return err
				}
				return printJSONOrIndent(created)
			})
		},
	}
	cmd.Flags().StringVar(&p.Name, "name", "", "project name")
	cmd.Flags().StringVar(&p.CustomerName, "customer", "", "customer name")
	cmd.Flags().StringVar(&p.SiteName, "site", "", "site location")
	cmd.Flags().Float64Var(&p.ProjectValue, "value", 0, "contract value")
	cmd.Flags().StringVar(&p.Currency, "currency", "", "ISO currency code")
	cmd.Flags().StringVar(&p.ContractDate, "contract-date", "", "contract date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&p.ContractDeliveryDate, "delivery-date", "", "contract delivery date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&p.TargetCompletionDate, "target-date", "", "target completion date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&p.ProjectNumber, "number", "", "project number")
	cmd.Flags().StringVar(&p.Status, "status", "active", "initial status")
	cmd.Flags().StringArrayVar(&architects, "architect", []string{}, "architect name (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func projectUpdateCmd() *cobra.Command {
	var name, customer, site, status, targetDate string
	var value float64
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update project fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *repo.Store) error {
				p, err := s.Find(args[0])
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("name") {
					p.Name = name
				}
				if cmd.Flags().Changed("customer") {
					p.CustomerName = customer
				}
				if cmd.Flags().Changed("site") {
					p.SiteName = site
				}
				if cmd.Flags().Changed("status") {
					p.Status = status
				}
				if cmd.Flags().Changed("target-date") {
					p.TargetCompletionDate = targetDate
				}
				if cmd.Flags().Changed("value") {
					p.ProjectValue = value
				}
				if err := validateProject(p); err != nil {
					return err
				}
				if err := s.Update(p); err != nil {
					return err
				}
				return printJSONOrIndent(p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&customer, "customer", "", "customer name")
	cmd.Flags().StringVar(&site, "site", "", "site location")
	cmd.Flags().StringVar(&status, "status", "", "status (draft, active, on-hold, completed, delivered)")
	cmd.Flags().StringVar(&targetDate, "target-date", "", "target completion date")
	cmd.Flags().Float64Var(&value, "value", 0, "contract value")
	return cmd
}

func projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *repo.Store) error {
				return s.Delete(args[0])
			})
		},
	}
}

func projectResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard all state and restore the seed dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !viper.GetBool("force") {
				return fmt.Errorf("reset discards every change; re-run with --force")
			}
			return withStore(func(s *repo.Store) error {
				return s.ResetToSeed()
			})
		},
	}
}

func taskCmd() *cobra.Command {
	task := &cobra.Command{Use: "task", Short: "Manage tasks"}
	task.AddCommand(taskAddCmd())
	task.AddCommand(taskListCmd())
	task.AddCommand(taskUpdateCmd())
	return task
}

func taskAddCmd() *cobra.Command {
	var projectID, phaseRef, title string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task to a phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *repo.Store) error {
				p, err := s.Find(projectID)
				if err != nil {
					return err
				}
				phaseID, err := resolvePhase(p, phaseRef)
				if err != nil {
					return err
				}
				e := newEngine()
				updated, acts, err := e.CreateTask(p, phaseID, title)
				if err != nil {
					return err
				}
				if err := applyChange(s, updated, acts); err != nil {
					return err
				}
				return printJSONOrIndent(updated)
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	cmd.Flags().StringVar(&phaseRef, "phase", "", "phase id or order (defaults to current phase)")
	cmd.Flags().StringVar(&title, "title", "", "task title")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func taskListCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *repo.Store) error {
				p, err := s.Find(projectID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					var tasks []domain.Task
					for _, ph := range p.Phases {
						tasks = append(tasks, ph.Tasks...)
					}
					return printJSON(tasks)
				}
				now := time.Now()
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Phase", "Title", "Status", "Priority", "Assignee", "Due"})
				for _, ph := range p.Phases {
					for _, t := range ph.Tasks {
						due := t.DueDate
						if overdue(t, now) {
							due += " (overdue)"
						}
						tw.AppendRow(table.Row{t.ID, ph.Name, t.Title, t.Status, t.Priority, t.Assignee, due})
					}
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func taskUpdateCmd() *cobra.Command {
	var projectID, status, assignee, priority, dueDate, title, description string
	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *repo.Store) error {
				p, err := s.Find(projectID)
				if err != nil {
					return err
				}
				t, ok := findTask(p, args[0])
				if !ok {
					return fmt.Errorf("task %s not found in project %s", args[0], projectID)
				}
				if cmd.Flags().Changed("status") {
					t.Status = status
				}
				if cmd.Flags().Changed("assignee") {
					t.Assignee = assignee
				}
				if cmd.Flags().Changed("priority") {
					t.Priority = priority
				}
				if cmd.Flags().Changed("due-date") {
					t.DueDate = dueDate
				}
				if cmd.Flags().Changed("title") {
					t.Title = title
				}
				if cmd.Flags().Changed("description") {
					t.Description = description
				}
				e := newEngine()
				updated, acts, err := e.UpsertTask(p, t)
				if err != nil {
					return err
				}
				if err := applyChange(s, updated, acts); err != nil {
					return err
				}
				out, _ := findTask(updated, t.ID)
				return printJSONOrIndent(out)
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	cmd.Flags().StringVar(&status, "status", "", "status (todo, in-progress, completed)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee name")
	cmd.Flags().StringVar(&priority, "priority", "", "priority (low, medium, high)")
	cmd.Flags().StringVar(&dueDate, "due-date", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func phaseCmd() *cobra.Command {
	phase := &cobra.Command{Use: "phase", Short: "Manage the phase tracker"}
	phase.AddCommand(phaseMoveCmd("advance", engine.Forward))
	phase.AddCommand(phaseMoveCmd("back", engine.Backward))
	phase.AddCommand(phaseSetStatusCmd())
	phase.AddCommand(phaseToggleCmd())
	return phase
}

func phaseMoveCmd(use, direction string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <project-id>",
		Short: "Move the current phase " + direction,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *repo.Store) error {
				p, err := s.Find(args[0])
				if err != nil {
					return err
				}
				e := newEngine()
				updated, acts, err := e.MovePhase(p, direction)
				if err != nil {
					return err
				}
				if err := applyChange(s, updated, acts); err != nil {
					return err
				}
				fmt.Printf("Phase %d of %d - %s\n", updated.CurrentPhase, len(updated.Phases), updated.Phases[updated.CurrentPhase-1].Name)
				return nil
			})
		},
	}
}

func phaseSetStatusCmd() *cobra.Command {
	var phaseRef, status string
	cmd := &cobra.Command{
		Use:   "set-status <project-id>",
		Short: "Set a phase's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *repo.Store) error {
				p, err := s.Find(args[0])
				if err != nil {
					return err
				}
				phaseID, err := resolvePhase(p, phaseRef)
				if err != nil {
					return err
				}
				e := newEngine()
				updated, acts, err := e.SetPhaseStatus(p, phaseID, status)
				if err != nil {
					return err
				}
				return applyChange(s, updated, acts)
			})
		},
	}
	cmd.Flags().StringVar(&phaseRef, "phase", "", "phase id or order")
	cmd.Flags().StringVar(&status, "status", "", "status (not-started, in-progress, completed)")
	_ = cmd.MarkFlagRequired("phase")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func phaseToggleCmd() *cobra.Command {
	var phaseRef string
	cmd := &cobra.Command{
		Use:   "toggle <project-id>",
		Short: "Toggle a phase's expanded flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *repo.Store) error {
				p, err := s.Find(args[0])
				if err != nil {
					return err
				}
				phaseID, err := resolvePhase(p, phaseRef)
				if err != nil {
					return err
				}
				e := newEngine()
				updated, err := e.ToggleExpanded(p, phaseID)
				if err != nil {
					return err
				}
				return s.Update(updated)
			})
		},
	}
	cmd.Flags().StringVar(&phaseRef, "phase", "", "phase id or order")
	_ = cmd.MarkFlagRequired("phase")
	return cmd
}

func deliverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deliver <project-id>",
		Short: "Mark a project as delivered",
		Long:  "Marks the project delivered. Requires the current phase to be the final phase unless --force is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *repo.Store) error {
				p, err := s.Find(args[0])
				if err != nil {
					return err
				}
				if !viper.GetBool("force") {
					if p.Status == domain.ProjectDelivered {
						return fmt.Errorf("project %s is already delivered", p.ID)
					}
					if p.CurrentPhase != len(p.Phases) {
						return fmt.Errorf("project is in phase %d of %d; reach the final phase first or use --force", p.CurrentPhase, len(p.Phases))
					}
				}
				e := newEngine()
				updated, acts := e.MarkDelivered(p)
				return applyChange(s, updated, acts)
			})
		},
	}
}

func activityCmd() *cobra.Command {
	act := &cobra.Command{Use: "activity", Short: "Activity feed"}
	act.AddCommand(activityTailCmd())
	return act
}

func activityTailCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *repo.Store) error {
				acts := s.Activities()
				if n < len(acts) {
					acts = acts[:n]
				}
				if viper.GetBool("json") {
					return printJSON(acts)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"When", "Type", "Description", "User"})
				for _, a := range acts {
					tw.AppendRow(table.Row{a.Timestamp, a.Type, a.Description, a.User})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of entries")
	return cmd
}

func userCmd() *cobra.Command {
	user := &cobra.Command{Use: "user", Short: "User directory"}
	user.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *repo.Store) error {
				users := s.Users()
				if viper.GetBool("json") {
					return printJSON(users)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Email", "Role"})
				for _, u := range users {
					tw.AppendRow(table.Row{u.ID, u.Name, u.Email, u.Role})
				}
				tw.Render()
				return nil
			})
		},
	})
	return user
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Portfolio overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *repo.Store) error {
				projects := s.List()
				byStatus := map[string]int{}
				valueByCurrency := map[string]float64{}
				var tasksTotal, tasksDone, tasksOverdue int
				now := time.Now()
				for _, p := range projects {
					byStatus[p.Status]++
					valueByCurrency[p.Currency] += p.ProjectValue
					for _, ph := range p.Phases {
						for _, t := range ph.Tasks {
							tasksTotal++
							if t.Status == domain.TaskCompleted {
								tasksDone++
							}
							if overdue(t, now) {
								tasksOverdue++
							}
						}
					}
				}
				out := map[string]any{
					"projects":          len(projects),
					"by_status":         byStatus,
					"value_by_currency": valueByCurrency,
					"tasks_total":       tasksTotal,
					"tasks_completed":   tasksDone,
					"tasks_overdue":     tasksOverdue,
				}
				if viper.GetBool("json") {
					return printJSON(out)
				}
				fmt.Printf("Projects: %d\n", len(projects))
				for status, c := range byStatus {
					fmt.Printf("  %s: %d\n", status, c)
				}
				fmt.Println("Contract value:")
				for cur, v := range valueByCurrency {
					fmt.Printf("  %s %.2f\n", cur, v)
				}
				fmt.Printf("Tasks: %d total, %d completed, %d overdue\n", tasksTotal, tasksDone, tasksOverdue)
				return nil
			})
		},
	}
}

// --- helpers ---

func withStore(fn func(*repo.Store) error) error {
	workspace := viper.GetString("workspace")
	store, err := kv.Open(kv.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer store.Close()
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	s := repo.New(store, cfg, newLogger(viper.GetString("log-level")))
	if err := s.Load(); err != nil {
		return err
	}
	return fn(s)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	if lvl == zerolog.DebugLevel {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func newEngine() engine.Engine {
	return engine.New(viper.GetString("actor"))
}

// applyChange persists the mutated project and logs the activities the
// mutator produced.
func applyChange(s *repo.Store, p domain.Project, acts []domain.Activity) error {
	if err := s.Update(p); err != nil {
		return err
	}
	for _, a := range acts {
		if _, err := s.AddActivity(a); err != nil {
			return err
		}
	}
	return nil
}

// validateProject is the boundary validation the core deliberately skips.
func validateProject(p domain.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("project name is required")
	}
	if strings.TrimSpace(p.CustomerName) == "" {
		return fmt.Errorf("customer is required")
	}
	if strings.TrimSpace(p.SiteName) == "" {
		return fmt.Errorf("site location is required")
	}
	if p.ProjectValue <= 0 {
		return fmt.Errorf("project value must be positive")
	}
	if p.ContractDate == "" || p.ContractDeliveryDate == "" {
		return fmt.Errorf("contract date and delivery date are required")
	}
	start, err := time.Parse("2006-01-02", p.ContractDate)
	if err != nil {
		return fmt.Errorf("contract date: %w", err)
	}
	end, err := time.Parse("2006-01-02", p.ContractDeliveryDate)
	if err != nil {
		return fmt.Errorf("delivery date: %w", err)
	}
	if !end.After(start) {
		return fmt.Errorf("delivery date must be after contract date")
	}
	if len(p.Architects) == 0 {
		return fmt.Errorf("at least one architect is required")
	}
	return nil
}

// resolvePhase accepts a phase id or a 1-based order; empty means the
// project's current phase.
func resolvePhase(p domain.Project, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		if p.CurrentPhase < 1 || p.CurrentPhase > len(p.Phases) {
			return "", fmt.Errorf("project has no valid current phase")
		}
		return p.Phases[p.CurrentPhase-1].ID, nil
	}
	if order, err := strconv.Atoi(ref); err == nil {
		for _, ph := range p.Phases {
			if ph.Order == order {
				return ph.ID, nil
			}
		}
		return "", fmt.Errorf("no phase with order %d", order)
	}
	if p.FindPhase(ref) >= 0 {
		return ref, nil
	}
	return "", fmt.Errorf("phase %s not found", ref)
}

func findTask(p domain.Project, taskID string) (domain.Task, bool) {
	for _, ph := range p.Phases {
		for _, t := range ph.Tasks {
			if t.ID == taskID {
				return t, true
			}
		}
	}
	return domain.Task{}, false
}

func overdue(t domain.Task, now time.Time) bool {
	if t.DueDate == "" || t.Status == domain.TaskCompleted {
		return false
	}
	due, err := time.Parse("2006-01-02", t.DueDate)
	if err != nil {
		return false
	}
	return due.Before(now.Truncate(24 * time.Hour))
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if v := strings.TrimSpace(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func printJSONOrIndent(v any) error {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
