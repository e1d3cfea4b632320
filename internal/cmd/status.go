package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benresonance-star/Task-Checker-sub001/internal/coordination"
	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a one-shot snapshot of the shared state",
	Long: `Status loads the shared data directory and prints every user's
focus and action set plus every instance's tasks, without starting the
timer loop, heartbeats, or the watcher.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	hub, _, logger, err := buildHub(
		coordination.WithTickInterval(0),
		coordination.WithHeartbeatInterval(0),
		coordination.WithWatchDir(""),
	)
	if err != nil {
		return err
	}
	defer logger.Close()

	if err := hub.Start(context.Background()); err != nil {
		return err
	}
	defer hub.Stop()

	users := hub.Users()
	fmt.Printf("Users: %d\n", len(users))
	for _, u := range users {
		fmt.Printf("  %s (%s, %s)\n", u.ID, u.DisplayName, u.Role)
		if u.ActiveFocus != nil {
			fmt.Printf("    focus: %s/%s since %s\n",
				u.ActiveFocus.InstanceID, u.ActiveFocus.TaskID,
				u.ActiveFocus.Timestamp.Format("15:04:05"))
		}
		if len(u.ActionSet) > 0 {
			items := make([]string, len(u.ActionSet))
			for i, it := range u.ActionSet {
				items[i] = it.TaskID
			}
			fmt.Printf("    action set: %s\n", strings.Join(items, ", "))
		}
	}

	instances := hub.Instances()
	fmt.Printf("\nInstances: %d\n", len(instances))
	for _, in := range instances {
		fmt.Printf("  %s: %s\n", in.ID, in.Title)
		printSections(hub, in.ID, in.Sections, "    ")
	}

	return nil
}

func printSections(hub *coordination.Hub, instanceID string, sections []*model.Section, indent string) {
	for _, s := range sections {
		if s.Title != "" {
			fmt.Printf("%s%s\n", indent, s.Title)
		}
		for _, t := range s.Tasks {
			check := " "
			if t.Completed {
				check = "x"
			}
			line := fmt.Sprintf("%s  [%s] %s  %02d:%02d",
				indent, check, t.Title, t.Timer.Remaining/60, t.Timer.Remaining%60)
			if t.Timer.Running {
				line += " (running)"
			}
			if n := hub.ConcurrentFocusCount(model.FocusRef{InstanceID: instanceID, TaskID: t.ID}); n > 0 {
				line += fmt.Sprintf("  focus:%d", n)
			}
			if claimants := hub.Claimants(t.ID); len(claimants) > 0 {
				line += "  claimed by " + strings.Join(claimants, ", ")
			}
			fmt.Println(line)
		}
		printSections(hub, instanceID, s.Subsections, indent+"  ")
	}
}
