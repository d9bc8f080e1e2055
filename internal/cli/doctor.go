package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/relay/internal/config"
	"github.com/example/relay/internal/db"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the relay environment",
		Long: `Environment health check for relay.

Validates:
- Database reachability and schema
- Project context (.relay/config.json)
- Worker command configuration
- Gate manifest syntax
- tmux availability (only needed with RELAY_TMUX)

Examples:
  relay doctor           # Run full health check
  relay doctor --quiet   # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := []CheckResult{
				checkDatabase(),
				checkContext(),
				checkWorkerCmd(),
				checkGateManifest(),
				checkTmux(),
			}

			hasErrors := false
			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				fmt.Println()
				fmt.Println("Check            Status")
				fmt.Println("───────────────────────")
				for _, r := range results {
					fmt.Printf("%-16s %s\n", r.Name, r.Status)
				}
				fmt.Println()

				for _, r := range results {
					if r.Status != "✓" && r.Details != "" {
						fmt.Printf("%s: %s\n", r.Name, r.Details)
					}
				}
			}

			if hasErrors {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Exit code only, no output")

	return cmd
}

func checkDatabase() CheckResult {
	if _, err := db.GetDB(); err != nil {
		return CheckResult{Name: "database", Status: "✗", Details: err.Error()}
	}
	return CheckResult{Name: "database", Status: "✓"}
}

func checkContext() CheckResult {
	cwd, err := os.Getwd()
	if err != nil {
		return CheckResult{Name: "context", Status: "✗", Details: err.Error()}
	}
	cfg, err := config.LoadConfig(cwd)
	if err != nil {
		return CheckResult{Name: "context", Status: "⚠", Details: "no .relay/config.json here; commands need --project"}
	}
	if cfg.ProjectID == "" {
		return CheckResult{Name: "context", Status: "⚠", Details: "config has no project_id; run `relay init`"}
	}
	return CheckResult{Name: "context", Status: "✓"}
}

func checkWorkerCmd() CheckResult {
	cwd, err := os.Getwd()
	if err != nil {
		return CheckResult{Name: "worker", Status: "✗", Details: err.Error()}
	}
	cfg, err := config.LoadConfig(cwd)
	if err != nil || cfg.WorkerCmd == "" {
		return CheckResult{Name: "worker", Status: "⚠", Details: "no worker_cmd configured; `relay run` will use the stub runtime"}
	}
	if _, err := exec.LookPath(cfg.WorkerCmd); err != nil {
		return CheckResult{Name: "worker", Status: "✗", Details: fmt.Sprintf("worker_cmd %q not found in PATH", cfg.WorkerCmd)}
	}
	return CheckResult{Name: "worker", Status: "✓"}
}

func checkGateManifest() CheckResult {
	cwd, err := os.Getwd()
	if err != nil {
		return CheckResult{Name: "gates", Status: "✗", Details: err.Error()}
	}
	data, err := os.ReadFile(filepath.Join(cwd, ".relay", "gates.json"))
	if os.IsNotExist(err) {
		return CheckResult{Name: "gates", Status: "✓"} // nothing protected
	}
	if err != nil {
		return CheckResult{Name: "gates", Status: "✗", Details: err.Error()}
	}
	var manifest struct {
		Protected []string `json:"protected"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return CheckResult{Name: "gates", Status: "✗", Details: fmt.Sprintf("gates.json is malformed: %v", err)}
	}
	return CheckResult{Name: "gates", Status: "✓"}
}

func checkTmux() CheckResult {
	if os.Getenv("RELAY_TMUX") == "" {
		return CheckResult{Name: "tmux", Status: "✓"} // not in use
	}
	if _, err := exec.LookPath("tmux"); err != nil {
		return CheckResult{Name: "tmux", Status: "✗", Details: "RELAY_TMUX is set but tmux is not in PATH"}
	}
	return CheckResult{Name: "tmux", Status: "✓"}
}
