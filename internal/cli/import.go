package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/yukikurage/daily-task-api/internal/services"
)

var importTasksCmd = &cobra.Command{
	Use:   "import-tasks FILE",
	Short: "Create tasks from a JSON file on behalf of the system actor",
	Long:  "Reads a JSON array of tasks (use - for stdin). Either every task is created or none.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := readImportFile(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		tasks := a.taskService(a.progressService())
		created, err := tasks.ImportTasks(cmd.Context(), inputs)
		if err != nil {
			return err
		}

		cmd.Printf("imported %d tasks\n", len(created))
		return nil
	},
}

func readImportFile(path string, stdin io.Reader) ([]services.ImportTaskInput, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open import file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var inputs []services.ImportTaskInput
	if err := json.NewDecoder(r).Decode(&inputs); err != nil {
		return nil, fmt.Errorf("decode import file: %w", err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("import file contains no tasks")
	}
	return inputs, nil
}

func init() {
	rootCmd.AddCommand(importTasksCmd)
}
