package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Maintain stored progress rollups",
}

var refreshUserID uint64

var progressRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recompute progress for one user or every assignee",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		a.useRedisCache()
		progress := a.progressService()
		ctx := cmd.Context()

		if refreshUserID != 0 {
			p, err := progress.Recompute(ctx, refreshUserID)
			if err != nil {
				return err
			}
			a.log.Info("progress refreshed",
				zap.Uint64("user_id", p.UserID),
				zap.Int("total_tasks", p.TotalTasks),
				zap.Int("rated_tasks", p.TotalRatedTasks),
			)
			return nil
		}

		n, err := progress.RefreshAll(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("refreshed %d users\n", n)
		return nil
	},
}

func init() {
	progressRefreshCmd.Flags().Uint64Var(&refreshUserID, "user", 0, "recompute a single user instead of every assignee")
	progressCmd.AddCommand(progressRefreshCmd)
	rootCmd.AddCommand(progressCmd)
}
