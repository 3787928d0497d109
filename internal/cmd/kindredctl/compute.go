package kindredctl

import (
	"fmt"

	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
	"github.com/spf13/cobra"
)

func (c *cli) newTickCommand() *cobra.Command {
	var in domain.DayTickInput
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Compute one day tick from raw signals",
		Long: `Compute the next routine stability, request fatigue and emotional arc.

Examples:
  kindredctl tick --care 0.2 --consistency 0.1 --stability 50 --fatigue 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), domain.ComputeDayTick(in))
		},
	}
	cmd.Flags().Float64Var(&in.CareScore, "care", 0.5, "Care score in [0,1]")
	cmd.Flags().Float64Var(&in.CareConsistency, "consistency", 0.5, "Care consistency in [0,1]")
	cmd.Flags().Float64Var(&in.RoutineStabilityScore, "stability", 50, "Routine stability in [0,100]")
	cmd.Flags().Float64Var(&in.RequestFatigue, "fatigue", 0, "Request fatigue in [0,10]")
	cmd.Flags().BoolVar(&in.IsDormant, "dormant", false, "Whether the companion is dormant")
	return cmd
}

func (c *cli) newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate procedural plans from a seed",
	}
	cmd.AddCommand(c.newPlanRitualsCommand(), c.newPlanRequestsCommand())
	return cmd
}

func (c *cli) newPlanRitualsCommand() *cobra.Command {
	var in domain.RitualPlanInput
	cmd := &cobra.Command{
		Use:   "rituals",
		Short: "Generate a ritual plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Seed == "" {
				return fmt.Errorf("--seed is required")
			}
			return writeJSON(cmd.OutOrStdout(), domain.GenerateRitualPlan(in))
		},
	}
	cmd.Flags().StringVar(&in.Seed, "seed", "", "Plan seed, usually <date>:<user id>")
	cmd.Flags().Float64Var(&in.CareScore, "care", 0.5, "Care score in [0,1]")
	cmd.Flags().Float64Var(&in.CareConsistency, "consistency", 0.5, "Care consistency in [0,1]")
	return cmd
}

func (c *cli) newPlanRequestsCommand() *cobra.Command {
	var in domain.RequestPlanInput
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Generate a request urgency plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Seed == "" {
				return fmt.Errorf("--seed is required")
			}
			return writeJSON(cmd.OutOrStdout(), domain.GenerateRequestPlan(in))
		},
	}
	cmd.Flags().StringVar(&in.Seed, "seed", "", "Plan seed, usually <date>:<user id>")
	cmd.Flags().Float64Var(&in.CareScore, "care", 0.5, "Care score in [0,1]")
	cmd.Flags().Float64Var(&in.CareConsistency, "consistency", 0.5, "Care consistency in [0,1]")
	cmd.Flags().Float64Var(&in.RequestFatigue, "fatigue", 0, "Request fatigue in [0,10]")
	cmd.Flags().IntVar(&in.OpenRequests, "open", 0, "Requests already pending")
	cmd.Flags().IntVar(&in.MaxRequests, "max", domain.MaxOpenRequests, "Maximum open requests")
	return cmd
}
