package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maxkimambo/stockctl/internal/batch"
	apperrors "github.com/maxkimambo/stockctl/internal/errors"
	"github.com/maxkimambo/stockctl/internal/inventory"
	"github.com/maxkimambo/stockctl/internal/logger"
	"github.com/maxkimambo/stockctl/internal/utils"
)

func newStockCmd(a *app) *cobra.Command {
	stockCmd := &cobra.Command{
		Use:   "stock",
		Short: "Record stock movements",
	}
	stockCmd.AddCommand(newStockMoveCmd(a), newStockApplyCmd(a))
	return stockCmd
}

func newStockMoveCmd(a *app) *cobra.Command {
	var m inventory.Movement

	moveCmd := &cobra.Command{
		Use:   "move",
		Short: "Record a single receipt, issue or transfer",
		Long: `Record a single stock movement.

Give only --to for a receipt, only --from for an issue, or both for a transfer.

Example:
stockctl stock move --sku BOLT-M8 --qty 50 --to A1
stockctl stock move --sku BOLT-M8 --qty 10 --from A1 --to B2 --note "rebalance"
`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			created, err := a.client.CreateMovement(participation(cmd), m)
			a.metrics.RecordMovement(err == nil)
			if err != nil {
				return err
			}
			logger.User.Stockf("Recorded %s of %d x %s (%s)", created.Type, created.Quantity, created.SKU, created.ID)
			return nil
		}),
	}
	moveCmd.Flags().StringVar(&m.SKU, "sku", "", "Product SKU (required)")
	moveCmd.Flags().IntVar(&m.Quantity, "qty", 0, "Quantity to move (required)")
	moveCmd.Flags().StringVar(&m.From, "from", "", "Source location")
	moveCmd.Flags().StringVar(&m.To, "to", "", "Destination location")
	moveCmd.Flags().StringVar(&m.Note, "note", "", "Free-text note")
	moveCmd.Flags().Bool("no-busy", false, "Never show the busy indicator for this change")
	_ = moveCmd.MarkFlagRequired("sku")
	_ = moveCmd.MarkFlagRequired("qty")
	return moveCmd
}

func newStockApplyCmd(a *app) *cobra.Command {
	var (
		file        string
		autoApprove bool
		failFast    bool
	)

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a YAML file of stock movements",
		Long: `Validate and submit every movement in a YAML file.

File format:
movements:
  - sku: BOLT-M8
    quantity: 50
    to: A1
  - sku: NUT-M8
    quantity: 5
    from: A1

Example:
stockctl stock apply -f movements.yaml --yes --concurrency 8
`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			moves, err := batch.Load(cmd.Context(), a.coord, file)
			if err != nil {
				return err
			}

			items := make([]string, len(moves))
			for i, m := range moves {
				items[i] = describeMovement(m)
			}
			ok, err := utils.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), autoApprove, "apply", items)
			if err != nil {
				return apperrors.NewValidationError(apperrors.CodeValidationInput,
					"Confirmation required", "Apply movements").
					WithOriginalError(err).
					WithTroubleshooting("Pass --yes to apply without prompting")
			}
			if !ok {
				logger.User.Info("Aborted, nothing was applied")
				return nil
			}

			logger.L().Starting(fmt.Sprintf("Applying %d movements from %s", len(moves), file))
			runner := batch.NewRunner(a.client,
				batch.WithConcurrency(a.cfg.Batch.Concurrency),
				batch.WithFailFast(failFast),
				batch.WithRecorder(a.metrics),
			)
			summary, runErr := runner.Apply(cmd.Context(), moves)
			fmt.Fprint(cmd.OutOrStdout(), summary.Table())

			if runErr != nil {
				return runErr
			}
			if summary.Failed > 0 {
				box := utils.NewBox(utils.WarningMessage, "Some movements were not applied").
					AddLine(summary.String())
				for _, res := range summary.Results {
					if res.Err != nil {
						box.AddBullet(fmt.Sprintf("#%d %s", res.Index+1, describeMovement(res.Movement)))
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), box.Render())
				return apperrors.NewAPIError(apperrors.ErrorCategoryStock, apperrors.CodeStockPartial,
					fmt.Sprintf("%d of %d movements failed", summary.Failed, len(moves)), "Apply movements").
					WithContext("file", file)
			}
			fmt.Fprintln(cmd.OutOrStdout(), utils.Success("All movements applied", summary.String()))
			return nil
		}),
	}
	applyCmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with movements (required)")
	applyCmd.Flags().BoolVarP(&autoApprove, "yes", "y", false, "Skip the confirmation prompt")
	applyCmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop submitting after the first failure")
	_ = applyCmd.MarkFlagRequired("file")
	return applyCmd
}

func describeMovement(m inventory.Movement) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s x%d", m.Classify(), m.SKU, m.Quantity)
	if m.From != "" {
		fmt.Fprintf(&sb, " from %s", m.From)
	}
	if m.To != "" {
		fmt.Fprintf(&sb, " to %s", m.To)
	}
	return sb.String()
}
