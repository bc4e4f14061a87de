package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/maxkimambo/stockctl/internal/inventory"
	"github.com/maxkimambo/stockctl/internal/logger"
	"github.com/maxkimambo/stockctl/internal/utils"
)

func newPurchaseCmd(a *app) *cobra.Command {
	purchaseCmd := &cobra.Command{
		Use:     "purchase",
		Aliases: []string{"pr"},
		Short:   "Manage purchase requests",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List purchase requests",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			requests, err := a.client.ListPurchaseRequests(participation(cmd))
			if err != nil {
				return err
			}
			if len(requests) == 0 {
				logger.User.Info("No purchase requests")
				return nil
			}

			table := utils.NewTableFormatter([]string{"ID", "SKU", "QTY", "STATUS", "CREATED", "REASON"}).AlignRight(2)
			for _, pr := range requests {
				created := "-"
				if !pr.CreatedAt.IsZero() {
					created = pr.CreatedAt.Format("2006-01-02")
				}
				table.AddRow([]string{pr.ID, pr.SKU, strconv.Itoa(pr.Quantity), string(pr.Status), created, pr.Reason})
			}
			fmt.Fprint(cmd.OutOrStdout(), table.String())
			return nil
		}),
	}
	listCmd.Flags().Bool("busy", false, "Show the busy indicator for this lookup if it is slow")

	var pr inventory.PurchaseRequest
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "File a purchase request",
		Long: `File a purchase request for a product.

Example:
stockctl purchase create --sku NUT-M8 --qty 200 --reason "below minimum"
`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			created, err := a.client.CreatePurchaseRequest(participation(cmd), pr)
			if err != nil {
				return err
			}
			logger.User.Stockf("Purchase request %s filed for %d x %s (%s)", created.ID, created.Quantity, created.SKU, created.Status)
			return nil
		}),
	}
	createCmd.Flags().StringVar(&pr.SKU, "sku", "", "Product SKU (required)")
	createCmd.Flags().IntVar(&pr.Quantity, "qty", 0, "Quantity to order (required)")
	createCmd.Flags().StringVar(&pr.Reason, "reason", "", "Why the stock is needed")
	createCmd.Flags().Bool("no-busy", false, "Never show the busy indicator for this change")
	_ = createCmd.MarkFlagRequired("sku")
	_ = createCmd.MarkFlagRequired("qty")

	purchaseCmd.AddCommand(listCmd, createCmd)
	return purchaseCmd
}
