package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	apperrors "github.com/maxkimambo/stockctl/internal/errors"
	"github.com/maxkimambo/stockctl/internal/inventory"
	"github.com/maxkimambo/stockctl/internal/logger"
	"github.com/maxkimambo/stockctl/internal/utils"
)

func newProductsCmd(a *app) *cobra.Command {
	productsCmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product", "p"},
		Short:   "Look up products and their stock levels",
	}

	var (
		search   string
		lowStock bool
		filter   string
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Long: `List catalog entries with their current stock levels.

Example:
stockctl products list --search bolt
stockctl products list --low-stock --filter category=fasteners
`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			fieldFilter, err := utils.ParseFieldFilter(filter)
			if err != nil {
				return apperrors.NewValidationFailedError("filter", filter, "List products").WithOriginalError(err)
			}

			products, err := a.client.ListProducts(participation(cmd), inventory.ListOptions{
				Search:       search,
				LowStockOnly: lowStock,
			})
			if err != nil {
				return err
			}

			table := utils.NewTableFormatter([]string{"SKU", "NAME", "CATEGORY", "QTY", "MIN", "LOCATION"}).AlignRight(3, 4)
			for _, p := range products {
				if !fieldFilter.Matches(p.Fields()) {
					continue
				}
				qty := strconv.Itoa(p.Quantity)
				if p.BelowMinimum() {
					qty += " !"
				}
				table.AddRow([]string{p.SKU, p.Name, p.Category, qty, strconv.Itoa(p.MinQuantity), p.Location})
			}

			if table.Len() == 0 {
				logger.User.Info("No products found")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), table.String())
			return nil
		}),
	}
	listCmd.Flags().StringVar(&search, "search", "", "Match SKU or name")
	listCmd.Flags().BoolVar(&lowStock, "low-stock", false, "Only products below their minimum quantity")
	listCmd.Flags().StringVar(&filter, "filter", "", "Field filter in key=value or key format, e.g. category=fasteners")
	listCmd.Flags().Bool("busy", false, "Show the busy indicator for this lookup if it is slow")

	getCmd := &cobra.Command{
		Use:   "get SKU",
		Short: "Show a single product",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			p, err := a.client.GetProduct(participation(cmd), args[0])
			if err != nil {
				return err
			}

			kind := utils.InfoMessage
			if p.BelowMinimum() {
				kind = utils.WarningMessage
			}
			box := utils.NewBox(kind, fmt.Sprintf("%s  %s", p.SKU, p.Name)).
				AddField("Quantity", fmt.Sprintf("%d %s", p.Quantity, p.Unit)).
				AddField("Minimum", p.MinQuantity).
				AddField("Category", dash(p.Category)).
				AddField("Location", dash(p.Location))
			if p.BelowMinimum() {
				box.AddLine("Below minimum stock, consider 'stockctl purchase create'")
			}
			fmt.Fprintln(cmd.OutOrStdout(), box.Render())
			return nil
		}),
	}
	getCmd.Flags().Bool("busy", false, "Show the busy indicator for this lookup if it is slow")

	productsCmd.AddCommand(listCmd, getCmd)
	return productsCmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
