// Command poctl is a terminal client for the purchase-order backend. It
// drives the same client core (store mirror, edit session, list filter) that
// the desktop shell uses.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/kedhead/embPO/client"
	"github.com/kedhead/embPO/internal/config"
	"github.com/kedhead/embPO/internal/models"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "poctl",
		Usage: "manage purchase orders from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "base URL of the purchase-order backend",
				Value:   "http://127.0.0.1:5000",
				EnvVars: []string{"EMBPO_API"},
			},
		},
		Commands: []*cli.Command{
			listCommand(),
			showCommand(),
			createCommand(),
			editCommand(),
			deleteCommand(),
			emailCommand(),
			pdfCommand(),
			settingsCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func storeFrom(c *cli.Context) *client.Store {
	return client.NewStore(c.String("api"))
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list purchase orders, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "match order number, customer name or email"},
			&cli.StringFlag{Name: "status", Value: "all", Usage: "unpaid, paid, cancelled or all"},
		},
		Action: func(c *cli.Context) error {
			store := storeFrom(c)
			orders, err := store.List(context.Background())
			if err != nil {
				return err
			}
			filtered := client.Filter(orders, c.String("search"), client.StatusFilter(c.String("status")))
			if len(filtered) == 0 {
				fmt.Println("no purchase orders")
				return nil
			}
			fmt.Printf("%-14s  %-24s  %-10s  %10s  %s\n", "NUMBER", "CUSTOMER", "STATUS", "TOTAL", "CREATED")
			for _, po := range filtered {
				fmt.Printf("%-14s  %-24s  %-10s  %10.2f  %s\n",
					po.OrderNumber, po.Customer.Name, po.Status, po.Total, po.CreatedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "show one purchase order",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: poctl show <id>", 2)
			}
			po, err := storeFrom(c).Get(context.Background(), c.Args().First())
			if err != nil {
				return err
			}
			printOrder(po)
			return nil
		},
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "create a purchase order",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "customer", Required: true, Usage: "customer name"},
			&cli.StringFlag{Name: "email", Usage: "customer email"},
			&cli.StringFlag{Name: "phone", Usage: "customer phone"},
			&cli.StringFlag{Name: "address", Usage: "customer address"},
			&cli.StringSliceFlag{Name: "item", Required: true, Usage: `line item as "description:qty:price" (repeatable)`},
			&cli.Float64Flag{Name: "tax-rate", Value: -1, Usage: "tax rate percent (defaults to saved settings)"},
			&cli.StringFlag{Name: "notes", Usage: "free-form notes"},
			&cli.StringFlag{Name: "due", Usage: "due date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "number", Usage: "order number (autogenerated when empty)"},
		},
		Action: func(c *cli.Context) error {
			items := make([]models.LineItem, 0, len(c.StringSlice("item")))
			for _, spec := range c.StringSlice("item") {
				it, err := parseItem(spec)
				if err != nil {
					return err
				}
				items = append(items, it)
			}
			taxRate := c.Float64("tax-rate")
			if taxRate < 0 {
				taxRate = loadSettings().TaxRate
			}
			draft := client.Draft{
				OrderNumber: c.String("number"),
				Customer: models.Customer{
					Name:    c.String("customer"),
					Email:   c.String("email"),
					Phone:   c.String("phone"),
					Address: c.String("address"),
				},
				LineItems: items,
				TaxRate:   taxRate,
				Notes:     c.String("notes"),
				DueDate:   c.String("due"),
			}
			po, err := storeFrom(c).Create(context.Background(), draft)
			if err != nil {
				return err
			}
			fmt.Printf("created %s (%s)\n", po.OrderNumber, po.ID)
			printOrder(po)
			return nil
		},
	}
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "stage edits to an order and commit them",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Usage: "unpaid, paid or cancelled"},
			&cli.StringFlag{Name: "notes", Usage: "replace notes"},
			&cli.Float64Flag{Name: "tax-rate", Value: -1, Usage: "replace tax rate percent"},
			&cli.StringSliceFlag{Name: "add", Usage: `append line item "description:qty:price" (repeatable)`},
			&cli.IntSliceFlag{Name: "remove", Usage: "remove line at index, 0-based (repeatable)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: poctl edit <id> [flags]", 2)
			}
			ctx := context.Background()
			store := storeFrom(c)
			po, err := store.Get(ctx, c.Args().First())
			if err != nil {
				return err
			}
			sess := store.Begin(po)

			// Removals first so indexes refer to the order as listed.
			removals := c.IntSlice("remove")
			for i := len(removals) - 1; i >= 0; i-- {
				if err := sess.RemoveLine(removals[i]); err != nil {
					return err
				}
			}
			for _, spec := range c.StringSlice("add") {
				it, err := parseItem(spec)
				if err != nil {
					return err
				}
				idx := sess.AddLine()
				_ = sess.SetDescription(idx, it.Description)
				_ = sess.SetQuantity(idx, it.Quantity)
				_ = sess.SetUnitPrice(idx, it.UnitPrice)
			}
			if v := c.String("status"); v != "" {
				if err := sess.SetStatus(models.Status(v)); err != nil {
					return err
				}
			}
			if c.IsSet("notes") {
				sess.SetNotes(c.String("notes"))
			}
			if v := c.Float64("tax-rate"); v >= 0 {
				sess.SetTaxRate(v)
			}

			if !sess.Dirty() {
				fmt.Println("nothing to commit")
				return nil
			}
			updated, err := sess.Commit(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("updated %s\n", updated.OrderNumber)
			printOrder(updated)
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "delete a purchase order",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: poctl delete <id>", 2)
			}
			if err := storeFrom(c).Delete(context.Background(), c.Args().First()); err != nil {
				return err
			}
			fmt.Println("deleted")
			return nil
		},
	}
}

func emailCommand() *cli.Command {
	return &cli.Command{
		Name:      "email",
		Usage:     "email the order PDF",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "to", Required: true, Usage: "recipient address"},
			&cli.StringFlag{Name: "subject", Usage: "subject line (defaults to the order number)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: poctl email <id> --to addr", 2)
			}
			msg, err := storeFrom(c).EmailPDF(context.Background(), c.Args().First(), c.String("to"), c.String("subject"))
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
}

func pdfCommand() *cli.Command {
	return &cli.Command{
		Name:      "pdf",
		Usage:     "download the order PDF",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (defaults to <number>.pdf)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: poctl pdf <id>", 2)
			}
			ctx := context.Background()
			store := storeFrom(c)
			po, err := store.Get(ctx, c.Args().First())
			if err != nil {
				return err
			}
			data, err := store.FetchPDF(ctx, po.ID)
			if err != nil {
				return err
			}
			out := c.String("out")
			if out == "" {
				out = po.OrderNumber + ".pdf"
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", out)
			return nil
		},
	}
}

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "show or change local application settings",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "company-name"},
			&cli.StringFlag{Name: "company-address"},
			&cli.StringFlag{Name: "company-phone"},
			&cli.StringFlag{Name: "company-email"},
			&cli.Float64Flag{Name: "tax-rate", Value: -1},
		},
		Action: func(c *cli.Context) error {
			path, err := config.SettingsPath()
			if err != nil {
				return err
			}
			s := config.LoadSettings(path)
			changed := false
			if c.IsSet("company-name") {
				s.CompanyName = c.String("company-name")
				changed = true
			}
			if c.IsSet("company-address") {
				s.CompanyAddress = c.String("company-address")
				changed = true
			}
			if c.IsSet("company-phone") {
				s.CompanyPhone = c.String("company-phone")
				changed = true
			}
			if c.IsSet("company-email") {
				s.CompanyEmail = c.String("company-email")
				changed = true
			}
			if v := c.Float64("tax-rate"); v >= 0 {
				s.TaxRate = v
				changed = true
			}
			if changed {
				if err := config.SaveSettings(path, s); err != nil {
					return err
				}
			}
			fmt.Printf("company:  %s\naddress:  %s\nphone:    %s\nemail:    %s\ntax rate: %.2f%%\n",
				s.CompanyName, s.CompanyAddress, s.CompanyPhone, s.CompanyEmail, s.TaxRate)
			return nil
		},
	}
}

func loadSettings() config.Settings {
	path, err := config.SettingsPath()
	if err != nil {
		return config.DefaultSettings()
	}
	return config.LoadSettings(path)
}

func printOrder(po models.PurchaseOrder) {
	fmt.Printf("order:    %s\nid:       %s\ncustomer: %s\nstatus:   %s\n", po.OrderNumber, po.ID, po.Customer.Name, po.Status)
	if po.DueDate != nil {
		fmt.Printf("due:      %s\n", po.DueDate.Format("2006-01-02"))
	}
	for i, it := range po.LineItems {
		fmt.Printf("  [%d] %-30s %8.2f x %8.2f = %10.2f\n", i, it.Description, it.Quantity, it.UnitPrice, it.LineTotal())
	}
	fmt.Printf("subtotal: %.2f\ntax (%.2f%%): %.2f\ntotal:    %.2f\n", po.Subtotal, po.TaxRate, po.TaxAmount, po.Total)
	if po.Notes != "" {
		fmt.Printf("notes:    %s\n", po.Notes)
	}
}

// parseItem parses "description:qty:price"; the description may itself
// contain colons, so qty and price are taken from the right.
func parseItem(spec string) (models.LineItem, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 3 {
		return models.LineItem{}, fmt.Errorf("invalid item %q, want description:qty:price", spec)
	}
	qty, err := strconv.ParseFloat(parts[len(parts)-2], 64)
	if err != nil {
		return models.LineItem{}, fmt.Errorf("invalid quantity in %q: %w", spec, err)
	}
	price, err := strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil {
		return models.LineItem{}, fmt.Errorf("invalid price in %q: %w", spec, err)
	}
	return models.LineItem{
		Description: strings.Join(parts[:len(parts)-2], ":"),
		Quantity:    qty,
		UnitPrice:   price,
	}, nil
}
