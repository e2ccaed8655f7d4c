package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/spendkeeper/internal/api"
)

// Add prompts for a transaction and its line items.
func (a *App) Add(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	category, err := getSimpleText(a.reader, "Enter category", a.out)
	if err != nil {
		return err
	}
	amountText, err := getSimpleText(a.reader, "Enter amount", a.out)
	if err != nil {
		return err
	}
	amount, err := parseAmount(amountText)
	if err != nil {
		return err
	}

	lines, err := GetLines(a.reader, "Enter items as name;amount[;quantity]", a.out)
	if err != nil {
		return err
	}

	t := api.Transaction{Name: name, Category: category, Amount: amount}
	for _, l := range lines {
		it, err := parseItem(l)
		if err != nil {
			return err
		}
		t.Items = append(t.Items, it)
	}

	created, err := a.expenseService.Add(ctx, t)
	if err != nil {
		return a.handleAuthErr(err)
	}

	fmt.Fprintln(a.out, "Added transaction", created.ID)
	return nil
}

func (a *App) List(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	list, err := a.expenseService.List(ctx)
	if err != nil {
		return a.handleAuthErr(err)
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No transactions")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tNAME\tCATEGORY\tAMOUNT\tITEMS")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%d\n",
			t.ID, t.CreatedAt.Format("2006-01-02"), t.Name, t.Category, t.Amount, len(t.Items))
	}
	return tw.Flush()
}

// AttachReceipt expects: <transaction-id> <image-path>.
func (a *App) AttachReceipt(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: receipt <transaction-id> <image-path>")
	}

	resp, err := a.expenseService.AttachReceipt(ctx, args[0], args[1])
	if err != nil {
		return a.handleAuthErr(err)
	}

	fmt.Fprintln(a.out, "Uploaded receipt", resp.ReceiptID)
	return nil
}

// Receipts expects: <transaction-id>.
func (a *App) Receipts(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: receipts <transaction-id>")
	}

	list, err := a.expenseService.Receipts(ctx, args[0])
	if err != nil {
		return a.handleAuthErr(err)
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No receipts")
		return nil
	}

	for _, r := range list {
		fmt.Fprintf(a.out, "%s  %s  %s\n  %s\n", r.ID, r.FileName, r.MimeType, r.URL)
	}
	return nil
}
