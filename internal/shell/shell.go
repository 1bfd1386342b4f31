// Package shell implements the interactive numbered menu.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billbook/internal/calculator"
	"github.com/mmynk/billbook/internal/invoice"
	"github.com/mmynk/billbook/internal/middleware"
	"github.com/mmynk/billbook/internal/models"
	"github.com/mmynk/billbook/internal/service"
	"github.com/mmynk/billbook/internal/storage"
	"github.com/mmynk/billbook/internal/validation"
)

const menu = `
1) Add company
2) View companies
3) Add purchase
4) View all purchases
5) View purchases by company
6) Excel report
7) Delete company
8) Exit
`

const exitChoice = "8"

// Shell reads menu choices from in and writes prompts and results to out.
// Input mistakes are reported and the menu is shown again; only storage
// failures end the loop.
type Shell struct {
	svc          *service.BillingService
	in           *bufio.Scanner
	out          io.Writer
	interceptors []middleware.Interceptor
}

// New creates a Shell. Interceptors wrap every menu operation, first outermost.
func New(svc *service.BillingService, in io.Reader, out io.Writer, interceptors ...middleware.Interceptor) *Shell {
	return &Shell{
		svc:          svc,
		in:           bufio.NewScanner(in),
		out:          out,
		interceptors: interceptors,
	}
}

// Run loops until the exit choice or end of input. It returns the first
// error an operation could not recover from.
func (sh *Shell) Run(ctx context.Context) error {
	ops := map[string]middleware.Operation{
		"1": sh.wrap("add_company", sh.addCompany),
		"2": sh.wrap("list_companies", sh.listCompanies),
		"3": sh.wrap("add_purchase", sh.addPurchase),
		"4": sh.wrap("list_purchases", sh.listPurchases),
		"5": sh.wrap("list_company_purchases", sh.listCompanyPurchases),
		"6": sh.wrap("export_report", sh.exportReport),
		"7": sh.wrap("delete_company", sh.deleteCompany),
	}

	for {
		fmt.Fprint(sh.out, menu)
		choice, ok := sh.prompt("Your choice: ")
		if !ok || choice == exitChoice {
			sh.println("Bye!")
			return sh.in.Err()
		}

		op, found := ops[choice]
		if !found {
			sh.println("That won't work, try again.")
			continue
		}
		if err := op(ctx); err != nil {
			return err
		}
	}
}

func (sh *Shell) wrap(name string, op middleware.Operation) middleware.Operation {
	return middleware.Chain(name, op, sh.interceptors...)
}

// prompt prints label and reads one trimmed line. ok is false at end of input.
func (sh *Shell) prompt(label string) (string, bool) {
	fmt.Fprint(sh.out, label)
	if !sh.in.Scan() {
		fmt.Fprintln(sh.out)
		return "", false
	}
	return strings.TrimSpace(sh.in.Text()), true
}

func (sh *Shell) println(a ...any) {
	fmt.Fprintln(sh.out, a...)
}

func (sh *Shell) promptID(label string) (int, bool) {
	s, ok := sh.prompt(label)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		sh.println("Invalid")
		return 0, false
	}
	return id, true
}

func (sh *Shell) addCompany(ctx context.Context) error {
	sh.println("\nAdd a new company")
	name, ok := sh.prompt("Name: ")
	if !ok {
		return nil
	}
	phone, ok := sh.prompt("Phone: ")
	if !ok {
		return nil
	}
	email, ok := sh.prompt("Email: ")
	if !ok {
		return nil
	}

	company, err := sh.svc.AddCompany(ctx, name, phone, email)
	switch {
	case errors.Is(err, validation.ErrInvalidPhone):
		sh.println("Bad phone format")
		return nil
	case errors.Is(err, validation.ErrInvalidEmail):
		sh.println("Bad email")
		return nil
	case err != nil:
		return err
	}
	sh.println("Company added with ID", company.ID)
	return nil
}

func (sh *Shell) listCompanies(ctx context.Context) error {
	companies, err := sh.svc.ListCompanies(ctx)
	if err != nil {
		return err
	}

	sh.println("\nCompanies")
	for _, c := range companies {
		sh.println(c.ID, "-", c.Name)
	}
	sh.println()
	return nil
}

func (sh *Shell) addPurchase(ctx context.Context) error {
	if err := sh.listCompanies(ctx); err != nil {
		return err
	}
	companyID, ok := sh.promptID("Choose company ID: ")
	if !ok {
		return nil
	}

	items, ok := sh.readItems()
	if !ok {
		return nil
	}
	if len(items) == 0 {
		sh.println("No items")
		return nil
	}

	res, err := sh.svc.AddPurchase(ctx, companyID, items)
	if res == nil {
		if errors.Is(err, calculator.ErrNoItems) || errors.Is(err, calculator.ErrInvalidItem) ||
			errors.Is(err, validation.ErrInvalidItemName) {
			sh.println(err)
			return nil
		}
		return err
	}

	b := res.Bill
	sh.println(fmt.Sprintf("Purchase saved: subtotal %s, CGST %s, SGST %s, total %s",
		b.Subtotal.StringFixed(2), b.CGST.StringFixed(2), b.SGST.StringFixed(2), b.Total.StringFixed(2)))
	switch {
	case res.InvoicePath != "":
		sh.println("Invoice saved to", res.InvoicePath)
		if res.InvoiceErr != nil {
			sh.println("PDF copy failed:", res.InvoiceErr)
		}
	case errors.Is(res.InvoiceErr, invoice.ErrCompanyNotFound):
		sh.println("Could not find company for invoice.")
	}
	return err
}

// readItems collects line items until a blank product name. ok is false when
// input ends first.
func (sh *Shell) readItems() ([]models.LineItem, bool) {
	sh.println("Enter products (leave blank name to finish):")

	var items []models.LineItem
	for {
		name, ok := sh.prompt(" Product name: ")
		if !ok {
			return nil, false
		}
		if name == "" {
			return items, true
		}
		if err := validation.ValidateItemName(name); err != nil {
			sh.println("Product name cannot contain '@' or ';', try again")
			continue
		}

		priceText, ok := sh.prompt(" Price       : ")
		if !ok {
			return nil, false
		}
		qtyText, ok := sh.prompt(" Quantity    : ")
		if !ok {
			return nil, false
		}

		price, err := decimal.NewFromString(priceText)
		if err != nil || price.IsNegative() {
			sh.println("Try again")
			continue
		}
		qty, err := strconv.Atoi(qtyText)
		if err != nil || qty < 0 {
			sh.println("Try again")
			continue
		}
		items = append(items, models.LineItem{Name: name, Price: price, Quantity: qty})
	}
}

func (sh *Shell) listPurchases(ctx context.Context) error {
	bills, err := sh.svc.ListBills(ctx)
	if err != nil {
		return err
	}

	sh.println("\nAll purchases")
	sh.println("CID\tItems\tSub\tCGST\tSGST\tTot\tTime")
	for i := range bills {
		sh.println(strings.Join(storage.BillRecord(&bills[i]), "\t"))
	}
	sh.println()
	return nil
}

func (sh *Shell) listCompanyPurchases(ctx context.Context) error {
	if err := sh.listCompanies(ctx); err != nil {
		return err
	}
	companyID, ok := sh.promptID("Company ID: ")
	if !ok {
		return nil
	}

	bills, err := sh.svc.ListBillsForCompany(ctx, companyID)
	if err != nil {
		return err
	}

	sh.println(fmt.Sprintf("\nPurchases for %d", companyID))
	sh.println("Items\tSub\tCGST\tSGST\tTot\tTime")
	for i := range bills {
		sh.println(strings.Join(storage.BillRecord(&bills[i])[1:], "\t"))
	}
	sh.println()
	return nil
}

func (sh *Shell) exportReport(ctx context.Context) error {
	path, rows, err := sh.svc.ExportReport(ctx)
	if err != nil {
		return err
	}
	sh.println(fmt.Sprintf("Excel report created: %s (%d rows)", path, rows))
	return nil
}

func (sh *Shell) deleteCompany(ctx context.Context) error {
	if err := sh.listCompanies(ctx); err != nil {
		return err
	}
	companyID, ok := sh.promptID("Enter ID to remove: ")
	if !ok {
		return nil
	}
	confirm, ok := sh.prompt("Are you sure? (y/n): ")
	if !ok || strings.ToLower(confirm) != "y" {
		return nil
	}

	res, err := sh.svc.DeleteCompany(ctx, companyID)
	if err != nil {
		return err
	}
	if res.CompanyFound {
		sh.println("Company", companyID, "and its data deleted")
	} else {
		sh.println(fmt.Sprintf("No company with ID %d; removed %d orphaned purchases", companyID, res.BillsRemoved))
	}
	return nil
}
