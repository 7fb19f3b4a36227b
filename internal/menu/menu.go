// Package menu runs the interactive expense tracker over a reader and a writer.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/storage"
)

// ExpenseService is the subset of services.ExpenseService the menu drives.
type ExpenseService interface {
	Load(ctx context.Context) (core.Expenses, error)
	Add(ctx context.Context, d core.Draft) (core.Expense, error)
	Delete(ctx context.Context, snapshot core.Expenses, position int) (core.Expense, error)
	Report(ctx context.Context) (core.Summary, error)
}

const banner = `
EXPENSE TRACKER MENU
1. View all expenses
2. Add new expense
3. Generate report
4. Delete an expense
0. Exit
`

type Menu struct {
	svc ExpenseService
	in  *bufio.Scanner
	out io.Writer
}

func New(svc ExpenseService, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		svc: svc,
		in:  bufio.NewScanner(in),
		out: out,
	}
}

// Run shows the menu until the user picks 0 or input ends.
// Errors from individual actions are printed and never stop the loop.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(m.out, banner)
		choice, err := m.prompt("Enter choice (0-4): ")
		if err != nil {
			return m.quit(err)
		}

		switch choice {
		case "1":
			err = m.view(ctx)
		case "2":
			err = m.add(ctx)
		case "3":
			err = m.report(ctx)
		case "4":
			err = m.delete(ctx)
		case "0":
			return m.quit(nil)
		default:
			m.println("Invalid choice. Please try again.")
		}
		if err != nil {
			return m.quit(err)
		}
	}
}

// quit ends the session. End of input counts as a regular exit.
func (m *Menu) quit(err error) error {
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	m.println("Goodbye!")
	return nil
}

func (m *Menu) view(ctx context.Context) error {
	items, err := m.svc.Load(ctx)
	if !m.check(err) {
		return nil
	}
	if len(items) == 0 {
		m.println("\nNo expenses recorded yet.")
		return nil
	}
	m.printTable(items)
	return nil
}

func (m *Menu) add(ctx context.Context) error {
	m.println("\nAdd New Expense")

	var d core.Draft
	var err error

	// Fields are checked as they are typed; Add validates them again.
	if d.Date, err = m.prompt("Date (YYYY-MM-DD) [leave empty for today]: "); err != nil {
		return err
	}
	if d.Date != "" {
		if _, perr := core.ParseDate(d.Date, time.Time{}); perr != nil {
			m.println(message(perr))
			return nil
		}
	}

	if d.Category, err = m.prompt("Category (e.g. Food, Transport): "); err != nil {
		return err
	}
	if d.Category == "" {
		m.println(message(core.ErrEmptyCategory))
		return nil
	}

	if d.Amount, err = m.prompt("Amount: "); err != nil {
		return err
	}
	if _, perr := core.ParseAmount(d.Amount); perr != nil {
		m.println(message(perr))
		return nil
	}

	if d.Notes, err = m.prompt("Notes (optional): "); err != nil {
		return err
	}

	_, err = m.svc.Add(ctx, d)
	if !m.check(err) {
		return nil
	}
	m.println("Expense added successfully.")
	return nil
}

func (m *Menu) report(ctx context.Context) error {
	summary, err := m.svc.Report(ctx)
	if !m.check(err) {
		return nil
	}
	if summary.Count == 0 {
		m.println("\nNo expenses to report.")
		return nil
	}

	fmt.Fprintf(m.out, "\nTotal Expenses: %s\n", summary.Total.Format())
	m.println("\nExpenses by Category:")
	for _, ca := range summary.ByCategory {
		fmt.Fprintf(m.out, "- %s: %s\n", ca.Name, ca.Amount.Format())
	}
	return nil
}

func (m *Menu) delete(ctx context.Context) error {
	items, err := m.svc.Load(ctx)
	if !m.check(err) {
		return nil
	}
	if len(items) == 0 {
		m.println("\nNo expenses to delete.")
		return nil
	}
	m.printTable(items)

	answer, err := m.prompt("\nEnter expense number to delete: ")
	if err != nil {
		return err
	}
	position, err := core.ParsePosition(answer)
	if err != nil {
		m.println(message(err))
		return nil
	}

	removed, err := m.svc.Delete(ctx, items, position)
	if !m.check(err) {
		return nil
	}
	fmt.Fprintf(m.out, "Removed expense: %s on %s (%s)\n", removed.Category, removed.Date, removed.Amount.Format())
	return nil
}

// check prints err and reports whether the action can go on. Recoverable
// storage errors come with a usable result, so only a warning is shown.
func (m *Menu) check(err error) bool {
	if err == nil {
		return true
	}
	m.println(message(err))
	return storage.IsRecoverable(err)
}

func (m *Menu) printTable(items core.Expenses) {
	m.println("\nAll Expenses:")
	tw := tabwriter.NewWriter(m.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "No.\tDate\tCategory\tAmount\tNotes")
	fmt.Fprintln(tw, "---\t----\t--------\t------\t-----")
	for i, e := range items {
		notes := e.Notes
		if notes == "" {
			notes = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, e.Date, e.Category, e.Amount.Format(), notes)
	}
	tw.Flush()
}

// prompt writes label and returns the next trimmed input line, or io.EOF.
func (m *Menu) prompt(label string) (string, error) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", err
		}
		fmt.Fprintln(m.out)
		return "", io.EOF
	}
	return strings.TrimSpace(m.in.Text()), nil
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.out, s)
}

// message turns an error into the line shown to the user.
func message(err error) string {
	switch {
	case errors.Is(err, storage.ErrCorruptData):
		return "Warning: could not parse expense data. Starting with an empty list."
	case errors.Is(err, storage.ErrShapeMismatch):
		return "Warning: expense data is corrupted. Starting with an empty list."
	case errors.Is(err, core.ErrInvalidDate):
		return "Invalid date format. Use YYYY-MM-DD."
	case errors.Is(err, core.ErrEmptyCategory):
		return "Category is required."
	case errors.Is(err, core.ErrAmountFormat):
		return "Invalid amount entered."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be a positive number."
	case errors.Is(err, core.ErrIndexOutOfRange):
		return "Invalid expense number."
	case errors.Is(err, core.ErrInputFormat):
		return "Please enter a valid number."
	default:
		return "Error: " + err.Error()
	}
}
