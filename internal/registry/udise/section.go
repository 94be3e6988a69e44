package udise

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"autoedu/internal/registry"

	"github.com/go-rod/rod"
	"go.uber.org/zap"
)

const sectionPageSize = 10

var entriesPattern = regexp.MustCompile(`of\s+(\d+)\s+entries`)

// OpenSectionModule navigates to the class/section shift table.
func (a *Adapter) OpenSectionModule(ctx context.Context) error {
	if err := a.session.Click(ctx, selSectionShiftOption); err != nil {
		return a.guard(fmt.Errorf("select Class / Section Shift: %w", err))
	}
	a.session.Sleep(ctx, a.stepDelay)
	return nil
}

// SelectClass loads the shift table for one class.
func (a *Adapter) SelectClass(ctx context.Context, class string) error {
	if err := a.session.SelectValue(ctx, selSectionClass, class); err != nil {
		return a.guard(err)
	}
	if err := a.session.Click(ctx, selSectionGo); err != nil {
		return a.guard(err)
	}
	a.session.Sleep(ctx, a.stepDelay)
	return nil
}

// PageCount derives the page total from the "Showing X to Y of N entries"
// footer. A table with no footer counts as a single page.
func (a *Adapter) PageCount(ctx context.Context) (int, error) {
	text, err := a.session.Text(ctx, selStudentCount)
	if err != nil {
		return 0, a.guard(err)
	}
	m := entriesPattern.FindStringSubmatch(text)
	if m == nil {
		a.log.Warn("unrecognized entries footer", zap.String("text", text))
		return 1, nil
	}
	total, err := strconv.Atoi(m[1])
	if err != nil || total <= 0 {
		return 1, nil
	}
	pages := (total + sectionPageSize - 1) / sectionPageSize
	return pages, nil
}

// CurrentRows re-fetches the table rows on the visible page. Handles from
// earlier fetches go stale whenever the table redraws, so callers fetch
// fresh before every row operation.
func (a *Adapter) CurrentRows(ctx context.Context) ([]registry.Row, error) {
	elements, err := a.session.Elements(ctx, selSectionTableRow)
	if err != nil {
		return nil, a.guard(err)
	}
	rows := make([]registry.Row, 0, len(elements))
	for _, el := range elements {
		rows = append(rows, el)
	}
	return rows, nil
}

// ReadRow extracts the PEN and current section from one table row.
func (a *Adapter) ReadRow(ctx context.Context, row registry.Row) (string, string, error) {
	el, ok := row.(*rod.Element)
	if !ok {
		return "", "", fmt.Errorf("unexpected row handle %T", row)
	}
	penCell, err := el.Context(ctx).ElementX(rowPENXPath)
	if err != nil {
		return "", "", a.guard(fmt.Errorf("row pen cell: %w", err))
	}
	pen, err := penCell.Text()
	if err != nil {
		return "", "", a.guard(err)
	}
	sectionCell, err := el.Context(ctx).ElementX(rowSectionXPath)
	if err != nil {
		return "", "", a.guard(fmt.Errorf("row section cell: %w", err))
	}
	section, err := sectionCell.Text()
	if err != nil {
		return "", "", a.guard(err)
	}
	return strings.TrimSpace(pen), strings.TrimSpace(section), nil
}

// ShiftRowSection selects the target section in the row's dropdown, clicks
// the shift button and returns the confirmation dialog message.
func (a *Adapter) ShiftRowSection(ctx context.Context, row registry.Row, section string) (string, error) {
	el, ok := row.(*rod.Element)
	if !ok {
		return "", fmt.Errorf("unexpected row handle %T", row)
	}
	sel, err := el.Context(ctx).ElementX(rowSectionSelect)
	if err != nil {
		return "", a.guard(fmt.Errorf("row section select: %w", err))
	}
	if err := sel.Select([]string{fmt.Sprintf(`[value=%q]`, a.sectionValue(section))}, true, rod.SelectorTypeCSSSector); err != nil {
		return "", a.guard(fmt.Errorf("select section %s: %w", section, err))
	}
	button, err := el.Context(ctx).ElementX(rowShiftButton)
	if err != nil {
		return "", a.guard(fmt.Errorf("row shift button: %w", err))
	}
	if err := a.session.ClickElement(button); err != nil {
		return "", a.guard(err)
	}

	msg, err := a.session.InnerHTML(ctx, selShiftMessage)
	if err != nil {
		return "", a.guard(err)
	}
	if err := a.session.Click(ctx, selShiftOK); err != nil {
		return "", a.guard(err)
	}
	a.session.Sleep(ctx, a.stepDelay)
	return msg, nil
}

// NextPage advances the table one page.
func (a *Adapter) NextPage(ctx context.Context) error {
	if err := a.session.Click(ctx, selSectionNextPage); err != nil {
		return a.guard(err)
	}
	a.session.Sleep(ctx, a.pageDelay)
	return nil
}
