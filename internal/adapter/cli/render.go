package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/niksmo/storefront/internal/core/discovery"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/shopspring/decimal"
)

var (
	accent  = lipgloss.Color("#8BC34A")
	muted   = lipgloss.Color("#8A8F98")
	danger  = lipgloss.Color("#E53935")
	warning = lipgloss.Color("#FFC107")
	info    = lipgloss.Color("#2196F3")
)

// view renders to one writer. Styles come from a renderer bound to that
// writer so colors are dropped when it is not a terminal.
type view struct {
	w io.Writer

	title  lipgloss.Style
	faint  lipgloss.Style
	price  lipgloss.Style
	strike lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	border lipgloss.Style
	notes  map[noticeKind]lipgloss.Style
}

func newView(w io.Writer) *view {
	r := lipgloss.NewRenderer(w)
	return &view{
		w:      w,
		title:  r.NewStyle().Bold(true).Foreground(accent),
		faint:  r.NewStyle().Foreground(muted),
		price:  r.NewStyle().Bold(true),
		strike: r.NewStyle().Strikethrough(true).Foreground(muted),
		header: r.NewStyle().Bold(true).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
		border: r.NewStyle().Foreground(muted),
		notes: map[noticeKind]lipgloss.Style{
			noticeInfo:    r.NewStyle().Foreground(info),
			noticeSuccess: r.NewStyle().Foreground(accent),
			noticeWarning: r.NewStyle().Foreground(warning),
			noticeError:   r.NewStyle().Foreground(danger).Bold(true),
		},
	}
}

func (v *view) println(s string) {
	fmt.Fprintln(v.w, s)
}

func (v *view) heading(s string) {
	v.println(v.title.Render(s))
}

func (v *view) table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(v.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return v.header
			}
			return v.cell
		})
	v.println(t.String())
}

// formatPrice writes a price the way the shop shows it: R$ 1299,90.
func formatPrice(d decimal.Decimal) string {
	return "R$ " + strings.Replace(d.StringFixed(2), ".", ",", 1)
}

func (v *view) products(ps []domain.Product) {
	if len(ps) == 0 {
		v.println(v.faint.Render("No products found"))
		return
	}
	rows := make([][]string, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			p.DisplayCategoryName(),
			v.priceTag(p),
			strconv.FormatFloat(p.DisplayRating(), 'f', 1, 64),
			p.Slug,
		})
	}
	v.table([]string{"ID", "Name", "Category", "Price", "Rating", "Slug"}, rows)
	v.println(v.faint.Render(fmt.Sprintf("%d products", len(ps))))
}

func (v *view) priceTag(p domain.Product) string {
	tag := formatPrice(p.Price)
	if p.Discounted() {
		tag = v.strike.Render(formatPrice(*p.OriginalPrice)) + " " + tag
	}
	return tag
}

func (v *view) facets(fs []discovery.Facet, state domain.FilterState) {
	if len(fs) == 0 {
		return
	}
	parts := make([]string, 0, len(fs))
	for _, f := range fs {
		mark := "[ ]"
		if state.HasCategory(f.ID) {
			mark = "[x]"
		}
		parts = append(parts, fmt.Sprintf("%s %s (%d) #%d", mark, f.Name, f.ProductCount, f.ID))
	}
	v.println(v.faint.Render("Categories: ") + strings.Join(parts, "  "))
}

func (v *view) priceRange(r domain.PriceRange) {
	v.println(v.faint.Render(fmt.Sprintf("Price: %s - %s", formatPrice(r.Min), formatPrice(r.Max))))
}

func (v *view) product(p domain.Product) {
	v.heading(p.Name)
	v.println(v.faint.Render(p.DisplayCategoryName()))
	v.println(v.price.Render(v.priceTag(p)))
	if p.InstallmentCount > 0 && p.InstallmentPrice != nil {
		v.println(fmt.Sprintf("or %dx of %s", p.InstallmentCount, formatPrice(*p.InstallmentPrice)))
	}
	v.println(fmt.Sprintf("Rating: %.1f", p.DisplayRating()))
	if p.InStock() {
		v.println(fmt.Sprintf("In stock: %d", p.Stock))
	} else {
		v.println(v.notes[noticeWarning].Render("Out of stock"))
	}
	if img, ok := p.MainImage(); ok {
		v.println(v.faint.Render(img.URL))
	}
	if p.Description != "" {
		v.println("")
		v.println(p.Description)
	}
}

func (v *view) cart(c domain.Cart) {
	if len(c.Items) == 0 {
		v.println(v.faint.Render("Your cart is empty"))
		return
	}
	rows := make([][]string, 0, len(c.Items))
	for _, it := range c.Items {
		rows = append(rows, []string{
			strconv.FormatInt(it.ID, 10),
			it.ProductName,
			formatPrice(it.ProductPrice),
			strconv.Itoa(it.Quantity),
			formatPrice(it.Subtotal),
		})
	}
	v.table([]string{"Item", "Product", "Price", "Qty", "Subtotal"}, rows)
	v.println(fmt.Sprintf("%d items, total %s", c.Count(), v.price.Render(formatPrice(c.Total()))))
}

func (v *view) profile(u domain.User) {
	v.heading(u.FullName())
	line := func(label, value string) {
		if value == "" {
			value = v.faint.Render("-")
		}
		v.println(v.faint.Render(label+": ") + value)
	}
	line("Username", u.Username)
	line("Email", u.Email)
	line("Phone", u.Profile.Phone)
	line("Birthdate", u.Profile.Birthdate)
	line("CEP", u.Profile.CEP)
	line("Address", strings.TrimSpace(strings.Join([]string{u.Profile.Street, u.Profile.Number}, " ")))
	line("City", strings.Trim(u.Profile.City+"/"+u.Profile.State, "/"))
}

func (v *view) badge(s service.BadgeState) {
	who := "guest"
	if s.LoggedIn {
		who = s.User.Username
	}
	v.println(fmt.Sprintf("cart: %d  user: %s", s.Count, who))
	if s.Err != nil {
		v.notice(noticeWarning, "Cart count may be out of date")
	}
}

func (v *view) presence(loggedIn bool) {
	if loggedIn {
		v.notice(noticeInfo, "Session found")
		return
	}
	v.notice(noticeInfo, "Logged out")
}

func (v *view) searchEvent(e domain.SearchEvent) {
	v.println(fmt.Sprintf("%s  %q #%d %s %s  %s",
		v.faint.Render(e.OccurredAt.Local().Format("2006-01-02 15:04:05")),
		e.Query, e.Rank, e.ProductName, formatPrice(e.Price),
		v.faint.Render(e.Username),
	))
}
