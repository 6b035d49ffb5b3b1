// Package receipt renders sale slips for 58mm thermal printers: plain
// text, 32 columns, no escape codes. Output is a pure function of the
// store profile and the committed sale, so a reprint is always
// identical to the original.
package receipt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/sale"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/store"
)

// Width is the printable column count of the target paper.
const Width = 32

// Render produces the receipt text for a sale. cashierName is printed
// when non-empty; the caller resolves it from the cashier's account.
func Render(st store.Store, s sale.Sale, cashierName string) string {
	var b strings.Builder

	writeCentered(&b, strings.ToUpper(strings.TrimSpace(st.Name)))
	if st.Address != "" {
		writeCentered(&b, st.Address)
	}
	if st.Phone != "" {
		writeCentered(&b, st.Phone)
	}
	writeDivider(&b)

	writeRow(&b, "Receipt", s.ID)
	writeRow(&b, s.CreatedAt.Format("02 Jan 2006"), s.CreatedAt.Format("15:04"))
	if cashierName != "" {
		writeRow(&b, "Cashier", cashierName)
	}
	writeDivider(&b)

	if s.Status == sale.StatusVoided {
		writeCentered(&b, "*** VOIDED ***")
		writeDivider(&b)
	}

	for _, line := range s.Lines {
		for _, part := range wrap(line.Name, Width) {
			b.WriteString(part)
			b.WriteByte('\n')
		}
		qty := fmt.Sprintf("  %d x %s", line.Quantity, money(line.UnitPriceCents))
		writeRow(&b, qty, money(line.LineTotalCents))
	}
	writeDivider(&b)

	writeRow(&b, "Subtotal", money(s.SubtotalCents))
	if s.DiscountCents > 0 {
		writeRow(&b, "Discount", "-"+money(s.DiscountCents))
	}
	writeRow(&b, "TOTAL", currency(st)+" "+money(s.TotalCents))

	switch s.PaymentMethod {
	case sale.PaymentCash:
		writeRow(&b, "Cash", money(s.TenderedCents))
		if s.ChangeCents > 0 {
			writeRow(&b, "Change", money(s.ChangeCents))
		}
	case sale.PaymentCard:
		writeRow(&b, "Card", money(s.TotalCents))
	case sale.PaymentMobile:
		writeRow(&b, "Mobile Money", money(s.TotalCents))
	}
	writeDivider(&b)

	footer := strings.TrimSpace(st.ReceiptFooter)
	if footer == "" {
		footer = "Thank you!"
	}
	writeCentered(&b, footer)

	return b.String()
}

func currency(st store.Store) string {
	if st.Currency == "" {
		return "GHS"
	}
	return st.Currency
}

func money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func writeDivider(b *strings.Builder) {
	b.WriteString(strings.Repeat("-", Width))
	b.WriteByte('\n')
}

// writeRow prints label left and value right on one 32-column line,
// truncating the label before ever pushing the value off the edge.
func writeRow(b *strings.Builder, label, value string) {
	if utf8.RuneCountInString(value) >= Width {
		b.WriteString(string([]rune(value)[:Width]))
		b.WriteByte('\n')
		return
	}
	space := Width - utf8.RuneCountInString(value)
	if utf8.RuneCountInString(label) >= space {
		label = string([]rune(label)[:space-1])
	}
	b.WriteString(label)
	b.WriteString(strings.Repeat(" ", space-utf8.RuneCountInString(label)))
	b.WriteString(value)
	b.WriteByte('\n')
}

func writeCentered(b *strings.Builder, text string) {
	for _, line := range wrap(text, Width) {
		if pad := (Width - utf8.RuneCountInString(line)) / 2; pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// wrap breaks text into lines no wider than width, splitting on
// spaces and hard-breaking words longer than a whole line.
func wrap(text string, width int) []string {
	var words []string
	for _, w := range strings.Fields(text) {
		for utf8.RuneCountInString(w) > width {
			r := []rune(w)
			words = append(words, string(r[:width]))
			w = string(r[width:])
		}
		words = append(words, w)
	}
	if len(words) == 0 {
		return nil
	}

	lines := []string{words[0]}
	for _, w := range words[1:] {
		last := lines[len(lines)-1]
		if utf8.RuneCountInString(last)+1+utf8.RuneCountInString(w) <= width {
			lines[len(lines)-1] = last + " " + w
		} else {
			lines = append(lines, w)
		}
	}
	return lines
}
