package quotation

import (
	"fmt"
	"html"
	"strings"
)

const rowTemplate = `
      <tr>
        <td class="center">%d</td>
        <td>%s</td>
        <td>%s</td>
        <td>%s</td>
        <td>%s</td>
        <td class="center">%s</td>
        <td class="center">%s</td>
        <td class="right">%s</td>
        <td class="right">%s</td>
      </tr>
    `

// BuildRows renders one table row per item, numbered from 1. Free text is
// HTML-escaped. An empty list yields an empty string.
func BuildRows(items []Item, symbol string, f MoneyFormat) string {
	rows := make([]string, 0, len(items))
	for i, it := range items {
		rows = append(rows, fmt.Sprintf(rowTemplate,
			i+1,
			html.EscapeString(it.Technology),
			html.EscapeString(it.EssayCode),
			html.EscapeString(it.EssayName),
			html.EscapeString(it.Method),
			it.ACR(),
			it.Quantity.String(),
			html.EscapeString(f.Money(symbol, it.UnitPrice)),
			html.EscapeString(f.Money(symbol, it.LineTotal())),
		))
	}
	return strings.Join(rows, "\n")
}
