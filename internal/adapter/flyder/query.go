package flyder

import (
	"database/sql"
	"strings"

	"github.com/example/flyder-sync-service/internal/domain"
)

// Столбцы читаются без приведения типов: разбор в строгие типы делает parse,
// чтобы кривая строка стала ошибкой строки, а не всего запроса.
const selectWindow = `SELECT o.id,
       s.business_id,
       o.store_id,
       s.name,
       o.status,
       o.created_at,
       o.updated_at,
       o.amount,
       o.payment_method,
       o.distance,
       o.duration,
       o.customer_addr_street,
       o.customer_addr_city,
       o.customer_addr_postal_code,
       o.customer_latitude,
       o.customer_longitude
FROM orders o
JOIN stores s ON o.store_id = s.id
WHERE o.created_at >= ? AND o.created_at <= ?
ORDER BY o.created_at ASC, o.id ASC`

// noLimit — максимальный LIMIT MySQL; OFFSET без LIMIT не допускается.
const noLimit uint64 = 18446744073709551615

// windowQuery добавляет LIMIT/OFFSET только когда они заданы; Limit == 0 — всё окно.
func windowQuery(w domain.Window) (string, []any) {
	var b strings.Builder
	b.WriteString(selectWindow)
	args := []any{w.Start, w.End}
	switch {
	case w.Offset > 0 && w.Limit > 0:
		b.WriteString("\nLIMIT ? OFFSET ?")
		args = append(args, w.Limit, w.Offset)
	case w.Offset > 0:
		b.WriteString("\nLIMIT ? OFFSET ?")
		args = append(args, noLimit, w.Offset)
	case w.Limit > 0:
		b.WriteString("\nLIMIT ?")
		args = append(args, w.Limit)
	}
	return b.String(), args
}

// scanColumns — приёмники Scan в порядке selectWindow.
type scanColumns [16]sql.NullString

func (c *scanColumns) dest() []any {
	out := make([]any, len(c))
	for i := range c {
		out[i] = &c[i]
	}
	return out
}

func (c *scanColumns) raw() rawRow {
	v := func(i int) *string {
		if !c[i].Valid {
			return nil
		}
		s := c[i].String
		return &s
	}
	return rawRow{
		id: v(0), businessID: v(1), storeID: v(2), storeName: v(3), status: v(4),
		createdAt: v(5), updatedAt: v(6), amount: v(7), paymentMethod: v(8),
		distance: v(9), duration: v(10),
		street: v(11), city: v(12), postalCode: v(13), latitude: v(14), longitude: v(15),
	}
}
