package rows

import (
	"github.com/shopspring/decimal"

	"github.com/hbsjo/oc-harvester/internal/mercadopublico"
	"github.com/hbsjo/oc-harvester/internal/normalize"
)

// Options tunes how rows are built.
type Options struct {
	// StatusLabels maps CodigoEstado to a label. Unknown codes pass through.
	StatusLabels map[string]string

	// SupplierDispatchFallback uses the dispatch date when the supplier
	// dispatch date is missing.
	SupplierDispatchFallback bool
}

// Build turns one order detail into one row per line item and reconciles the
// order-level tax across them. An order without items yields no rows.
func Build(detail *mercadopublico.OrderDetail, queryDate string, special bool, opts Options) []OutputRow {
	if detail == nil || len(detail.Items.Listado) == 0 {
		return nil
	}

	header := headerRow(detail, queryDate, special, opts)

	out := make([]OutputRow, 0, len(detail.Items.Listado))
	for _, item := range detail.Items.Listado {
		row := header
		row.Specification = item.EspecificacionComprador.String()
		row.Quantity = normalize.Amount(item.Cantidad.Value())
		row.UnitPrice = normalize.Amount(item.PrecioNeto.Value())
		row.Tax = normalize.Amount(item.TotalImpuestos.Value())
		row.GrossTotal = normalize.Amount(item.Total.Value())
		if row.Quantity != nil && row.UnitPrice != nil {
			row.NetTotal = ptr(*row.Quantity * *row.UnitPrice)
		}
		out = append(out, row)
	}

	Reconcile(out, header.OrderTax)
	return out
}

// headerRow fills every field shared by all rows of the order.
func headerRow(d *mercadopublico.OrderDetail, queryDate string, special bool, opts Options) OutputRow {
	f := d.Fechas

	created := firstNonEmpty(f.FechaCreacion, d.FechaCreacion)
	sent := firstNonEmpty(f.FechaEnvio, f.FechaEnvioOC, d.FechaEnvio)
	supplierSent := firstNonEmpty(f.FechaEnvioProveedor, f.FechaEnvioProveedorOC, d.FechaEnvioProveedor)
	if supplierSent == "" && opts.SupplierDispatchFallback {
		supplierSent = sent
	}
	accepted := firstNonEmpty(f.FechaAceptacion, d.FechaAceptacion)

	status := d.CodigoEstado.String()
	if label, ok := opts.StatusLabels[status]; ok {
		status = label
	}

	return OutputRow{
		QueryDate:        queryDate,
		CreatedDate:      normalize.Date(created),
		SentDate:         normalize.Date(sent),
		SupplierSentDate: normalize.Date(supplierSent),
		AcceptedDate:     normalize.Date(accepted),
		OrderCode:        d.Codigo.String(),
		TenderCode:       d.CodigoLicitacion.String(),
		OrderType:        d.Tipo.String(),
		Special:          special,
		Status:           status,
		BuyerName:        d.Comprador.NombreContacto.String(),
		UnitName:         d.Comprador.NombreUnidad.String(),
		OrganizationName: d.Comprador.NombreOrganismo.String(),
		SupplierRUT:      d.Proveedor.RutSucursal.String(),
		SupplierName:     d.Proveedor.Nombre.String(),
		OrderNet:         normalize.Amount(d.TotalNeto.Value()),
		OrderTax:         normalize.Amount(d.Impuestos.Value()),
		OrderGross:       normalize.Amount(d.Total.Value()),
	}
}

func firstNonEmpty(values ...mercadopublico.Scalar) string {
	for _, v := range values {
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}

// =============================================================================
// TAX RECONCILIATION
// =============================================================================

// Reconcile apportions the order-level tax over the rows of one order.
//
// When headerTax is positive and no row carries its own tax, every row but
// the last gets round(headerTax * net / sumNet) and the last row absorbs the
// remainder (never below zero), so the per-line taxes add up to headerTax.
// Gross is set to net + tax on every row touched. Nothing is distributed when
// the sum of net totals is not positive.
//
// When some row already carries tax, taxes are left alone and gross is
// recomputed as net + tax wherever both are known.
//
// rows must be in API item order. They are modified in place.
func Reconcile(rows []OutputRow, headerTax *int64) {
	if len(rows) == 0 || headerTax == nil || *headerTax <= 0 {
		return
	}

	var sumNet int64
	allUntaxed := true
	for _, r := range rows {
		if r.NetTotal != nil {
			sumNet += *r.NetTotal
		}
		if r.Tax != nil && *r.Tax != 0 {
			allUntaxed = false
		}
	}

	if allUntaxed && sumNet > 0 {
		total := *headerTax
		remaining := total
		last := len(rows) - 1
		for i := 0; i < last; i++ {
			net := value(rows[i].NetTotal)
			tax := decimal.NewFromInt(total).
				Mul(decimal.NewFromInt(net)).
				Div(decimal.NewFromInt(sumNet)).
				RoundBank(0).
				IntPart()
			rows[i].Tax = ptr(tax)
			rows[i].GrossTotal = ptr(net + tax)
			remaining -= tax
		}
		if remaining < 0 {
			remaining = 0
		}
		rows[last].Tax = ptr(remaining)
		rows[last].GrossTotal = ptr(value(rows[last].NetTotal) + remaining)
		return
	}

	for i := range rows {
		if rows[i].NetTotal != nil && rows[i].Tax != nil {
			rows[i].GrossTotal = ptr(*rows[i].NetTotal + *rows[i].Tax)
		}
	}
}

func value(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}
