// =============================================================================
// OC Harvester - Output Rows
// =============================================================================
//
// One OutputRow is produced per (order, line item). Header-derived fields
// (dates, codes, names, order totals) are identical on every row of an order;
// only the item fields vary.
//
// =============================================================================

package rows

import (
	"strconv"
)

// OutputRow is one line of the daily detail file.
type OutputRow struct {
	QueryDate        string
	CreatedDate      *string
	SentDate         *string
	SupplierSentDate *string
	AcceptedDate     *string

	OrderCode  string
	TenderCode string
	OrderType  string
	Special    bool
	Status     string

	BuyerName        string
	UnitName         string
	OrganizationName string
	SupplierRUT      string
	SupplierName     string

	Specification string
	Quantity      *int64
	UnitPrice     *int64
	NetTotal      *int64
	Tax           *int64
	GrossTotal    *int64

	OrderNet   *int64
	OrderTax   *int64
	OrderGross *int64
}

// Columns is the header of the detail file, in output order.
var Columns = []string{
	"FechaConsulta",
	"FechaCreacionOC",
	"FechaEnvioOC",
	"FechaEnvioProveedorOC",
	"FechaAceptacionOC",
	"CodigoOC",
	"CodigoLicitacion",
	"TipoOrdenCompra",
	"EsFarmacos",
	"EstadoOC",
	"NombreComprador",
	"NombreUnidad",
	"NombreOrganizacion",
	"RutProveedor",
	"NombreProveedor",
	"EspecificacionComprador",
	"Cantidad",
	"ValorUnitario",
	"TotalNetoItem",
	"ImpuestosItem",
	"TotalBrutoItem",
	"TotalNetoOC",
	"ImpuestosOC",
	"TotalBrutoOC",
}

// Record renders the row in Columns order. Null values become empty cells.
func (r OutputRow) Record() []string {
	return []string{
		r.QueryDate,
		str(r.CreatedDate),
		str(r.SentDate),
		str(r.SupplierSentDate),
		str(r.AcceptedDate),
		r.OrderCode,
		r.TenderCode,
		r.OrderType,
		YesNo(r.Special),
		r.Status,
		r.BuyerName,
		r.UnitName,
		r.OrganizationName,
		r.SupplierRUT,
		r.SupplierName,
		r.Specification,
		num(r.Quantity),
		num(r.UnitPrice),
		num(r.NetTotal),
		num(r.Tax),
		num(r.GrossTotal),
		num(r.OrderNet),
		num(r.OrderTax),
		num(r.OrderGross),
	}
}

// YesNo renders the special-category flag.
func YesNo(b bool) string {
	if b {
		return "SI"
	}
	return "NO"
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func num(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

func ptr(n int64) *int64 { return &n }
