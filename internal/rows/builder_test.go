package rows

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbsjo/oc-harvester/internal/config"
	"github.com/hbsjo/oc-harvester/internal/mercadopublico"
)

func decodeDetail(t *testing.T, body string) *mercadopublico.OrderDetail {
	t.Helper()
	var d mercadopublico.OrderDetail
	require.NoError(t, json.Unmarshal([]byte(body), &d))
	return &d
}

func defaultOptions() Options {
	return Options{StatusLabels: config.DefaultStatusLabels(), SupplierDispatchFallback: true}
}

func netRow(net *int64, tax *int64) OutputRow {
	return OutputRow{NetTotal: net, Tax: tax}
}

func sumTax(rows []OutputRow) int64 {
	var s int64
	for _, r := range rows {
		s += value(r.Tax)
	}
	return s
}

func TestBuild_HeaderFieldsAndDates(t *testing.T) {
	d := decodeDetail(t, `{
		"Codigo": "1057-10-SE25",
		"CodigoLicitacion": "1057-5-LE25",
		"Tipo": "SE",
		"CodigoEstado": 6,
		"Total": "1.190", "TotalNeto": 1000, "Impuestos": 190,
		"FechaAceptacion": "2025-12-16T09:00:00",
		"Fechas": {"FechaCreacion": "2025-12-15T10:23:00.047", "FechaEnvioOC": "2025-12-15"},
		"Comprador": {"NombreContacto": "Ana", "NombreUnidad": "Farmacia", "NombreOrganismo": "Hospital Base"},
		"Proveedor": {"RutSucursal": "76.123.456-7", "Nombre": "Proveedor SpA"},
		"Items": {"Listado": [
			{"EspecificacionComprador": "Guantes", "Cantidad": 10, "PrecioNeto": "100"}
		]}
	}`)

	rows := Build(d, "15/12/2025", false, defaultOptions())
	require.Len(t, rows, 1)
	r := rows[0]

	assert.Equal(t, "15/12/2025", r.QueryDate)
	assert.Equal(t, "15/12/2025", *r.CreatedDate)
	assert.Equal(t, "15/12/2025", *r.SentDate)
	assert.Equal(t, "15/12/2025", *r.SupplierSentDate, "falls back to dispatch date")
	assert.Equal(t, "16/12/2025", *r.AcceptedDate)
	assert.Equal(t, "1057-10-SE25", r.OrderCode)
	assert.Equal(t, "1057-5-LE25", r.TenderCode)
	assert.Equal(t, "SE", r.OrderType)
	assert.Equal(t, "Aceptada", r.Status)
	assert.Equal(t, "Ana", r.BuyerName)
	assert.Equal(t, "76.123.456-7", r.SupplierRUT)
	assert.Equal(t, int64(1000), *r.NetTotal)
	assert.Equal(t, int64(190), *r.Tax)
	assert.Equal(t, int64(1190), *r.GrossTotal)
	assert.Equal(t, int64(1190), *r.OrderGross)
	assert.Equal(t, "NO", r.Record()[8])
	assert.Len(t, r.Record(), len(Columns))
}

func TestBuild_NoSupplierDispatchFallback(t *testing.T) {
	d := decodeDetail(t, `{"Fechas": {"FechaEnvio": "2025-12-15"}, "Items": {"Listado": [{}]}}`)

	opts := defaultOptions()
	opts.SupplierDispatchFallback = false
	rows := Build(d, "15/12/2025", true, opts)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].SupplierSentDate)
	assert.Nil(t, rows[0].CreatedDate)
	assert.Equal(t, "SI", rows[0].Record()[8])
}

func TestBuild_UnknownStatusPassesThrough(t *testing.T) {
	d := decodeDetail(t, `{"CodigoEstado": "77", "Items": {"Listado": [{}]}}`)
	rows := Build(d, "x", false, defaultOptions())
	require.Len(t, rows, 1)
	assert.Equal(t, "77", rows[0].Status)
}

func TestBuild_NoItems(t *testing.T) {
	assert.Empty(t, Build(decodeDetail(t, `{"Codigo": "A"}`), "x", false, defaultOptions()))
	assert.Empty(t, Build(decodeDetail(t, `{"Codigo": "A", "Items": {"Listado": []}}`), "x", false, defaultOptions()))
	assert.Empty(t, Build(nil, "x", false, defaultOptions()))
}

func TestBuild_DistributesHeaderTax(t *testing.T) {
	d := decodeDetail(t, `{
		"Codigo": "B", "Impuestos": 100,
		"Items": {"Listado": [
			{"EspecificacionComprador": "z", "Cantidad": 1, "PrecioNeto": 1},
			{"EspecificacionComprador": "y", "Cantidad": 1, "PrecioNeto": 1},
			{"EspecificacionComprador": "x", "Cantidad": 1, "PrecioNeto": 1}
		]}
	}`)

	rows := Build(d, "x", false, defaultOptions())
	require.Len(t, rows, 3)
	assert.Equal(t, int64(33), *rows[0].Tax)
	assert.Equal(t, int64(33), *rows[1].Tax)
	assert.Equal(t, int64(34), *rows[2].Tax, "last row in API order absorbs the remainder")
	assert.Equal(t, int64(35), *rows[2].GrossTotal)
	assert.Equal(t, int64(100), sumTax(rows))
}

func TestReconcile_ExactTotalsForManyShapes(t *testing.T) {
	shapes := [][]int64{
		{1, 1, 1},
		{100, 250, 333, 17},
		{7},
		{999999, 1, 1, 1, 1},
		{5, 0, 5},
	}
	for _, tax := range []int64{1, 19, 190, 1001, 123457} {
		for _, nets := range shapes {
			rows := make([]OutputRow, len(nets))
			for i, n := range nets {
				rows[i] = netRow(ptr(n), nil)
			}
			Reconcile(rows, ptr(tax))

			assert.Equal(t, tax, sumTax(rows), "tax %d nets %v", tax, nets)
			for _, r := range rows {
				require.NotNil(t, r.Tax)
				assert.Equal(t, value(r.NetTotal)+*r.Tax, *r.GrossTotal)
			}
		}
	}
}

func TestReconcile_RemainderFlooredAtZero(t *testing.T) {
	// round(10 * 1 / 4) = round(2.5) = 2 for each of the first three rows leaves 4.
	rows := []OutputRow{netRow(ptr(1), nil), netRow(ptr(1), nil), netRow(ptr(1), nil), netRow(ptr(1), nil)}
	Reconcile(rows, ptr(10))
	assert.Equal(t, int64(4), *rows[3].Tax)
	assert.Equal(t, int64(10), sumTax(rows))

	rows = []OutputRow{netRow(ptr(1), nil), netRow(ptr(1), nil), netRow(ptr(0), nil)}
	Reconcile(rows, ptr(3))
	// round(1.5) twice = 4, which already exceeds 3.
	assert.Equal(t, int64(0), *rows[2].Tax)
}

func TestReconcile_TiesRoundHalfToEven(t *testing.T) {
	rows := []OutputRow{netRow(ptr(50), nil), netRow(ptr(50), nil)}
	Reconcile(rows, ptr(1))
	assert.Equal(t, int64(0), *rows[0].Tax, "round(0.5) = 0")
	assert.Equal(t, int64(1), *rows[1].Tax)

	rows = []OutputRow{netRow(ptr(50), nil), netRow(ptr(50), nil)}
	Reconcile(rows, ptr(3))
	assert.Equal(t, int64(2), *rows[0].Tax, "round(1.5) = 2")
	assert.Equal(t, int64(1), *rows[1].Tax)
}

func TestReconcile_ZeroNetSumSkips(t *testing.T) {
	rows := []OutputRow{netRow(nil, nil), netRow(nil, nil)}
	Reconcile(rows, ptr(190))
	for _, r := range rows {
		assert.Nil(t, r.Tax)
		assert.Nil(t, r.GrossTotal)
	}

	rows = []OutputRow{netRow(ptr(0), nil)}
	Reconcile(rows, ptr(190))
	assert.Nil(t, rows[0].Tax)
}

func TestReconcile_ExistingLineTaxIsKept(t *testing.T) {
	rows := []OutputRow{
		{NetTotal: ptr(1000), Tax: ptr(190), GrossTotal: ptr(1)},
		{NetTotal: ptr(500), Tax: nil, GrossTotal: ptr(600)},
		{NetTotal: nil, Tax: ptr(10), GrossTotal: nil},
	}
	Reconcile(rows, ptr(500))

	assert.Equal(t, int64(190), *rows[0].Tax)
	assert.Equal(t, int64(1190), *rows[0].GrossTotal, "gross recomputed")
	assert.Nil(t, rows[1].Tax)
	assert.Equal(t, int64(600), *rows[1].GrossTotal, "left alone without tax")
	assert.Nil(t, rows[2].GrossTotal, "left alone without net")
}

func TestReconcile_NoHeaderTax(t *testing.T) {
	rows := []OutputRow{{NetTotal: ptr(10), Tax: ptr(1), GrossTotal: ptr(99)}}
	Reconcile(rows, nil)
	assert.Equal(t, int64(99), *rows[0].GrossTotal)

	Reconcile(rows, ptr(0))
	assert.Equal(t, int64(99), *rows[0].GrossTotal)
}

func TestSort_ByOrderThenSpecification(t *testing.T) {
	rows := []OutputRow{
		{OrderCode: "B", Specification: "a"},
		{OrderCode: "A", Specification: "z"},
		{OrderCode: "A", Specification: "b", QueryDate: "first"},
		{OrderCode: "A", Specification: "b", QueryDate: "second"},
	}
	Sort(rows)

	var got []string
	for _, r := range rows {
		got = append(got, r.OrderCode+"/"+r.Specification+"/"+r.QueryDate)
	}
	assert.Equal(t, []string{"A/b/first", "A/b/second", "A/z/", "B/a/"}, got)
}
