package export

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hbsjo/oc-harvester/internal/csvparser"
	"github.com/hbsjo/oc-harvester/internal/rows"
	"github.com/hbsjo/oc-harvester/internal/types"
)

func i64(n int64) *int64 { return &n }
func s(v string) *string { return &v }

func sampleRows() []rows.OutputRow {
	return []rows.OutputRow{
		{
			QueryDate: "15/12/2025", CreatedDate: s("15/12/2025"),
			OrderCode: "1057-10-SE25", Status: "Aceptada", SupplierName: "Comercial; Ltda",
			Specification: "Guantes", Quantity: i64(10), UnitPrice: i64(100), NetTotal: i64(1000),
			Tax: i64(190), GrossTotal: i64(1190), OrderNet: i64(1000), OrderTax: i64(190), OrderGross: i64(1190),
		},
		{
			QueryDate: "15/12/2025", OrderCode: "1063535-4-CM25", Special: true,
			Specification: "Paracetamol",
		},
	}
}

func TestWriteDetailCSV_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "DIARIO", "OC_HBSJO_20251215_detalle.csv")
	require.NoError(t, WriteDetailCSV(path, sampleRows()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), BOM), "starts with BOM")
	assert.Contains(t, string(raw), "\r\n")
	assert.True(t, strings.HasPrefix(string(raw), BOM+"FechaConsulta;FechaCreacionOC;"))

	data, err := csvparser.ParseFile(path, csvparser.DefaultSettings())
	require.NoError(t, err)
	assert.True(t, data.HasBOM)
	assert.Equal(t, rows.Columns, data.Headers)
	require.Equal(t, 2, data.RowCount())

	first := data.Rows[0]
	assert.Equal(t, "1057-10-SE25", first["CodigoOC"])
	assert.Equal(t, "Comercial; Ltda", first["NombreProveedor"])
	assert.Equal(t, "190", first["ImpuestosItem"])
	assert.Equal(t, "NO", first["EsFarmacos"])

	second := data.Rows[1]
	assert.Equal(t, "SI", second["EsFarmacos"])
	assert.Equal(t, "", second["ImpuestosItem"])
	assert.Equal(t, "", second["FechaCreacionOC"])

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".*.tmp"))
	assert.Empty(t, leftovers)
}

func TestWriteErrorCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "OC_HBSJO_20251215_errores.csv")
	errs := []types.ErrorRecord{
		{Code: "LISTADO_20251215", Reason: "Error en listado diario"},
	}
	require.NoError(t, WriteErrorCSV(path, errs))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, BOM+"CodigoOC;Motivo\r\nLISTADO_20251215;Error en listado diario\r\n", string(raw))
}

func TestWriteCSV_WorldReadable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix file modes")
	}
	dir := t.TempDir()

	detail := filepath.Join(dir, "OC_HBSJO_20251215_detalle.csv")
	require.NoError(t, WriteDetailCSV(detail, sampleRows()))
	errorsPath := filepath.Join(dir, "OC_HBSJO_20251215_errores.csv")
	require.NoError(t, WriteErrorCSV(errorsPath, []types.ErrorRecord{{Code: "X", Reason: "y"}}))

	for _, path := range []string{detail, errorsPath} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm(), path)
	}
}

func TestWriteDetailXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "OC_HBSJO_20251215_detalle.xlsx")
	require.NoError(t, WriteDetailXLSX(path, sampleRows()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(DetailSheet)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "FechaConsulta", got[0][0])
	assert.Equal(t, "TotalBrutoOC", got[0][len(rows.Columns)-1])
	assert.Equal(t, "1057-10-SE25", got[1][5])
	assert.Equal(t, "1190", got[1][23])

	v, err := f.GetCellValue(DetailSheet, "T2")
	require.NoError(t, err)
	assert.Equal(t, "190", v)
}
