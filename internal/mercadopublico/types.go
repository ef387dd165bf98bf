// =============================================================================
// OC Harvester - Mercado Público Wire Types
// =============================================================================
//
// These structs mirror the JSON returned by the "ordenesdecompra.json" and
// "OrdenCompra.json" endpoints. Only the fields the harvester reads are
// declared. Scalar fields use Scalar because the API sends the same field as
// a number on one order and as a string (or null) on another.
//
// =============================================================================

package mercadopublico

import (
	"bytes"
	"encoding/json"
)

// =============================================================================
// SCALAR
// =============================================================================

// Scalar holds a JSON scalar without committing to its type.
// The zero value is a JSON null.
type Scalar struct {
	v any // nil, string or json.Number
}

// UnmarshalJSON implements json.Unmarshaler. Objects and arrays are
// tolerated and read as null.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		s.v = nil
		return nil
	}

	switch data[0] {
	case 'n':
		s.v = nil
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s.v = str
	case 't', 'f':
		s.v = string(data)
	case '{', '[':
		s.v = nil
	default:
		s.v = json.Number(string(data))
	}
	return nil
}

// Value returns nil, a string or a json.Number.
func (s Scalar) Value() any { return s.v }

// String returns the textual form, or "" for null.
func (s Scalar) String() string {
	switch v := s.v.(type) {
	case nil:
		return ""
	case json.Number:
		return v.String()
	case string:
		return v
	default:
		return ""
	}
}

// =============================================================================
// LISTING
// =============================================================================

// ListingResponse is the body of the daily listing call.
type ListingResponse struct {
	Cantidad Scalar         `json:"Cantidad"`
	Listado  []OrderSummary `json:"Listado"`
}

// OrderSummary is one entry of the daily listing.
type OrderSummary struct {
	Codigo Scalar `json:"Codigo"`
}

// Code returns the order code.
func (o OrderSummary) Code() string { return o.Codigo.String() }

// =============================================================================
// DETAIL
// =============================================================================

// DetailResponse is the body of both detail endpoints.
type DetailResponse struct {
	Listado []OrderDetail `json:"Listado"`
}

// OrderDetail is the full payload of one purchase order.
type OrderDetail struct {
	Codigo           Scalar `json:"Codigo"`
	CodigoLicitacion Scalar `json:"CodigoLicitacion"`
	Tipo             Scalar `json:"Tipo"`
	CodigoEstado     Scalar `json:"CodigoEstado"`

	// Header totals.
	Total     Scalar `json:"Total"`
	TotalNeto Scalar `json:"TotalNeto"`
	Impuestos Scalar `json:"Impuestos"`

	// Top-level dates, used when the Fechas block lacks them.
	FechaCreacion       Scalar `json:"FechaCreacion"`
	FechaEnvio          Scalar `json:"FechaEnvio"`
	FechaEnvioProveedor Scalar `json:"FechaEnvioProveedor"`
	FechaAceptacion     Scalar `json:"FechaAceptacion"`

	Fechas    Dates      `json:"Fechas"`
	Comprador Buyer      `json:"Comprador"`
	Proveedor Supplier   `json:"Proveedor"`
	Items     ItemsBlock `json:"Items"`
}

// Dates is the nested "Fechas" block.
type Dates struct {
	FechaCreacion         Scalar `json:"FechaCreacion"`
	FechaEnvio            Scalar `json:"FechaEnvio"`
	FechaEnvioOC          Scalar `json:"FechaEnvioOC"`
	FechaEnvioProveedor   Scalar `json:"FechaEnvioProveedor"`
	FechaEnvioProveedorOC Scalar `json:"FechaEnvioProveedorOC"`
	FechaAceptacion       Scalar `json:"FechaAceptacion"`
}

// Buyer is the nested "Comprador" block.
type Buyer struct {
	NombreContacto  Scalar `json:"NombreContacto"`
	NombreUnidad    Scalar `json:"NombreUnidad"`
	NombreOrganismo Scalar `json:"NombreOrganismo"`
}

// Supplier is the nested "Proveedor" block.
type Supplier struct {
	RutSucursal Scalar `json:"RutSucursal"`
	Nombre      Scalar `json:"Nombre"`
}

// ItemsBlock is the nested "Items" block. A non-object value is read as an
// empty block.
type ItemsBlock struct {
	Listado []LineItem `json:"Listado"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *ItemsBlock) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		b.Listado = nil
		return nil
	}
	type plain ItemsBlock
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = ItemsBlock(p)
	return nil
}

// LineItem is one entry of Items.Listado.
type LineItem struct {
	EspecificacionComprador Scalar `json:"EspecificacionComprador"`
	Cantidad                Scalar `json:"Cantidad"`
	PrecioNeto              Scalar `json:"PrecioNeto"`
	TotalImpuestos          Scalar `json:"TotalImpuestos"`
	Total                   Scalar `json:"Total"`
}
