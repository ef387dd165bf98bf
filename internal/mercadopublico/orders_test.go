package mercadopublico

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbsjo/oc-harvester/internal/metrics"
	"github.com/hbsjo/oc-harvester/internal/retry"
)

func newTestService(t *testing.T, handler http.Handler) (*Service, *metrics.Registry) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	reg := metrics.NewRegistry()
	client := NewClient(ClientOptions{HTTPClient: srv.Client()}, nil, reg)
	svc := NewService(client, ServiceConfig{
		OrganizationCode: "7393",
		Ticket:           "SECRET",
		ListingURL:       srv.URL + "/ordenesdecompra.json",
		DetailURL:        srv.URL + "/ordenesdecompra.json",
		LegacyDetailURL:  srv.URL + "/OrdenCompra.json",
		ListingRetry:     retry.Policy{Attempts: 3, Delay: 2 * time.Second, Sleep: retry.NoSleep},
	}, nil)
	return svc, reg
}

func TestListOrders_SendsQueryAndDecodes(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "15122025", q.Get("fecha"))
		assert.Equal(t, "7393", q.Get("CodigoOrganismo"))
		assert.Equal(t, "SECRET", q.Get("ticket"))
		w.Write([]byte(`{"Cantidad": 2, "Listado": [{"Codigo": "1057-10-SE25", "Nombre": "x"}, {"Codigo": "1063535-4-CM25"}]}`))
	}))

	orders, err := svc.ListOrders(context.Background(), time.Date(2025, 12, 15, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "1057-10-SE25", orders[0].Code())
	assert.Equal(t, "1063535-4-CM25", orders[1].Code())
}

func TestListOrders_EmptyIsNotAnError(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Cantidad": 0}`))
	}))

	orders, err := svc.ListOrders(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestListOrders_RetriesThenExhausts(t *testing.T) {
	var calls int32
	svc, reg := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))

	_, err := svc.ListOrders(context.Background(), time.Now())
	assert.True(t, errors.Is(err, ErrListingExhausted))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 3.0, testutil.ToFloat64(reg.APIRequests.WithLabelValues("listing", "error")))
}

func TestListOrders_RecoversOnSecondAttempt(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Write([]byte(`not json`))
			return
		}
		w.Write([]byte(`{"Listado": [{"Codigo": 123}]}`))
	}))

	orders, err := svc.ListOrders(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "123", orders[0].Code())
}

func TestFetchDetail_PrimaryEndpoint(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ordenesdecompra.json", r.URL.Path)
		assert.Equal(t, "1057-10-SE25", r.URL.Query().Get("codigo"))
		w.Write([]byte(`{"Listado": [{"Codigo": "1057-10-SE25", "Total": 1190, "Items": {"Listado": [{"EspecificacionComprador": "Guantes"}]}}]}`))
	}))

	detail, ok := svc.FetchDetail(context.Background(), "1057-10-SE25")
	require.True(t, ok)
	assert.Equal(t, "1057-10-SE25", detail.Codigo.String())
	assert.Equal(t, json.Number("1190"), detail.Total.Value())
	require.Len(t, detail.Items.Listado, 1)
}

func TestFetchDetail_FallsBackToLegacy(t *testing.T) {
	var legacyCalls int32
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ordenesdecompra.json":
			w.Write([]byte(`{"Listado": []}`))
		case "/OrdenCompra.json":
			atomic.AddInt32(&legacyCalls, 1)
			w.Write([]byte(`{"Listado": [{"Codigo": "A-1"}]}`))
		}
	}))

	detail, ok := svc.FetchDetail(context.Background(), "A-1")
	require.True(t, ok)
	assert.Equal(t, "A-1", detail.Codigo.String())
	assert.Equal(t, int32(1), legacyCalls)
}

func TestFetchDetail_BothEndpointsEmpty(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/OrdenCompra.json" {
			w.Write([]byte(`null`))
			return
		}
		http.Error(w, "nope", http.StatusInternalServerError)
	}))

	detail, ok := svc.FetchDetail(context.Background(), "A-1")
	assert.False(t, ok)
	assert.Nil(t, detail)
}

func TestScalar_Unmarshal(t *testing.T) {
	var v struct {
		A, B, C, D, E Scalar
	}
	require.NoError(t, json.Unmarshal([]byte(`{"A": "1.234,5", "B": 12.5, "C": null, "D": {"x": 1}}`), &v))
	assert.Equal(t, "1.234,5", v.A.Value())
	assert.Equal(t, json.Number("12.5"), v.B.Value())
	assert.Nil(t, v.C.Value())
	assert.Nil(t, v.D.Value(), "objects read as null")
	assert.Nil(t, v.E.Value(), "absent fields read as null")
	assert.Equal(t, "12.5", v.B.String())
}

func TestItemsBlock_ToleratesNonObject(t *testing.T) {
	var d OrderDetail
	require.NoError(t, json.Unmarshal([]byte(`{"Items": []}`), &d))
	assert.Empty(t, d.Items.Listado)
}

func TestRedactMasksTicket(t *testing.T) {
	svc, _ := newTestService(t, http.NotFoundHandler())
	got := redact(svc.cfg.ListingURL, map[string][]string{"ticket": {"SECRET"}, "fecha": {"01012025"}})
	assert.NotContains(t, got, "SECRET")
	assert.Contains(t, got, "fecha=01012025")
}
