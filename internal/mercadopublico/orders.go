package mercadopublico

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/hbsjo/oc-harvester/internal/logging"
	"github.com/hbsjo/oc-harvester/internal/retry"
)

// ErrListingExhausted means the daily listing could not be retrieved after
// every attempt. It is not the same as an empty listing.
var ErrListingExhausted = errors.New("order listing unavailable after retries")

// listingDateLayout is the "fecha" query format (ddmmyyyy).
const listingDateLayout = "02012006"

// ServiceConfig holds the API identity and endpoints.
type ServiceConfig struct {
	OrganizationCode string
	Ticket           string
	ListingURL       string
	DetailURL        string
	LegacyDetailURL  string

	// ListingRetry is applied by ListOrders.
	ListingRetry retry.Policy
}

// Service implements the order lister and the order detail fetcher.
type Service struct {
	client *Client
	cfg    ServiceConfig
	logger logging.Logger
}

// NewService creates a Service on top of client.
func NewService(client *Client, cfg ServiceConfig, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{client: client, cfg: cfg, logger: logger}
}

// ListOrders returns the orders issued to the configured organization on
// date. A nil slice with a nil error is a legitimately empty day;
// ErrListingExhausted means the API never answered.
func (s *Service) ListOrders(ctx context.Context, date time.Time) ([]OrderSummary, error) {
	params := url.Values{}
	params.Set("fecha", date.Format(listingDateLayout))
	params.Set("CodigoOrganismo", s.cfg.OrganizationCode)
	params.Set("ticket", s.cfg.Ticket)

	attempts := s.cfg.ListingRetry.Attempts
	res := retry.Do(ctx, s.cfg.ListingRetry, func(ctx context.Context, attempt int) ([]OrderSummary, bool) {
		s.logger.Info("    [listing] attempt %d of %d...", attempt, attempts)
		var body ListingResponse
		if err := s.client.GetJSON(ctx, "listing", s.cfg.ListingURL, params, &body); err != nil {
			return nil, false
		}
		return body.Listado, true
	})

	if res.Err != nil {
		return nil, res.Err
	}
	if !res.OK {
		s.logger.Warn("    could not retrieve the order listing (attempts exhausted)")
		return nil, ErrListingExhausted
	}
	return res.Value, nil
}

// FetchDetail retrieves one order, trying the primary endpoint first and the
// legacy endpoint second. It returns false when neither produced a
// non-empty listing. It makes a single pass; callers add retries.
func (s *Service) FetchDetail(ctx context.Context, code string) (*OrderDetail, bool) {
	params := url.Values{}
	params.Set("codigo", code)
	params.Set("ticket", s.cfg.Ticket)

	endpoints := []struct {
		label string
		url   string
	}{
		{"detail", s.cfg.DetailURL},
		{"detail_legacy", s.cfg.LegacyDetailURL},
	}

	for _, ep := range endpoints {
		if ep.url == "" {
			continue
		}
		var body DetailResponse
		if err := s.client.GetJSON(ctx, ep.label, ep.url, params, &body); err != nil {
			continue
		}
		if len(body.Listado) > 0 {
			detail := body.Listado[0]
			return &detail, true
		}
	}
	return nil, false
}
