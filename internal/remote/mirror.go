// Package remote mirrors the catalog to an optional table endpoint. Every
// call is best effort: failures are logged at debug level and swallowed.
package remote

import (
	"context"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/domain"
)

const defaultTimeout = 3 * time.Second

type Mirror struct {
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// New returns a mirror for baseURL. An empty baseURL yields a disabled
// mirror whose calls do nothing.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Mirror{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("remote"),
	}
}

func (m *Mirror) Enabled() bool { return m != nil && m.baseURL != "" }

func (m *Mirror) productsURL() string { return m.baseURL + "/tables/products" }

// FetchProducts reads the remote catalog. ok is false when the mirror is
// disabled, unreachable, or returned no products.
func (m *Mirror) FetchProducts(ctx context.Context) ([]domain.Product, bool) {
	if !m.Enabled() {
		return nil, false
	}
	var body struct {
		Data []domain.Product `json:"data"`
	}
	code := 0
	err := gout.GET(m.productsURL()).
		WithContext(ctx).
		SetTimeout(m.timeout).
		BindJSON(&body).
		Code(&code).
		Do()
	if err != nil || code < 200 || code > 299 {
		m.logger.Debug("fetch products failed", zap.Int("status", code), zap.Error(err))
		return nil, false
	}
	if len(body.Data) == 0 {
		return nil, false
	}
	return body.Data, true
}

// PushProducts sends the whole catalog. Empty catalogs are not sent.
func (m *Mirror) PushProducts(ctx context.Context, products []domain.Product) bool {
	if !m.Enabled() || len(products) == 0 {
		return false
	}
	code := 0
	err := gout.POST(m.productsURL()).
		WithContext(ctx).
		SetTimeout(m.timeout).
		SetJSON(map[string]any{"rows": products}).
		Code(&code).
		Do()
	if err != nil || code < 200 || code > 299 {
		m.logger.Debug("push products failed", zap.Int("status", code), zap.Error(err))
		return false
	}
	return true
}
