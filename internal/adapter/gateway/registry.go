package gateway

import (
	"errors"
	"sort"
	"time"

	"payment-hub/config"
	"payment-hub/internal/core/ports"
	"payment-hub/pkg/apperror"

	"github.com/rs/zerolog"
)

// Registry holds the configured provider adapters keyed by name.
// It is built once at startup and read-only afterwards.
type Registry struct {
	gateways map[string]ports.PaymentGateway
}

// NewRegistry constructs every provider adapter from cfg. When
// cfg.TestMode is set each adapter is wrapped so no outbound vendor
// call is made.
func NewRegistry(cfg config.GatewayConfig, log zerolog.Logger) (*Registry, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	constructors := []func() (ports.PaymentGateway, error){
		func() (ports.PaymentGateway, error) { return NewSwychrGateway(cfg.Swychr, timeout, log) },
		func() (ports.PaymentGateway, error) { return NewFapshiGateway(cfg.Fapshi, timeout, log) },
		func() (ports.PaymentGateway, error) { return NewCampayGateway(cfg.Campay, timeout, log) },
		func() (ports.PaymentGateway, error) { return NewMoMoGateway(cfg.MTNMoMo, timeout, log) },
		func() (ports.PaymentGateway, error) { return NewStripeGateway(cfg.Stripe, log) },
	}

	r := &Registry{gateways: make(map[string]ports.PaymentGateway)}
	for _, construct := range constructors {
		gw, err := construct()
		if err != nil {
			// A provider without credentials is left out of this
			// deployment rather than blocking startup.
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Code == "CFG_001" {
				log.Warn().Err(err).Msg("payment provider not configured, skipping")
				continue
			}
			return nil, err
		}
		if cfg.TestMode {
			gw = NewTestModeGateway(gw, log)
		}
		r.gateways[string(gw.Name())] = gw
	}
	if len(r.gateways) == 0 {
		return nil, apperror.ErrConfiguration("gateway: no payment provider configured")
	}
	return r, nil
}

// NewRegistryFrom builds a registry from pre-constructed adapters.
// Used by tests and partial deployments.
func NewRegistryFrom(gateways ...ports.PaymentGateway) *Registry {
	r := &Registry{gateways: make(map[string]ports.PaymentGateway, len(gateways))}
	for _, gw := range gateways {
		r.gateways[string(gw.Name())] = gw
	}
	return r
}

// Get implements ports.GatewayRegistry.
func (r *Registry) Get(provider string) (ports.PaymentGateway, bool) {
	gw, ok := r.gateways[provider]
	return gw, ok
}

// Names implements ports.GatewayRegistry.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
