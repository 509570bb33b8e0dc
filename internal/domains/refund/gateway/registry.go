package gateway

import (
	"refund-backend/internal/domains/refund/model"
)

// =====================================================
// ADAPTER REGISTRY
// =====================================================

// Registry maps refund methods and source gateways to adapters. It is built
// once at startup; an unmapped method at processing time is a configuration
// error, never a silent fallback.
type Registry struct {
	byMethod  map[string]Adapter
	byGateway map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{
		byMethod:  make(map[string]Adapter),
		byGateway: make(map[string]Adapter),
	}
}

// RegisterMethod binds a refund method to an adapter.
func (r *Registry) RegisterMethod(method string, adapter Adapter) {
	r.byMethod[method] = adapter
}

// RegisterGateway binds a source-gateway name to an adapter, used to route
// original-method refunds back through the gateway that took the payment.
func (r *Registry) RegisterGateway(gatewayName string, adapter Adapter) {
	r.byGateway[gatewayName] = adapter
}

// ForMethod resolves the adapter for a declared refund method.
func (r *Registry) ForMethod(method string) (Adapter, error) {
	adapter, ok := r.byMethod[method]
	if !ok {
		return nil, model.NewNoAdapterError(method)
	}
	return adapter, nil
}

// ForGateway resolves the adapter for a detected source gateway.
func (r *Registry) ForGateway(gatewayName string) (Adapter, error) {
	adapter, ok := r.byGateway[gatewayName]
	if !ok {
		return nil, model.NewNoAdapterError(gatewayName)
	}
	return adapter, nil
}
