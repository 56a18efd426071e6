package restmod

import (
	"github.com/vanchelo/restmod/core"
	"github.com/vanchelo/restmod/transport"
)

type Config = core.Config

type LedgerConfig = core.LedgerConfig

type TransportConfig = core.TransportConfig

type Option = core.Option

type Manager = core.Manager

type Resource = core.Resource

type ResourceOption = core.ResourceOption
type ModelType = core.ModelType
type TypeRegistry = core.TypeRegistry
type Promise = core.Promise
type Override = core.Override

type HookEvent = core.HookEvent
type HookFunc = core.HookFunc
type Status = core.Status

type TransportRequest = core.TransportRequest
type TransportResponse = core.TransportResponse
type TransportAdapter = core.TransportAdapter
type TransportResolver = core.TransportResolver

type RequestLedger = core.RequestLedger
type LedgerEntry = core.LedgerEntry
type LedgerFilter = core.LedgerFilter

type SubmitReceipt = core.SubmitReceipt
type ResourceStatus = core.ResourceStatus
type MetricsRecorder = core.MetricsRecorder

const (
	HookBeforeRequest     = core.HookBeforeRequest
	HookAfterRequest      = core.HookAfterRequest
	HookAfterRequestError = core.HookAfterRequestError

	StatusOK       = core.StatusOK
	StatusError    = core.StatusError
	StatusCanceled = core.StatusCanceled
)

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorMapper       = core.WithErrorMapper
	WithTransport         = core.WithTransport
	WithTransportResolver = core.WithTransportResolver
	WithRequestLedger     = core.WithRequestLedger
	WithTypeRegistry      = core.WithTypeRegistry
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithClock             = core.WithClock

	WithResourceScope     = core.WithResourceScope
	WithResourceType      = core.WithResourceType
	WithResourceTransport = core.WithResourceTransport

	NewOverride  = core.NewOverride
	OverrideFunc = core.OverrideFunc
	NewModelType = core.NewModelType
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	return core.NewManager(cfg, opts...)
}

// WithDefaultTransport wires the HTTP transport stack described by the
// config's transport section as the manager's resolver.
func WithDefaultTransport(cfg Config) Option {
	return core.WithTransportResolver(transport.NewResolverFromConfig(cfg.Transport))
}
