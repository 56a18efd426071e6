package restmod

import (
	"fmt"

	restmodcommand "github.com/vanchelo/restmod/command"
	restmodquery "github.com/vanchelo/restmod/query"
)

// CommandQueryService is the surface the facade wires handlers around. A
// *Manager satisfies it out of the box.
type CommandQueryService interface {
	restmodcommand.MutatingService
	restmodquery.ResourceStatusReader
	restmodquery.LedgerReader
	restmodquery.TypeReader
}

type Commands struct {
	SubmitRequest  *restmodcommand.SubmitRequestCommand
	CancelRequests *restmodcommand.CancelRequestsCommand
	RegisterType   *restmodcommand.RegisterTypeCommand
}

type Queries struct {
	ResourceStatus    *restmodquery.ResourceStatusQuery
	ListLedgerEntries *restmodquery.ListLedgerEntriesQuery
	ListTypes         *restmodquery.ListTypesQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	ledgerReader restmodquery.LedgerReader
}

// WithLedgerReader routes ledger list queries to a dedicated reader, for
// example a cached SQL store, instead of the service itself.
func WithLedgerReader(reader restmodquery.LedgerReader) FacadeOption {
	return func(options *facadeOptions) {
		options.ledgerReader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("restmod: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	ledgerReader := cfg.ledgerReader
	if ledgerReader == nil {
		ledgerReader = service
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		SubmitRequest:  restmodcommand.NewSubmitRequestCommand(service),
		CancelRequests: restmodcommand.NewCancelRequestsCommand(service),
		RegisterType:   restmodcommand.NewRegisterTypeCommand(service),
	}
	facade.queries = Queries{
		ResourceStatus:    restmodquery.NewResourceStatusQuery(service),
		ListLedgerEntries: restmodquery.NewListLedgerEntriesQuery(ledgerReader),
		ListTypes:         restmodquery.NewListTypesQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

var _ CommandQueryService = (*Manager)(nil)
