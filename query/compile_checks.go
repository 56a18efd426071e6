package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/vanchelo/restmod/core"
)

var (
	_ gocmd.Querier[ResourceStatusMessage, core.ResourceStatus]   = (*ResourceStatusQuery)(nil)
	_ gocmd.Querier[ListLedgerEntriesMessage, []core.LedgerEntry] = (*ListLedgerEntriesQuery)(nil)
	_ gocmd.Querier[ListTypesMessage, []*core.ModelType]          = (*ListTypesQuery)(nil)
)
