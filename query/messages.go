package query

import (
	"fmt"
	"strings"

	"github.com/vanchelo/restmod/core"
)

const (
	TypeResourceStatus    = "restmod.query.resource.status"
	TypeListLedgerEntries = "restmod.query.ledger.list"
	TypeListTypes         = "restmod.query.type.list"
)

type ResourceStatusMessage struct {
	Resource string
}

func (ResourceStatusMessage) Type() string { return TypeResourceStatus }

func (m ResourceStatusMessage) Validate() error {
	if strings.TrimSpace(m.Resource) == "" {
		return fmt.Errorf("query: resource name is required")
	}
	return nil
}

type ListLedgerEntriesMessage struct {
	Filter core.LedgerFilter
}

func (ListLedgerEntriesMessage) Type() string { return TypeListLedgerEntries }

func (m ListLedgerEntriesMessage) Validate() error {
	if m.Filter.Limit < 0 {
		return fmt.Errorf("query: limit must be >= 0")
	}
	return nil
}

type ListTypesMessage struct{}

func (ListTypesMessage) Type() string { return TypeListTypes }

func (ListTypesMessage) Validate() error { return nil }
