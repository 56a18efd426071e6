package command

import (
	"fmt"
	"strings"

	"github.com/vanchelo/restmod/core"
)

const (
	TypeSubmitRequest  = "restmod.command.request.submit"
	TypeCancelRequests = "restmod.command.request.cancel"
	TypeRegisterType   = "restmod.command.type.register"
)

type SubmitRequestMessage struct {
	Resource string
	Request  core.TransportRequest
}

func (SubmitRequestMessage) Type() string { return TypeSubmitRequest }

func (m SubmitRequestMessage) Validate() error {
	if strings.TrimSpace(m.Resource) == "" {
		return fmt.Errorf("command: resource name is required")
	}
	if strings.TrimSpace(m.Request.URL) == "" {
		return fmt.Errorf("command: request url is required")
	}
	return nil
}

type CancelRequestsMessage struct {
	Resource string
}

func (CancelRequestsMessage) Type() string { return TypeCancelRequests }

func (m CancelRequestsMessage) Validate() error {
	if strings.TrimSpace(m.Resource) == "" {
		return fmt.Errorf("command: resource name is required")
	}
	return nil
}

type RegisterTypeMessage struct {
	Name string
}

func (RegisterTypeMessage) Type() string { return TypeRegisterType }

func (m RegisterTypeMessage) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("command: type name is required")
	}
	return nil
}
