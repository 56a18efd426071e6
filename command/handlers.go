package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/vanchelo/restmod/core"
)

type MutatingService interface {
	SubmitRequest(ctx context.Context, resourceName string, config core.TransportRequest) (core.SubmitReceipt, error)
	CancelRequests(ctx context.Context, resourceName string) error
}

type TypeRegistryProvider interface {
	Types() *core.TypeRegistry
}

type SubmitRequestCommand struct {
	service MutatingService
}

func NewSubmitRequestCommand(service MutatingService) *SubmitRequestCommand {
	return &SubmitRequestCommand{service: service}
}

func (c *SubmitRequestCommand) Execute(ctx context.Context, msg SubmitRequestMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: submit service is required")
	}
	out, err := c.service.SubmitRequest(ctx, msg.Resource, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CancelRequestsCommand struct {
	service MutatingService
}

func NewCancelRequestsCommand(service MutatingService) *CancelRequestsCommand {
	return &CancelRequestsCommand{service: service}
}

func (c *CancelRequestsCommand) Execute(ctx context.Context, msg CancelRequestsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: cancel service is required")
	}
	return c.service.CancelRequests(ctx, msg.Resource)
}

type RegisterTypeCommand struct {
	provider TypeRegistryProvider
}

func NewRegisterTypeCommand(provider TypeRegistryProvider) *RegisterTypeCommand {
	return &RegisterTypeCommand{provider: provider}
}

func (c *RegisterTypeCommand) Execute(ctx context.Context, msg RegisterTypeMessage) error {
	if c == nil || c.provider == nil {
		return commandDependencyError("command: type registry provider is required")
	}
	registry := c.provider.Types()
	if registry == nil {
		return commandDependencyError("command: type registry is required")
	}
	modelType := registry.Define(msg.Name)
	storeResult(ctx, modelType)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
