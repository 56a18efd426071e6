package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[SubmitRequestMessage]  = (*SubmitRequestCommand)(nil)
	_ gocmd.Commander[CancelRequestsMessage] = (*CancelRequestsCommand)(nil)
	_ gocmd.Commander[RegisterTypeMessage]   = (*RegisterTypeCommand)(nil)
)
