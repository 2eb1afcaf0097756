package model

// Action names a lifecycle operation on a Request.
type Action string

const (
	ActionCreate       Action = "create"
	ActionAssign       Action = "assign"
	ActionClaim        Action = "claim"
	ActionAccept       Action = "accept"
	ActionReject       Action = "reject"
	ActionRequestClose Action = "request_close"
	ActionConfirmClose Action = "confirm_close"
)
