package protocol

import (
	"errors"
	"strings"
)

// CommandType identifies the payload type of an inbound request.
type CommandType uint8

const (
	CmdUnknown CommandType = iota
	CmdRegister
	CmdLogin
	CmdDeregister
	CmdListItem
	CmdSubscribe
	CmdDesubscribe
)

// ErrMalformed marks a datagram that cannot be answered: an unknown
// command keyword, too few fields, or a field that cannot be typed.
// The server drops these without a response because the request
// identifier cannot be trusted.
var ErrMalformed = errors.New("malformed datagram")

// Request is the carrier for a parsed inbound datagram.
// Payload holds the typed per-command fields (e.g. *RegisterRequest).
type Request struct {
	Type      CommandType
	RequestID string
	Payload   any
}

// RegisterRequest is the payload for REGISTER.
// Ports travel as opaque text; the reserved port is passed through
// unused by this core.
type RegisterRequest struct {
	Name         string
	Role         Role
	Host         string
	AnnouncePort string
	ReservedPort string
}

// LoginRequest is the payload for LOGIN.
type LoginRequest struct {
	Name string
	Role Role
}

// DeregisterRequest is the payload for DE-REGISTER.
type DeregisterRequest struct {
	Name string
}

// ListItemRequest is the payload for LIST_ITEM. Price and duration
// stay textual here; the listing store owns their validation.
type ListItemRequest struct {
	Seller       string
	ItemName     string
	Description  string
	PriceText    string
	DurationText string
}

// SubscribeRequest is the payload for SUBSCRIBE and DE-SUBSCRIBE.
type SubscribeRequest struct {
	Buyer    string
	ItemName string
}

// ParseRequest parses a whitespace-delimited request datagram.
// The first token is the command keyword (case-insensitive), the
// second the opaque request identifier. Extra trailing tokens on
// fixed-arity commands are ignored; LIST_ITEM folds interior tokens
// into the description so multi-word descriptions survive the wire
// format.
func ParseRequest(payload []byte) (*Request, error) {
	fields := strings.Fields(string(payload))
	if len(fields) < 2 {
		return nil, ErrMalformed
	}

	keyword := strings.ToUpper(fields[0])
	req := &Request{RequestID: fields[1]}
	args := fields[2:]

	switch keyword {
	case "REGISTER":
		if len(args) < 5 {
			return nil, ErrMalformed
		}
		role, err := parseRole(args[1])
		if err != nil {
			return nil, err
		}
		req.Type = CmdRegister
		req.Payload = &RegisterRequest{
			Name:         args[0],
			Role:         role,
			Host:         args[2],
			AnnouncePort: args[3],
			ReservedPort: args[4],
		}
	case "LOGIN":
		if len(args) < 2 {
			return nil, ErrMalformed
		}
		role, err := parseRole(args[1])
		if err != nil {
			return nil, err
		}
		req.Type = CmdLogin
		req.Payload = &LoginRequest{Name: args[0], Role: role}
	case "DE-REGISTER":
		if len(args) < 1 {
			return nil, ErrMalformed
		}
		req.Type = CmdDeregister
		req.Payload = &DeregisterRequest{Name: args[0]}
	case "LIST_ITEM":
		if len(args) < 5 {
			return nil, ErrMalformed
		}
		n := len(args)
		req.Type = CmdListItem
		req.Payload = &ListItemRequest{
			Seller:       args[0],
			ItemName:     args[1],
			Description:  strings.Join(args[2:n-2], " "),
			PriceText:    args[n-2],
			DurationText: args[n-1],
		}
	case "SUBSCRIBE", "DE-SUBSCRIBE":
		if len(args) < 2 {
			return nil, ErrMalformed
		}
		if keyword == "SUBSCRIBE" {
			req.Type = CmdSubscribe
		} else {
			req.Type = CmdDesubscribe
		}
		req.Payload = &SubscribeRequest{Buyer: args[0], ItemName: args[1]}
	default:
		return nil, ErrMalformed
	}

	return req, nil
}

func parseRole(token string) (Role, error) {
	switch strings.ToLower(token) {
	case "seller":
		return RoleSeller, nil
	case "buyer":
		return RoleBuyer, nil
	}
	return "", ErrMalformed
}
