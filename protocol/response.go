package protocol

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Denial keywords per command. LIST-DENIED and REGISTER-DENIED are the
// historical spellings the client fleet already understands.
var denialKeywords = map[CommandType]string{
	CmdRegister:    "REGISTER-DENIED",
	CmdLogin:       "LOGIN-DENIED",
	CmdListItem:    "LIST-DENIED",
	CmdSubscribe:   "SUBSCRIBE-DENIED",
	CmdDesubscribe: "DE-SUBSCRIBE-DENIED",
}

// Registered renders the REGISTER success response.
func Registered(requestID string) []byte {
	return render("REGISTERED", requestID)
}

// LoginOK renders the LOGIN success response.
func LoginOK(requestID string) []byte {
	return render("LOGIN_OK", requestID)
}

// Deregistered renders the DE-REGISTER response; de-registration
// always reports success to the caller.
func Deregistered(requestID string) []byte {
	return render("DE-REGISTERED", requestID)
}

// ItemListed renders the LIST_ITEM success response carrying the
// generated item identifier.
func ItemListed(requestID, itemID string) []byte {
	return render("ITEM_LISTED", requestID, itemID)
}

// Subscribed renders the success response for both SUBSCRIBE and
// DE-SUBSCRIBE. The shared token is kept for wire compatibility with
// deployed participant agents.
func Subscribed(requestID string) []byte {
	return render("SUBSCRIBED", requestID)
}

// Denied renders a denial response for the given command type.
func Denied(cmd CommandType, requestID string, reason Reason) []byte {
	keyword, ok := denialKeywords[cmd]
	if !ok {
		keyword = "DENIED"
	}
	return render(keyword, requestID, string(reason))
}

// Announce renders an unsolicited AUCTION_ANNOUNCE push. It carries no
// request identifier since it is not a response to anything.
func Announce(itemID, itemName, description string, price decimal.Decimal, remaining int64) []byte {
	return render("AUCTION_ANNOUNCE", itemID, itemName, description,
		FormatPrice(price), strconv.FormatInt(remaining, 10))
}

// FormatPrice renders a price in the fixed, locale-independent wire
// format with two fraction digits.
func FormatPrice(price decimal.Decimal) string {
	return price.StringFixed(2)
}

func render(tokens ...string) []byte {
	return []byte(strings.Join(tokens, " "))
}
