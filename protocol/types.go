package protocol

// Role identifies what a participant is allowed to do.
type Role string

const (
	RoleSeller Role = "Seller"
	RoleBuyer  Role = "Buyer"
)

// Reason is the machine-readable token carried by denial responses.
type Reason string

const (
	ReasonNameInUse          Reason = "NameInUse"
	ReasonServerFull         Reason = "ServerFull"
	ReasonNotFound           Reason = "NotFound"
	ReasonUserNotFound       Reason = "UserNotFound"
	ReasonNotSeller          Reason = "NotSeller"
	ReasonInvalidName        Reason = "InvalidName"
	ReasonInvalidPrice       Reason = "InvalidPrice"
	ReasonInvalidDuration    Reason = "InvalidDuration"
	ReasonSellerAtCapacity   Reason = "SellerAtCapacity"
	ReasonNotBuyerOrNotFound Reason = "NotBuyerOrNotFound"
	ReasonAlreadySubscribed  Reason = "AlreadySubscribed"
	ReasonNoSubscription     Reason = "NoSubscription"
)
