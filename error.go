package auction

import "errors"

var (
	ErrNameInUse          = errors.New("participant name is already in use")
	ErrServerFull         = errors.New("participant capacity reached")
	ErrNotFound           = errors.New("no participant matches that name and role")
	ErrUserNotFound       = errors.New("owner is not an active participant")
	ErrNotSeller          = errors.New("owner is not a seller")
	ErrInvalidName        = errors.New("item name is empty or all digits")
	ErrInvalidPrice       = errors.New("start price is not a non-negative number")
	ErrInvalidDuration    = errors.New("duration is not an integer")
	ErrSellerAtCapacity   = errors.New("seller listing capacity reached")
	ErrNotBuyerOrNotFound = errors.New("subscriber is not an active buyer")
	ErrAlreadySubscribed  = errors.New("already subscribed to that item name")
	ErrNoSubscription     = errors.New("no such subscription")
	ErrTimeout            = errors.New("timeout")
	ErrShutdown           = errors.New("server is shutting down")
)
