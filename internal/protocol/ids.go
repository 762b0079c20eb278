package protocol

import (
	"github.com/google/uuid"
	"github.com/nats-io/nuid"
)

var (
	UUIDs SubscriptionIDs = &uuidGen{}
	NUIDs SubscriptionIDs = &nuidGen{}
)

// SubscriptionIDs generates unique subscription ids for REQ messages.
type SubscriptionIDs interface {
	New() string
}

type uuidGen struct{}

func (*uuidGen) New() string {
	return uuid.NewString()
}

type nuidGen struct{}

func (*nuidGen) New() string {
	return nuid.Next()
}
