package notify

import (
	"context"
	"fmt"

	"github.com/jetstreamair/jetshare/internal/kafka"
)

// Sender delivers participant notifications for offer lifecycle events.
// Delivery is stdout for now; the worker owns the transport choice.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.OfferEvent) error {
	switch event.Type {
	case "offer_accepted":
		fmt.Printf("notify %s: your offer %s was accepted by %s\n", event.CreatorID, event.OfferID, event.MatchedUserID)
	case "offer_completed":
		fmt.Printf("notify %s and %s: offer %s is paid, tickets issued\n", event.CreatorID, event.MatchedUserID, event.OfferID)
	case "offer_cancelled":
		fmt.Printf("notify followers of offer %s: the creator withdrew it\n", event.OfferID)
	case "payment_failed":
		fmt.Printf("notify %s: payment for offer %s failed, please retry\n", event.MatchedUserID, event.OfferID)
	default:
		fmt.Printf("notify participants of offer %s about %s\n", event.OfferID, event.Type)
	}
	return nil
}
