// Package rotation picks the sender account for the next message.
//
// The rotor is keyed off cumulative successful sends, not recipient
// position: a failed send does not advance it, and on restart the count is
// recomputed from the persisted sent set, so rotation resumes where it
// left off.
package rotation

import (
	"errors"

	"github.com/ignite/campaign-runner/internal/domain"
)

// ErrNoSenders reports a campaign whose effective sender list is empty.
var ErrNoSenders = errors.New("rotation: no senders available")

// Pick returns the sender for the next message:
// senders[(sentSoFarGlobal + sentThisBatch) mod len(senders)].
func Pick(senders []*domain.Sender, sentSoFarGlobal, sentThisBatch int) (*domain.Sender, error) {
	if len(senders) == 0 {
		return nil, ErrNoSenders
	}
	idx := (sentSoFarGlobal + sentThisBatch) % len(senders)
	return senders[idx], nil
}
