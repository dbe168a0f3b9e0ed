package live

import "github.com/google/uuid"

// channelNamespace is the fixed UUIDv5 namespace for channel derivation.
// Changing it would re-key every user's channel.
var channelNamespace = uuid.MustParse("8f0cbfe2-3a1d-4c56-9f4a-52e1d1a6b7c3")

// DeriveChannelID maps a user ID to its realtime channel ID. Pure function:
// the same user always gets the same channel, distinct users never collide.
func DeriveChannelID(userID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(channelNamespace, []byte("live:"+userID.String()))
}
