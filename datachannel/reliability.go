// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datachannel

// negotiateReliability maps the channel's user-facing reliability
// configuration to a DCEP channel type and reliability parameter. At most
// one of maxPacketLifeTime and maxRetransmits may be nonzero; when both are
// set, the retransmit cap wins. Both zero means fully reliable.
func negotiateReliability(ordered bool, maxPacketLifeTime, maxRetransmits uint16) (ChannelType, uint32) {
	switch {
	case maxPacketLifeTime == 0 && maxRetransmits == 0:
		if ordered {
			return ChannelTypeReliable, 0
		}
		return ChannelTypeReliableUnordered, 0

	case maxRetransmits != 0:
		if ordered {
			return ChannelTypePartialReliableRexmit, uint32(maxRetransmits)
		}
		return ChannelTypePartialReliableRexmitUnordered, uint32(maxRetransmits)

	default:
		if ordered {
			return ChannelTypePartialReliableTimed, uint32(maxPacketLifeTime)
		}
		return ChannelTypePartialReliableTimedUnordered, uint32(maxPacketLifeTime)
	}
}
