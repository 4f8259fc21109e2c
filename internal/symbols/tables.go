package symbols

// EventKinds names netdevice notifier events by code. Code 0 is reserved.
var EventKinds = NewTable(
	"",
	"UP",
	"DOWN",
	"REBOOT",
	"CHANGE",
	"REGISTER",
	"UNREGISTER",
	"CHANGEMTU",
	"CHANGEADDR",
	"GOING_DOWN",
	"CHANGENAME",
	"FEAT_CHANGE",
	"BONDING_FAILOVER",
	"PRE_UP",
	"PRE_TYPE_CHANGE",
	"POST_TYPE_CHANGE",
	"POST_INIT",
	"UNREGISTER_FINAL",
	"RELEASE",
	"NOTIFY_PEERS",
	"JOIN",
	"CHANGEUPPER",
	"RESEND_IGMP",
	"PRECHANGEMTU",
	"CHANGEINFODATA",
)

// FeatureFlags names netdev feature bits in the 3.x kernel layout. Later
// kernels renumber the enum, so on them the names can be off while the hex
// word stays exact.
var FeatureFlags = NewTable(
	"tx-scatter-gather",
	"tx-checksum-ipv4",
	"UNUSED_NETIF_F_1",
	"tx-checksum-ip-generic",
	"tx-checksum-ipv6",
	"highdma",
	"tx-scatter-gather-fraglist",
	"tx-vlan-hw-insert",
	"rx-vlan-hw-parse",
	"rx-vlan-filter",
	"vlan-challenged",
	"tx-generic-segmentation",
	"tx-lockless",
	"netns-local",
	"rx-gro",
	"rx-lro",
	"tx-tcp-segmentation",
	"tx-udp-fragmentation",
	"tx-gso-robust",
	"tx-tcp-ecn-segmentation",
	"tx-tcp6-segmentation",
	"tx-fcoe-segmentation",
	"GSO_RESERVED1",
	"GSO_RESERVED2",
	"tx-checksum-fcoe-crc",
	"tx-checksum-sctp",
	"fcoe-mtu",
	"rx-ntuple-filter",
	"rx-hashing",
	"rx-checksum",
	"tx-nocache-copy",
	"loopback",
	"rx-fcs",
	"rx-all",
	"tx-vlan-stag-hw-insert",
	"rx-vlan-stag-hw-parse",
	"rx-vlan-stag-filter",
	"l2-fwd-offload",
	"busy-poll",
)
