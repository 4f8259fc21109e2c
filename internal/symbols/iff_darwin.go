//go:build darwin

package symbols

// InterfaceFlags names the BSD IFF_* bits reported in RTM_IFINFO messages.
var InterfaceFlags = NewTable(
	"IFF_UP",
	"IFF_BROADCAST",
	"IFF_DEBUG",
	"IFF_LOOPBACK",
	"IFF_POINTOPOINT",
	"IFF_NOTRAILERS",
	"IFF_RUNNING",
	"IFF_NOARP",
	"IFF_PROMISC",
	"IFF_ALLMULTI",
	"IFF_OACTIVE",
	"IFF_SIMPLEX",
	"IFF_LINK0",
	"IFF_LINK1",
	"IFF_LINK2",
	"IFF_MULTICAST",
)
