package event

import "github.com/dmdmdm-nz/chaindbg/internal/symbols"

// Kind is a netdevice notifier event code.
type Kind uint32

const (
	Up Kind = iota + 1
	Down
	Reboot
	Change
	Register
	Unregister
	ChangeMTU
	ChangeAddr
	GoingDown
	ChangeName
	FeatChange
	BondingFailover
	PreUp
	PreTypeChange
	PostTypeChange
	PostInit
	UnregisterFinal
	Release
	NotifyPeers
	Join
	ChangeUpper
	ResendIGMP
	PreChangeMTU
	ChangeInfoData
)

// String returns the symbolic name, or "" for codes the table does not know.
func (k Kind) String() string {
	if uint64(k) >= uint64(symbols.EventKinds.Len()) {
		return ""
	}
	name, _ := symbols.EventKinds.Lookup(int(k))
	return name
}

// Known reports whether the code has a name.
func (k Kind) Known() bool {
	return k.String() != ""
}
