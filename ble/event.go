package ble

import (
	"encoding/hex"
	"fmt"
)

const (
	// MaxAdvDataLen is the size of an advertisement plus scan response.
	MaxAdvDataLen = 62
	// MaxValueLen is the largest attribute value carried by an event.
	MaxValueLen = 64
)

// Address is a device address, most significant byte first.
type Address [6]byte

func (a Address) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// Uint64 packs the address into the low 48 bits.
func (a Address) Uint64() uint64 {
	var u uint64
	for _, b := range a {
		u = u<<8 | uint64(b)
	}
	return u
}

// Hex returns the address as 12 lowercase hex digits, without separators.
func (a Address) Hex() string { return hex.EncodeToString(a[:]) }

// ScanResult is the payload of GAPScanResult.
type ScanResult struct {
	Address  Address
	Data     [MaxAdvDataLen]byte
	RSSI     int8
	AddrType uint8
	DataLen  uint8
}

// AdvData returns the valid prefix of Data.
func (r *ScanResult) AdvData() []byte { return r.Data[:min(int(r.DataLen), len(r.Data))] }

// StatusComplete is the shared view of every "operation complete" GAP
// sub-kind that carries only a status. Handlers always receive it, in
// GAPParams.Complete, whatever the sub-kind.
type StatusComplete struct {
	Status uint8
}

// Success reports a zero status.
func (s StatusComplete) Success() bool { return s.Status == 0 }

// The per-sub-kind payloads below are not carried by Event. They exist so
// the conversions that follow fail to compile if any of them stops sharing
// the StatusComplete layout, and so a stack can build one and convert it
// with StatusComplete(x).
type (
	ScanParamSetComplete   struct{ Status uint8 }
	ScanStartComplete      struct{ Status uint8 }
	ScanStopComplete       struct{ Status uint8 }
	AdvDataSetComplete     struct{ Status uint8 }
	ScanRspDataSetComplete struct{ Status uint8 }
	AdvStartComplete       struct{ Status uint8 }
	AdvStopComplete        struct{ Status uint8 }
)

// Each conversion compiles only while the sub-kind's payload has the same
// layout as StatusComplete.
var (
	_ = StatusComplete(ScanParamSetComplete{})
	_ = StatusComplete(ScanStartComplete{})
	_ = StatusComplete(ScanStopComplete{})
	_ = StatusComplete(AdvDataSetComplete{})
	_ = StatusComplete(ScanRspDataSetComplete{})
	_ = StatusComplete(AdvStartComplete{})
	_ = StatusComplete(AdvStopComplete{})
)

// SecurityEvent is the payload of the CategorySecurity sub-kinds.
type SecurityEvent struct {
	Address    Address
	Passkey    uint32
	AuthMode   uint8
	KeyType    uint8
	FailReason uint8
	Success    bool
}

// ConnParams is the payload of GAPUpdateConnParams. Intervals are in units
// of 1.25ms, the timeout in units of 10ms.
type ConnParams struct {
	Address     Address
	MinInterval uint16
	MaxInterval uint16
	Interval    uint16
	Latency     uint16
	Timeout     uint16
	Status      uint8
}

// RSSIComplete is the payload of GAPReadRSSIComplete.
type RSSIComplete struct {
	Address Address
	Status  uint8
	RSSI    int8
}

// GAPParams holds the payload of a GAP event. Only the field selected by the
// category of the event's GAPType is meaningful.
type GAPParams struct {
	ScanResult ScanResult
	Security   SecurityEvent
	ConnParams ConnParams
	RSSI       RSSIComplete
	Complete   StatusComplete
}

// copyFor copies the field of src selected by c into p.
func (p *GAPParams) copyFor(c Category, src *GAPParams) {
	switch c {
	case CategoryScanResult:
		p.ScanResult = src.ScanResult
	case CategoryStatusComplete:
		p.Complete = src.Complete
	case CategorySecurity:
		p.Security = src.Security
	case CategoryConnParams:
		p.ConnParams = src.ConnParams
	case CategoryRSSI:
		p.RSSI = src.RSSI
	}
}

// GATTSType is the sub-kind of a GATT server event.
type GATTSType uint8

const (
	GATTSRegister GATTSType = iota + 1
	GATTSRead
	GATTSWrite
	GATTSExecWrite
	GATTSMTU
	GATTSConfirm
	GATTSConnect
	GATTSDisconnect
)

// GATTSEvent is the payload of KindGATTS.
type GATTSEvent struct {
	Address   Address
	Value     [MaxValueLen]byte
	ConnID    uint16
	Handle    uint16
	Offset    uint16
	MTU       uint16
	ValueLen  uint16
	Type      GATTSType
	Interface uint8
	Status    uint8
	NeedRsp   bool
}

// Data returns the valid prefix of Value.
func (e *GATTSEvent) Data() []byte { return e.Value[:min(int(e.ValueLen), len(e.Value))] }

// SetData copies b into Value, truncating it to MaxValueLen.
func (e *GATTSEvent) SetData(b []byte) { e.ValueLen = uint16(copy(e.Value[:], b)) }

// GATTCType is the sub-kind of a GATT client event.
type GATTCType uint8

const (
	GATTCRegister GATTCType = iota + 1
	GATTCOpen
	GATTCClose
	GATTCSearchResult
	GATTCSearchComplete
	GATTCReadChar
	GATTCWriteChar
	GATTCNotify
	GATTCDisconnect
)

// GATTCEvent is the payload of KindGATTC.
type GATTCEvent struct {
	Address   Address
	Value     [MaxValueLen]byte
	ConnID    uint16
	Handle    uint16
	MTU       uint16
	ValueLen  uint16
	Type      GATTCType
	Interface uint8
	Status    uint8
	IsNotify  bool
}

// Data returns the valid prefix of Value.
func (e *GATTCEvent) Data() []byte { return e.Value[:min(int(e.ValueLen), len(e.Value))] }

// SetData copies b into Value, truncating it to MaxValueLen.
func (e *GATTCEvent) SetData(b []byte) { e.ValueLen = uint16(copy(e.Value[:], b)) }

// Event is one queued stack event. Kind selects the meaningful payload, and
// for KindGAP, GAPType selects the meaningful GAPParams field.
type Event struct {
	GAP     GAPParams
	GATTS   GATTSEvent
	GATTC   GATTCEvent
	Kind    Kind
	GAPType GAPType
}
