package ble

// Kind is the top level discriminant of an Event.
type Kind uint8

const (
	KindGAP Kind = iota + 1
	KindGATTS
	KindGATTC
)

func (k Kind) String() string {
	switch k {
	case KindGAP:
		return "GAP"
	case KindGATTS:
		return "GATTS"
	case KindGATTC:
		return "GATTC"
	default:
		return "Unknown"
	}
}

// GAPType is the sub-kind of a GAP event.
type GAPType uint8

const (
	GAPScanParamSetComplete GAPType = iota + 1
	GAPScanResult
	GAPScanStartComplete
	GAPScanStopComplete
	GAPAdvDataSetComplete
	GAPScanRspDataSetComplete
	GAPAdvStartComplete
	GAPAdvStopComplete
	GAPAuthComplete
	GAPKeyEvent
	GAPSecurityRequest
	GAPPasskeyNotify
	GAPPasskeyRequest
	GAPNumericComparisonRequest
	GAPUpdateConnParams
	GAPReadRSSIComplete
	GAPSetPktLengthComplete
	GAPSetLocalPrivacyComplete
)

var gapTypeNames = [...]string{
	GAPScanParamSetComplete:     "scan_param_set_complete",
	GAPScanResult:               "scan_result",
	GAPScanStartComplete:        "scan_start_complete",
	GAPScanStopComplete:         "scan_stop_complete",
	GAPAdvDataSetComplete:       "adv_data_set_complete",
	GAPScanRspDataSetComplete:   "scan_rsp_data_set_complete",
	GAPAdvStartComplete:         "adv_start_complete",
	GAPAdvStopComplete:          "adv_stop_complete",
	GAPAuthComplete:             "auth_complete",
	GAPKeyEvent:                 "key_event",
	GAPSecurityRequest:          "security_request",
	GAPPasskeyNotify:            "passkey_notify",
	GAPPasskeyRequest:           "passkey_request",
	GAPNumericComparisonRequest: "numeric_comparison_request",
	GAPUpdateConnParams:         "update_conn_params",
	GAPReadRSSIComplete:         "read_rssi_complete",
	GAPSetPktLengthComplete:     "set_pkt_length_complete",
	GAPSetLocalPrivacyComplete:  "set_local_privacy_complete",
}

func (t GAPType) String() string {
	if int(t) < len(gapTypeNames) && gapTypeNames[t] != `` {
		return gapTypeNames[t]
	}
	return "unknown"
}

// Category groups GAP sub-kinds that share a payload.
type Category uint8

const (
	// CategoryNone marks sub-kinds that are not forwarded to the main loop.
	CategoryNone Category = iota
	CategoryScanResult
	CategoryStatusComplete
	CategorySecurity
	CategoryConnParams
	CategoryRSSI
)

func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryScanResult:
		return "scan_result"
	case CategoryStatusComplete:
		return "status_complete"
	case CategorySecurity:
		return "security"
	case CategoryConnParams:
		return "conn_params"
	case CategoryRSSI:
		return "rssi"
	default:
		return "unknown"
	}
}

// gapCategories is consulted both when a GAP event is posted, to decide
// whether it is queued and which payload is copied, and when it is
// dispatched.
var gapCategories = [...]Category{
	GAPScanResult: CategoryScanResult,

	GAPScanParamSetComplete:   CategoryStatusComplete,
	GAPScanStartComplete:      CategoryStatusComplete,
	GAPScanStopComplete:       CategoryStatusComplete,
	GAPAdvDataSetComplete:     CategoryStatusComplete,
	GAPScanRspDataSetComplete: CategoryStatusComplete,
	GAPAdvStartComplete:       CategoryStatusComplete,
	GAPAdvStopComplete:        CategoryStatusComplete,

	GAPAuthComplete:             CategorySecurity,
	GAPKeyEvent:                 CategorySecurity,
	GAPSecurityRequest:          CategorySecurity,
	GAPPasskeyNotify:            CategorySecurity,
	GAPPasskeyRequest:           CategorySecurity,
	GAPNumericComparisonRequest: CategorySecurity,

	GAPUpdateConnParams: CategoryConnParams,
	GAPReadRSSIComplete: CategoryRSSI,

	GAPSetPktLengthComplete:    CategoryNone,
	GAPSetLocalPrivacyComplete: CategoryNone,
}

// CategoryOf returns the category of t, CategoryNone if t is not forwarded.
func CategoryOf(t GAPType) Category {
	if int(t) < len(gapCategories) {
		return gapCategories[t]
	}
	return CategoryNone
}
