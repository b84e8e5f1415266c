package ravello

// RTCMode selects how the seconds value of an RTC setting is applied.
type RTCMode string

const (
	// RTCModeAbsolute sets the clock to a fixed Unix timestamp.
	RTCModeAbsolute RTCMode = "ABSOLUTE"
	// RTCModeRelative offsets the clock from current time by a number of
	// seconds, positive meaning the future.
	RTCModeRelative RTCMode = "RELATIVE"
)

// RTC is the clock setting carried by a VM in an application design.
// Exactly one mode is active per setting.
type RTC struct {
	Mode    RTCMode `json:"mode"`
	Seconds int64   `json:"seconds"`
}

// AbsoluteRTC builds an RTC setting pinned to a Unix timestamp.
func AbsoluteRTC(seconds int64) RTC {
	return RTC{Mode: RTCModeAbsolute, Seconds: seconds}
}

// RelativeRTC builds an RTC setting offset from current time.
func RelativeRTC(seconds int64) RTC {
	return RTC{Mode: RTCModeRelative, Seconds: seconds}
}

// VM is a virtual machine record nested in an application design.
type VM struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	RTC         *RTC              `json:"rtc,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Design is the editable part of an application: an ordered collection
// of VMs. Order is service-defined and significant for lookups.
type Design struct {
	VMs []VM `json:"vms"`
}

// Application is the remote-owned application record. The client holds
// a transient in-memory copy only; the service is the source of truth.
type Application struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Owner     string `json:"owner,omitempty"`
	Published bool   `json:"published"`
	Design    Design `json:"design"`
}
