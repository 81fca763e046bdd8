package entity

// Channel is stored as SMALLINT in notification_delivery_logs.channel.
type Channel int16

const ChannelEmail Channel = 2

func (c Channel) String() string {
	if c == ChannelEmail {
		return "email"
	}
	return "unknown"
}

// DeliveryStatus moves queued -> sent or queued -> failed, never back.
type DeliveryStatus int16

const (
	DeliveryStatusQueued DeliveryStatus = 1
	DeliveryStatusSent   DeliveryStatus = 3
	DeliveryStatusFailed DeliveryStatus = 4
)

var deliveryStatusNames = map[DeliveryStatus]string{
	DeliveryStatusQueued: "queued",
	DeliveryStatusSent:   "sent",
	DeliveryStatusFailed: "failed",
}

func (s DeliveryStatus) String() string {
	if name, ok := deliveryStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// TriggerKey names the event that caused a notification and doubles as the
// template name.
type TriggerKey string

const TriggerKeyOTPCode TriggerKey = "otp_code"

func (tk TriggerKey) String() string { return string(tk) }
