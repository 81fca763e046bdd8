package event

const OTPIssuedDestination string = "identity_otp_issued"
const OTPIssuedConsumerNotification string = "identity_otp_issued_notification"

// OTPIssuedMessage carries a freshly issued code. SealedCode is AES-GCM
// ciphertext bound to the identity, base64 encoded by encoding/json.
type OTPIssuedMessage struct {
	IdentityID int64  `json:"identity_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	Counter    uint64 `json:"counter"`
	SealedCode []byte `json:"sealed_code"`
	ExpiresAt  int64  `json:"expires_at"`
}
