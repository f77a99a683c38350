package constants

const Title = "Point to point file transfer over a single TCP connection"

const (
	TRANSFER_CHUNK_SIZE  = 16 * 1024 // Bounded chunk for socket reads and writes
	NAME_FIELD_SIZE      = 255       // Fixed width of the NUL padded file name field
	SIZE_FIELD_SIZE      = 8         // Big-endian unsigned file size
	DIGEST_SIZE          = 32        // SHA256
	ACK_BYTE             = 0x01      // Only byte value counting as approval
	DEFAULT_PORT         = 7878      // Listening/target port
	DEFAULT_TIMEOUT_SECS = 30        // Socket deadline when TIMEOUT is negotiated
	DEFAULT_DSCP         = 0x0A      // QoS for high throughput
)
