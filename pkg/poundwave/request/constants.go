package request

// Method IDs.
const (
	MethodUnknown uint8 = iota
	MethodGET
	MethodPOST
	MethodPUT
	MethodDELETE
	MethodHEAD
	MethodOPTIONS
	MethodPATCH
	MethodTRACE
	MethodCONNECT
)

var methodNames = []string{
	MethodUnknown: "",
	MethodGET:     "GET",
	MethodPOST:    "POST",
	MethodPUT:     "PUT",
	MethodDELETE:  "DELETE",
	MethodHEAD:    "HEAD",
	MethodOPTIONS: "OPTIONS",
	MethodPATCH:   "PATCH",
	MethodTRACE:   "TRACE",
	MethodCONNECT: "CONNECT",
}

// MethodString returns the textual method for an id.
func MethodString(id uint8) string {
	if int(id) < len(methodNames) {
		return methodNames[id]
	}
	return ""
}

// ParseMethodID maps a request-line method token to its id, MethodUnknown
// if it isn't one of the methods a reverse proxy relays.
func ParseMethodID(b []byte) uint8 {
	switch string(b) {
	case "GET":
		return MethodGET
	case "POST":
		return MethodPOST
	case "PUT":
		return MethodPUT
	case "DELETE":
		return MethodDELETE
	case "HEAD":
		return MethodHEAD
	case "OPTIONS":
		return MethodOPTIONS
	case "PATCH":
		return MethodPATCH
	case "TRACE":
		return MethodTRACE
	case "CONNECT":
		return MethodCONNECT
	default:
		return MethodUnknown
	}
}

var (
	http11Bytes = []byte("HTTP/1.1")
	http10Bytes = []byte("HTTP/1.0")

	headerContentLength    = []byte("Content-Length")
	headerTransferEncoding = []byte("Transfer-Encoding")
	headerConnection       = []byte("Connection")
	headerHost             = []byte("Host")
	headerAuthorization    = []byte("Authorization")
	headerChunked          = []byte("chunked")
	headerClose            = []byte("close")
	headerKeepAlive        = []byte("keep-alive")

	basicAuthPrefix = []byte("Basic ")
)

// Size limits.
const (
	MaxRequestLineSize = 8192
	MaxURILength       = 8192
	MaxHeadersSize     = 8192
)
