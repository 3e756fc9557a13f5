package markers

import (
	"fmt"
	"net/http"

	"github.com/joeblew999/plat-rawan/pkg/rawanclient"
)

// Op names the store operation that failed.
type Op string

const (
	OpLoad   Op = "load"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Kind classifies a failure for the user.
type Kind int

const (
	KindGeneric Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "generic"
	}
}

// Notice is a user-facing error message.
type Notice struct {
	Op      Op
	Kind    Kind
	Title   string
	Message string
}

// MsgSessionExpired is shown for any 401 response.
const MsgSessionExpired = "Your session has expired. Please log in again."

var verbs = map[Op]string{
	OpLoad:   "view",
	OpCreate: "add",
	OpUpdate: "change",
	OpDelete: "delete",
}

// Classify maps an error from a store operation to a Notice.
// Loads only distinguish auth failures; mutations also surface 400
// validation messages from the server verbatim.
func Classify(err error, op Op) Notice {
	status := rawanclient.StatusOf(err)
	verb := verbs[op]

	switch {
	case status == http.StatusUnauthorized:
		return Notice{Op: op, Kind: KindUnauthorized, Title: "Session expired", Message: MsgSessionExpired}
	case status == http.StatusForbidden:
		return Notice{Op: op, Kind: KindForbidden, Title: "Access denied",
			Message: fmt.Sprintf("You do not have permission to %s hazard locations.", verb)}
	case status == http.StatusBadRequest && op != OpLoad:
		msg := "The hazard location data is invalid."
		if serverMsg := serverMessage(err); serverMsg != "" {
			msg = serverMsg
		}
		return Notice{Op: op, Kind: KindValidation, Title: "Invalid data", Message: msg}
	}

	if op == OpLoad {
		return Notice{Op: op, Kind: KindGeneric, Title: "Error", Message: "Failed to load hazard locations."}
	}
	return Notice{Op: op, Kind: KindGeneric, Title: "Error",
		Message: fmt.Sprintf("Failed to %s the hazard location. Please try again.", verb)}
}

func serverMessage(err error) string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return ""
	}
	return apiErr.Message
}
