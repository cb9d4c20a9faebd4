package ctaphid

import "strconv"

var commandStringMap = map[Command]string{
	CTAPHID_PING:      "CTAPHID_PING",
	CTAPHID_MSG:       "CTAPHID_MSG",
	CTAPHID_INIT:      "CTAPHID_INIT",
	CTAPHID_WINK:      "CTAPHID_WINK",
	CTAPHID_CBOR:      "CTAPHID_CBOR",
	CTAPHID_CANCEL:    "CTAPHID_CANCEL",
	CTAPHID_KEEPALIVE: "CTAPHID_KEEPALIVE",
	CTAPHID_ERROR:     "CTAPHID_ERROR",
}

func (c Command) String() string {
	if str, ok := commandStringMap[c]; ok {
		return str
	}
	return "Command(" + strconv.Itoa(int(c)) + ")"
}

var statusCodeStringMap = map[StatusCode]string{
	CTAP2_OK:                          "CTAP2_OK",
	CTAP1_ERR_INVALID_COMMAND:         "CTAP1_ERR_INVALID_COMMAND",
	CTAP1_ERR_INVALID_PARAMETER:       "CTAP1_ERR_INVALID_PARAMETER",
	CTAP1_ERR_INVALID_LENGTH:          "CTAP1_ERR_INVALID_LENGTH",
	CTAP1_ERR_INVALID_SEQ:             "CTAP1_ERR_INVALID_SEQ",
	CTAP1_ERR_TIMEOUT:                 "CTAP1_ERR_TIMEOUT",
	CTAP1_ERR_CHANNEL_BUSY:            "CTAP1_ERR_CHANNEL_BUSY",
	CTAP1_ERR_LOCK_REQUIRED:           "CTAP1_ERR_LOCK_REQUIRED",
	CTAP1_ERR_INVALID_CHANNEL:         "CTAP1_ERR_INVALID_CHANNEL",
	CTAP2_ERR_CBOR_UNEXPECTED_TYPE:    "CTAP2_ERR_CBOR_UNEXPECTED_TYPE",
	CTAP2_ERR_INVALID_CBOR:            "CTAP2_ERR_INVALID_CBOR",
	CTAP2_ERR_MISSING_PARAMETER:       "CTAP2_ERR_MISSING_PARAMETER",
	CTAP2_ERR_LIMIT_EXCEEDED:          "CTAP2_ERR_LIMIT_EXCEEDED",
	CTAP2_ERR_FP_DATABASE_FULL:        "CTAP2_ERR_FP_DATABASE_FULL",
	CTAP2_ERR_PROCESSING:              "CTAP2_ERR_PROCESSING",
	CTAP2_ERR_USER_ACTION_PENDING:     "CTAP2_ERR_USER_ACTION_PENDING",
	CTAP2_ERR_OPERATION_PENDING:       "CTAP2_ERR_OPERATION_PENDING",
	CTAP2_ERR_NO_OPERATIONS:           "CTAP2_ERR_NO_OPERATIONS",
	CTAP2_ERR_OPERATION_DENIED:        "CTAP2_ERR_OPERATION_DENIED",
	CTAP2_ERR_UNSUPPORTED_OPTION:      "CTAP2_ERR_UNSUPPORTED_OPTION",
	CTAP2_ERR_INVALID_OPTION:          "CTAP2_ERR_INVALID_OPTION",
	CTAP2_ERR_KEEPALIVE_CANCEL:        "CTAP2_ERR_KEEPALIVE_CANCEL",
	CTAP2_ERR_USER_ACTION_TIMEOUT:     "CTAP2_ERR_USER_ACTION_TIMEOUT",
	CTAP2_ERR_NOT_ALLOWED:             "CTAP2_ERR_NOT_ALLOWED",
	CTAP2_ERR_PIN_INVALID:             "CTAP2_ERR_PIN_INVALID",
	CTAP2_ERR_PIN_BLOCKED:             "CTAP2_ERR_PIN_BLOCKED",
	CTAP2_ERR_PIN_AUTH_INVALID:        "CTAP2_ERR_PIN_AUTH_INVALID",
	CTAP2_ERR_PIN_AUTH_BLOCKED:        "CTAP2_ERR_PIN_AUTH_BLOCKED",
	CTAP2_ERR_PIN_NOT_SET:             "CTAP2_ERR_PIN_NOT_SET",
	CTAP2_ERR_PUAT_REQUIRED:           "CTAP2_ERR_PUAT_REQUIRED",
	CTAP2_ERR_PIN_POLICY_VIOLATION:    "CTAP2_ERR_PIN_POLICY_VIOLATION",
	CTAP2_ERR_REQUEST_TOO_LARGE:       "CTAP2_ERR_REQUEST_TOO_LARGE",
	CTAP2_ERR_ACTION_TIMEOUT:          "CTAP2_ERR_ACTION_TIMEOUT",
	CTAP2_ERR_UP_REQUIRED:             "CTAP2_ERR_UP_REQUIRED",
	CTAP2_ERR_UV_BLOCKED:              "CTAP2_ERR_UV_BLOCKED",
	CTAP2_ERR_INTEGRITY_FAILURE:       "CTAP2_ERR_INTEGRITY_FAILURE",
	CTAP2_ERR_INVALID_SUBCOMMAND:      "CTAP2_ERR_INVALID_SUBCOMMAND",
	CTAP2_ERR_UV_INVALID:              "CTAP2_ERR_UV_INVALID",
	CTAP2_ERR_UNAUTHORIZED_PERMISSION: "CTAP2_ERR_UNAUTHORIZED_PERMISSION",
	CTAP1_ERR_OTHER:                   "CTAP1_ERR_OTHER",
}

func (s StatusCode) String() string {
	if str, ok := statusCodeStringMap[s]; ok {
		return str
	}
	return "StatusCode(0x" + strconv.FormatUint(uint64(s), 16) + ")"
}

var errorStringMap = map[Error]string{
	ERR_INVALID_CMD:     "ERR_INVALID_CMD",
	ERR_INVALID_PAR:     "ERR_INVALID_PAR",
	ERR_INVALID_LEN:     "ERR_INVALID_LEN",
	ERR_INVALID_SEQ:     "ERR_INVALID_SEQ",
	ERR_MSG_TIMEOUT:     "ERR_MSG_TIMEOUT",
	ERR_CHANNEL_BUSY:    "ERR_CHANNEL_BUSY",
	ERR_LOCK_REQUIRED:   "ERR_LOCK_REQUIRED",
	ERR_INVALID_CHANNEL: "ERR_INVALID_CHANNEL",
	ERR_OTHER:           "ERR_OTHER",
}

func (e Error) String() string {
	if str, ok := errorStringMap[e]; ok {
		return str
	}
	return "Error(0x" + strconv.FormatUint(uint64(e), 16) + ")"
}

func (s KeepaliveStatus) String() string {
	switch s {
	case STATUS_PROCESSING:
		return "STATUS_PROCESSING"
	case STATUS_UPNEEDED:
		return "STATUS_UPNEEDED"
	default:
		return "KeepaliveStatus(" + strconv.Itoa(int(s)) + ")"
	}
}
