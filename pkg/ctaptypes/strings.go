package ctaptypes

import (
	"strconv"
	"strings"
)

var commandStringMap = map[Command]string{
	AuthenticatorGetInfo:                "AuthenticatorGetInfo",
	AuthenticatorClientPIN:              "AuthenticatorClientPIN",
	AuthenticatorBioEnrollment:          "AuthenticatorBioEnrollment",
	AuthenticatorSelection:              "AuthenticatorSelection",
	PrototypeAuthenticatorBioEnrollment: "PrototypeAuthenticatorBioEnrollment",
}

func (c Command) String() string {
	if str, ok := commandStringMap[c]; ok {
		return str
	}
	return "Command(0x" + strconv.FormatUint(uint64(c), 16) + ")"
}

var clientPINSubCommandStringMap = map[ClientPINSubCommand]string{
	ClientPINSubCommandGetPINRetries:                            "GetPINRetries",
	ClientPINSubCommandGetKeyAgreement:                          "GetKeyAgreement",
	ClientPINSubCommandSetPIN:                                   "SetPIN",
	ClientPINSubCommandChangePIN:                                "ChangePIN",
	ClientPINSubCommandGetPinToken:                              "GetPinToken",
	ClientPINSubCommandGetPinUvAuthTokenUsingUvWithPermissions:  "GetPinUvAuthTokenUsingUvWithPermissions",
	ClientPINSubCommandGetUVRetries:                             "GetUVRetries",
	ClientPINSubCommandGetPinUvAuthTokenUsingPinWithPermissions: "GetPinUvAuthTokenUsingPinWithPermissions",
}

func (c ClientPINSubCommand) String() string {
	if str, ok := clientPINSubCommandStringMap[c]; ok {
		return str
	}
	return "ClientPINSubCommand(" + strconv.Itoa(int(c)) + ")"
}

var permissionStringMap = map[Permission]string{
	PermissionMakeCredential:             "mc",
	PermissionGetAssertion:               "ga",
	PermissionCredentialManagement:       "cm",
	PermissionBioEnrollment:              "be",
	PermissionLargeBlobWrite:             "lbw",
	PermissionAuthenticatorConfiguration: "acfg",
}

// String lists the set bits, e.g. "mc|ga".
func (p Permission) String() string {
	if p == PermissionNone {
		return "none"
	}

	var parts []string
	for bit := Permission(1); bit != 0; bit <<= 1 {
		if p&bit == 0 {
			continue
		}
		if str, ok := permissionStringMap[bit]; ok {
			parts = append(parts, str)
		} else {
			parts = append(parts, "0x"+strconv.FormatUint(uint64(bit), 16))
		}
	}
	return strings.Join(parts, "|")
}
