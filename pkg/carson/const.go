package carson

import "net/http"

// DefaultBaseURL is the root of the Carson Living API.
const DefaultBaseURL = "https://api.carson.live/api/v1.4.4"

const (
	EndpointLogin           = "/auth/login/"
	EndpointMe              = "/me/"
	EndpointEagleEyeSession = "/properties/buildings/%d/eagleeye/session/"
	EndpointDoorOpen        = "/doors/%d/open/"
)

// DefaultRetries is the number of re-logins a query may perform after a 401.
const DefaultRetries = 1

// authScheme prefixes the token in the Authorization header.
const authScheme = "JWT "

// ProviderEagleEye marks cameras served by Eagle Eye Networks.
const ProviderEagleEye = "eagle_eye"

// BaseHeaders are sent with every request to either API. The service only
// answers clients that identify as the iOS app.
func BaseHeaders() http.Header {
	return http.Header{
		"User-Agent":    {"Carson/1.0.171 (live.carson.app; build:245; iOS 13.1.0) Alamofire/1.0.171"},
		"X-App-Version": {"1.0.171(245)"},
		"X-Device-Type": {"ios"},
	}
}
