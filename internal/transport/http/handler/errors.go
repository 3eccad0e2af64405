package handler

const (
	errInternalServer     = "Internal server error"
	errLinkIgnored        = "Link is not an invite or check-in link"
	errInvalidCredentials = "Email or password is incorrect"
	errNotLoggedIn        = "No user is logged in"
	errInvalidCode        = "QR code is empty"
	errBackendUnavailable = "Circl API request failed"
)
