package api

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error

	// Auth errors
	CodeAuthInvalidCredentials    = "E_AUTH_INVALID_CREDENTIALS"     // admin key or token is invalid, expired, or malformed
	CodeAuthTokenGenerationFailed = "E_AUTH_TOKEN_GENERATION_FAILED" // a failure during the generation of new tokens
	CodeAuthTokenRefreshFailed    = "E_AUTH_TOKEN_REFRESH_FAILED"    // a failure during the attempt to refresh a token

	// ACL errors
	CodeACLRuleNotFound = "E_ACL_RULE_NOT_FOUND" // the specified rule could not be found
	CodeACLInvalidRule  = "E_ACL_INVALID_RULE"   // the rule failed validation
	CodeACLUpdateFailed = "E_ACL_UPDATE_FAILED"  // a failure during a rule write
	CodeACLImportFailed = "E_ACL_IMPORT_FAILED"  // the uploaded ruleset could not be imported
	CodeACLCheckFailed  = "E_ACL_CHECK_FAILED"   // the permission check could not be evaluated

	// Settings errors
	CodeSettingsInvalid      = "E_SETTINGS_INVALID"       // the settings failed validation
	CodeSettingsUpdateFailed = "E_SETTINGS_UPDATE_FAILED" // a failure during a settings write
	CodeTimezoneNotFound     = "E_TIMEZONE_NOT_FOUND"     // the role has no timezone assigned
)
