package errors

// Error codes returned in ErrorResponse.Error.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to their own copy.

const (
	// ==================== AUTH_ ====================
	AuthUnauthorized     = "AUTH_UNAUTHORIZED"      // login required
	AuthTokenExpired     = "AUTH_TOKEN_EXPIRED"     // session token expired
	AuthTokenInvalid     = "AUTH_TOKEN_INVALID"     // malformed or forged token
	AuthNonceInvalid     = "AUTH_NONCE_INVALID"     // nonce unknown, used or expired
	AuthSignatureInvalid = "AUTH_SIGNATURE_INVALID" // signature does not match address

	// ==================== AUTHZ_ ====================
	AuthzForbidden  = "AUTHZ_FORBIDDEN"
	AuthzOwnerOnly  = "AUTHZ_OWNER_ONLY" // business owner only
	AuthzAuthorOnly = "AUTHZ_AUTHOR_ONLY"

	// ==================== VALIDATION_ ====================
	ValidationInvalidInput   = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID      = "VALIDATION_INVALID_ID"
	ValidationInvalidAddress = "VALIDATION_INVALID_ADDRESS"
	ValidationInvalidAmount  = "VALIDATION_INVALID_AMOUNT"
	ValidationInvalidRange   = "VALIDATION_INVALID_RANGE"
	ValidationRequired       = "VALIDATION_REQUIRED"

	// ==================== RESOURCE_ ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== BUSINESS_ ====================
	BusinessNotFound      = "BUSINESS_NOT_FOUND"
	BusinessAlreadyExists = "BUSINESS_ALREADY_EXISTS"
	BusinessInactive      = "BUSINESS_INACTIVE"

	// ==================== REVIEW_ ====================
	ReviewNotFound      = "REVIEW_NOT_FOUND"
	ReviewInvalidRating = "REVIEW_INVALID_RATING"

	// ==================== POST_ ====================
	PostNotFound = "POST_NOT_FOUND"

	// ==================== PAYMENT_ ====================
	PaymentNotFound  = "PAYMENT_NOT_FOUND"
	PaymentDuplicate = "PAYMENT_DUPLICATE" // hash already recorded
	PaymentPending   = "PAYMENT_PENDING"   // receipt not available yet

	// ==================== REWARD_ ====================
	RewardNotFound  = "REWARD_NOT_FOUND"
	RewardInactive  = "REWARD_INACTIVE"
	RewardCooldown  = "REWARD_COOLDOWN" // used within the cooldown window
	RewardNotHolder = "REWARD_NOT_HOLDER"

	// ==================== CHAIN_ ====================
	ChainDisabled          = "CHAIN_DISABLED"
	ChainWrongNetwork      = "CHAIN_WRONG_NETWORK"
	ChainBusinessExists    = "CHAIN_BUSINESS_EXISTS"
	ChainBusinessNotFound  = "CHAIN_BUSINESS_NOT_FOUND"
	ChainBusinessInactive  = "CHAIN_BUSINESS_INACTIVE"
	ChainInsufficientFunds = "CHAIN_INSUFFICIENT_FUNDS"
	ChainUserRejected      = "CHAIN_USER_REJECTED"
	ChainNotOwner          = "CHAIN_NOT_OWNER"
	ChainNoPayments        = "CHAIN_NO_PAYMENTS"
	ChainTxNotFound        = "CHAIN_TX_NOT_FOUND"
	ChainReverted          = "CHAIN_REVERTED"
	ChainEventMismatch     = "CHAIN_EVENT_MISMATCH"
	ChainTimeout           = "CHAIN_TIMEOUT"
	ChainNetwork           = "CHAIN_NETWORK"
	ChainNoSigner          = "CHAIN_NO_SIGNER"

	// ==================== UPLOAD_ ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== RATE_ ====================
	RateLimited = "RATE_LIMITED"

	// ==================== INTERNAL_ ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
