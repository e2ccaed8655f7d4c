package common

// AuthorizationHeaderName is the gRPC/HTTP metadata key used to carry the
// bearer token on outbound requests.
const AuthorizationHeaderName = "authorization"

// BearerScheme is the only accepted authorization scheme (compared case-insensitively).
const BearerScheme = "Bearer"

// RefreshTokenType is the value of the "type" claim carried by refresh tokens.
const RefreshTokenType = "refresh"

// RequestIDHeaderName is the metadata key echoing the per-request id.
const RequestIDHeaderName = "x-request-id"
