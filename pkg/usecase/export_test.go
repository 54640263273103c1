package usecase

// BuildSendRequest is exported for testing
var BuildSendRequest = buildSendRequest

// ResolveAccessToken is exported for testing
var ResolveAccessToken = resolveAccessToken
