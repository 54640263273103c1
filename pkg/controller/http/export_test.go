package http

// VerifyHubSignature is exported for testing
var VerifyHubSignature = verifyHubSignature
