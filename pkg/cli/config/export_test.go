package config

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend string) *Repository {
	return &Repository{backend: backend}
}

// NewInstagramForTest creates an Instagram config for testing purposes
func NewInstagramForTest(clientID, clientSecret, redirectURI string) *Instagram {
	return &Instagram{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format string) *Logger {
	return &Logger{level: level, format: format}
}
