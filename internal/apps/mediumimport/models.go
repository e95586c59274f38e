package mediumimport

// --- DTOs ---

type MediumUsernameRequest struct {
	Username string `json:"username"`
}

type GenerateCodeResponse struct {
	VerificationCode string   `json:"verificationCode"`
	Username         string   `json:"username"`
	ArticleCount     int      `json:"articleCount"`
	SampleArticles   []string `json:"sampleArticles"`
	Instructions     string   `json:"instructions"`
}

type VerifyResponse struct {
	Verified bool   `json:"verified"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type ImportResponse struct {
	Message  string   `json:"message"`
	Imported []string `json:"imported"`
}
