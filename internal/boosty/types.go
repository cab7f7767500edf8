package boosty

// --- Common Types ---

// pageExtra is the cursor envelope shared by the paginated feeds. An
// empty offset or isLast=true signals the final page.
type pageExtra struct {
	Offset string `json:"offset"`
	IsLast bool   `json:"isLast"`
}

// apiError is the error envelope the API returns in place of a payload.
type apiError struct {
	Error     string `json:"error"`
	ErrorDesc string `json:"error_description"`
}

// --- Posts Feed Types ---

type postsResponse struct {
	apiError
	Data  []postData `json:"data"`
	Extra pageExtra  `json:"extra"`
}

type postData struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	CreatedAt float64        `json:"createdAt"` // unix seconds
	HasAccess bool           `json:"hasAccess"`
	Data      []postDataItem `json:"data"`
}

type postDataItem struct {
	Type       string      `json:"type"`
	Complete   bool        `json:"complete"`
	Status     string      `json:"status"`
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	PlayerURLs []playerURL `json:"playerUrls"`
}

type playerURL struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// --- Media Album Feed Types ---

type mediaAlbumResponse struct {
	apiError
	Data struct {
		MediaPosts []mediaPost `json:"mediaPosts"`
	} `json:"data"`
	Extra pageExtra `json:"extra"`
}

type mediaPost struct {
	Post struct {
		ID string `json:"id"`
	} `json:"post"`
	Media []struct {
		Type string `json:"type"`
	} `json:"media"`
}

// --- Token Refresh Types ---

type tokenResponse struct {
	apiError
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

// TokenGrant is the result of a successful refresh exchange. ExpiresAt
// is in unix milliseconds, matching the auth cookie format.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}
