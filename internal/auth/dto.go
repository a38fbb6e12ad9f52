package auth

// Field names are the local lowerCamel form; the api client rewrites them to
// snake_case on the wire.

// StartLoginRequest asks the backend to text a verification code.
type StartLoginRequest struct {
	UserType  string  `json:"userType"`
	Name      string  `json:"name"`
	ChildName *string `json:"childName,omitempty"`
	Phone     string  `json:"phone"`
}

// StartLoginResponse echoes the code in development backends.
type StartLoginResponse struct {
	Message string  `json:"message"`
	Code    *string `json:"code"`
}

// VerifyCodeRequest exchanges a code for a token.
type VerifyCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// VerifyCodeResponse carries the bearer token and the server's user.
type VerifyCodeResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

// LoginRequest is the legacy phone-only login.
type LoginRequest struct {
	Phone string `json:"phone"`
}

// LoginResponse mirrors VerifyCodeResponse.
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

// User is the server's view of an account. Every field is optional.
type User struct {
	ID               *int64   `json:"id,omitempty"`
	Name             *string  `json:"name,omitempty"`
	UserType         *string  `json:"userType,omitempty"`
	Role             *string  `json:"role,omitempty"`
	ChildName        *string  `json:"childName,omitempty"`
	Phone            *string  `json:"phone,omitempty"`
	SubscriptionTier *string  `json:"subscriptionTier,omitempty"`
	Points           *int     `json:"points,omitempty"`
	Email            *string  `json:"email,omitempty"`
	Diagnosis        []string `json:"diagnosis,omitempty"`
	Severity         *string  `json:"severity,omitempty"`
	CurrentTherapies []string `json:"currentTherapies,omitempty"`
	Goals            []string `json:"goals,omitempty"`
	Gender           *string  `json:"gender,omitempty"`
	Age              *string  `json:"age,omitempty"`
	CreatedAt        *string  `json:"createdAt,omitempty"`
	UpdatedAt        *string  `json:"updatedAt,omitempty"`
}

// ProfileResponse wraps GET /api/profile.
type ProfileResponse struct {
	User *User `json:"user"`
}

// VideoItem is one entry of the caregiver video library.
type VideoItem struct {
	ID           *int64  `json:"id,omitempty"`
	Title        *string `json:"title,omitempty"`
	URL          *string `json:"url,omitempty"`
	ThumbnailURL *string `json:"thumbnailUrl,omitempty"`
	CreatedAt    *string `json:"createdAt,omitempty"`
}

// VideosResponse wraps GET /api/videos.
type VideosResponse struct {
	Videos []VideoItem `json:"videos"`
}
