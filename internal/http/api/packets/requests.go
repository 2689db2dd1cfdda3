package packets

// body for logging in as admin
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// query string for GET /prayer-times
type TimingsQuery struct {
	Latitude  *float64 `form:"lat"`
	Longitude *float64 `form:"lon"`
	Method    *int     `form:"method"`
	Fiqh      string   `form:"fiqh"`
	Date      string   `form:"date"`
}

// query string for GET /qibla
type QiblaQuery struct {
	Latitude  *float64 `form:"lat"`
	Longitude *float64 `form:"lon"`
}

// query string for GET /hadiths
type HadithSearchQuery struct {
	Query    string `form:"q"`
	Book     string `form:"book"`
	Category string `form:"category"`
	Narrator string `form:"narrator"`
}
