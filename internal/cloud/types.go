package cloud

// User is the authenticated account.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Device is one entry of the account's device listing.
type Device struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
}

// Playlist is a curated or personal track collection.
type Playlist struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Tracks []int  `json:"tracks"`
}

// Software is the latest published firmware metadata.
type Software struct {
	ID          int    `json:"id"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}
