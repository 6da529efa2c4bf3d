package models

// Person is an entry of the remote people directory.
type Person struct {
	NRIC        string `json:"nric"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	DateOfBirth Date   `json:"dateOfBirth"`
}
