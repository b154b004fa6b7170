package user

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

const imageURLFormat = "https://picsum.photos/seed/"

type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`
	Image    string `json:"image"`
}

// Draft is a user payload that has not been assigned an id yet.
type Draft struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`
	Image    string `json:"image,omitempty"`
}

func (d Draft) User(id int) User {
	u := User{
		ID:       id,
		Name:     d.Name,
		Email:    d.Email,
		Username: d.Username,
		Phone:    d.Phone,
		Website:  d.Website,
		Image:    d.Image,
	}

	if u.Image == "" {
		u.Image = ImageURL(id)
	}

	return u
}

// Patch carries a subset of fields to merge over an existing user.
// A nil field is left untouched.
type Patch struct {
	ID       int     `json:"id"`
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Website  *string `json:"website,omitempty"`
	Image    *string `json:"image,omitempty"`
}

func (p Patch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Website != nil {
		u.Website = *p.Website
	}
	if p.Image != nil {
		u.Image = *p.Image
	}

	return u
}

// ImageURL derives the avatar of a user from its id.
func ImageURL(id int) string {
	return imageURLFormat + strconv.Itoa(id) + "/200"
}

// NextID returns the id a new record receives: one past the largest
// id in users, or 1 when users is empty.
func NextID(users []User) int {
	max := 0
	for _, u := range users {
		if u.ID > max {
			max = u.ID
		}
	}

	return max + 1
}

// WithImages fills in the image of every user that has none.
func WithImages(users []User) []User {
	results := make([]User, len(users))
	for i, u := range users {
		if u.Image == "" {
			u.Image = ImageURL(u.ID)
		}
		results[i] = u
	}

	return results
}

func MatchName(u User, query string) bool {
	return strings.Contains(
		strings.ToLower(u.Name),
		strings.ToLower(query),
	)
}
