package model

// Snapshot is the read model handed to one caller: every user, request and
// rating plus the caller's own notifications. A snapshot is never mutated
// after it is built; refreshing means loading a new one.
type Snapshot struct {
	Me            User           `json:"me"`
	Users         []User         `json:"users"`
	Requests      []Request      `json:"requests"`
	Ratings       []Rating       `json:"ratings"`
	Notifications []Notification `json:"notifications"`
}

// User looks up a user by id.
func (s Snapshot) User(id string) (User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// Request looks up a request by id.
func (s Snapshot) Request(id string) (Request, bool) {
	for _, r := range s.Requests {
		if r.ID == id {
			return r, true
		}
	}
	return Request{}, false
}
