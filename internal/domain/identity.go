package domain

// User is an account in the identity directory.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Disabled  bool   `json:"disabled,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

func (u *User) SetRecordID(id string) { u.ID = id }

// Identity is the verified profile of a token subject.
type Identity struct {
	ID    string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Holder returns the identity as a lock holder.
func (i Identity) Holder() Holder {
	return Holder{ID: i.ID, Name: i.Name, Email: i.Email}
}
