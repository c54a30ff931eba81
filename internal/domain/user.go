package domain

// User is the signed-in account as reported by the user service.
type User struct {
	// ID is the account identifier. The upstream may encode it either as
	// a plain string or a wrapped object id; the client adapter flattens
	// both forms into this field.
	ID string

	// Email is the account's email address.
	Email string

	// Username is the display name.
	Username string

	// Profession is the optional occupation shown on the profile.
	Profession string

	// PersonalQuote is the optional motto shown on the profile.
	PersonalQuote string

	// MyQuotes holds the ids of quotes this user has authored.
	MyQuotes []string

	// Admin marks moderator accounts.
	Admin bool
}

// Owns reports whether the user created the quote: either the quote's
// creator field names them, or its id appears in MyQuotes (records that
// predate the creator field). Admins may act on any quote but do not
// own them.
func (u *User) Owns(q Quote) bool {
	if q.OwnerID != "" && q.OwnerID == u.ID {
		return true
	}

	for _, id := range u.MyQuotes {
		if id == q.ID {
			return true
		}
	}

	return false
}

// CanModify reports whether the user may edit or delete the quote.
func (u *User) CanModify(q Quote) bool {
	return u.Admin || u.Owns(q)
}

// ProfileComplete reports whether the optional profile fields are filled in.
func (u *User) ProfileComplete() bool {
	return u.Profession != "" && u.PersonalQuote != ""
}
