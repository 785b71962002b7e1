package domain

// Storage keys of the local key-value store.
const (
	KeyAccessToken   = "access"
	KeyRefreshToken  = "refresh"
	KeyRememberEmail = "remember_email"
)

type (
	User struct {
		ID        int64
		Username  string
		Email     string
		FirstName string
		LastName  string
		Profile   Profile
	}

	Profile struct {
		Phone     string
		Birthdate string
		CEP       string
		Street    string
		Number    string
		City      string
		State     string
		Avatar    string
	}
)

func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type Tokens struct {
	Access  string
	Refresh string
}

type Credentials struct {
	Email    string
	Password string
}

// Registration is the payload accepted by the backend; phone holds digits
// only and birthdate is ISO formatted.
type Registration struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Birthdate string
}
