// Package role defines the authors of messages in a twin conversation.
package role

// Role identifies who wrote a message.
type Role string

const (
	User Role = "user"
	Twin Role = "twin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case User, Twin:
		return true
	}
	return false
}

// String returns the underlying string value of the role.
func (r Role) String() string {
	return string(r)
}
