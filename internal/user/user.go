// Package user defines the user record mirrored from the remote API,
// together with the payloads used to create and patch it.
package user

// User represents a user record as returned by the remote API.
// The ID is assigned by the server and never changed by the client.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// Payload is the body of a create request.
type Payload struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// Patch is a partial set of fields applied to an existing user.
// Nil fields are left out of the request body.
type Patch struct {
	Name *string `json:"name,omitempty"`
	Age  *int    `json:"age,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Age == nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to i.
func IntPtr(i int) *int {
	return &i
}
