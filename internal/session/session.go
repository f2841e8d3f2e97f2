// Package session holds the locally persisted proof of authentication and
// its file-backed store. A session with no token is equivalent to
// "unauthenticated"; every outbound request re-reads the store at call time.
package session

import "strings"

// Role is the closed set of roles the backend issues.
type Role string

// Roles recognized by the backend.
const (
	RoleEmpleado   Role = "EMPLEADO"
	RoleAdmin      Role = "ADMIN"
	RoleSuperadmin Role = "SUPERADMIN"
)

// ParseRole normalizes a backend role string into a Role. Unknown values are
// preserved as-is in upper case so a new server-side role does not break the
// client.
func ParseRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// IsAdmin reports whether the role grants access to the admin surface.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// SedeSnapshot is the geofence summary of the user's assigned site, captured
// at login time for employee check-in hints. The backend remains authoritative
// for containment decisions.
type SedeSnapshot struct {
	Nombre   string  `json:"nombre"`
	Latitud  float64 `json:"latitud"`
	Longitud float64 `json:"longitud"`
	Radio    float64 `json:"radio"`
}

// Session is the locally held proof of authentication.
type Session struct {
	Token     string        `json:"token"`
	UsuarioID string        `json:"usuario_id"`
	Rol       Role          `json:"rol"`
	SedeID    string        `json:"sede_id,omitempty"`
	Sede      *SedeSnapshot `json:"sede,omitempty"`
}

// Authenticated reports whether the session carries a bearer credential.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}
