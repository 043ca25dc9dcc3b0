// Package auth holds the caller identity handed to services and the
// role -> permission table used to authorize every operation.
package auth

type Role string

const (
	RolePlayer    Role = "player"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

type Permission string

const (
	CreateEvent    Permission = "create_event"
	ViewDashboard  Permission = "view_dashboard"
	JoinEvent      Permission = "join_event"
	ManageBrackets Permission = "manage_brackets"
	ManageUsers    Permission = "manage_users"
	ViewAllEvents  Permission = "view_all_events"
	ViewAnyTickets Permission = "view_any_tickets"
)

var rolePermissions = map[Role][]Permission{
	RolePlayer:    {JoinEvent},
	RoleOrganizer: {CreateEvent, ViewDashboard, JoinEvent, ManageBrackets},
	RoleAdmin: {
		CreateEvent, ViewDashboard, JoinEvent, ManageBrackets,
		ManageUsers, ViewAllEvents, ViewAnyTickets,
	},
}

// ParseRole maps a stored role name to a Role, defaulting to player.
func ParseRole(s string) Role {
	switch r := Role(s); r {
	case RoleOrganizer, RoleAdmin:
		return r
	}
	return RolePlayer
}

func (r Role) Can(p Permission) bool {
	for _, granted := range rolePermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}

// Identity is the authenticated caller as seen by the services.
type Identity struct {
	UserID string
	Role   Role
}

func (i Identity) Can(p Permission) bool {
	return i.UserID != "" && i.Role.Can(p)
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// CanManage reports whether the caller may modify a resource owned by ownerID.
func (i Identity) CanManage(ownerID string) bool {
	if i.UserID == "" {
		return false
	}
	return i.IsAdmin() || i.UserID == ownerID
}
