// Package guard decides whether a session may enter a view.
package guard

import (
	"net/url"
	"strings"

	"github.com/fastservices/gateway/internal/authctx"
	"github.com/fastservices/gateway/internal/domain/user"
)

const (
	HomePath  = "/"
	LoginPath = "/login"
)

// Dashboard is a role's view subtree.
type Dashboard struct {
	Role       user.Role
	Root       string
	DefaultTab string
}

// Dashboards is the policy table. Every dashboard root is listed here; the
// guard never infers one from a path.
var Dashboards = []Dashboard{
	{Role: user.RoleSuperAdmin, Root: "/admin", DefaultTab: "/admin/stats"},
	{Role: user.RoleOrgAdmin, Root: "/organization", DefaultTab: "/organization/offerings"},
	{Role: user.RoleStaff, Root: "/staff", DefaultTab: "/staff/queue"},
	{Role: user.RoleCustomer, Root: "/customer", DefaultTab: "/customer/upcoming"},
}

// DashboardFor returns the dashboard of role.
func DashboardFor(role user.Role) (Dashboard, bool) {
	for _, d := range Dashboards {
		if d.Role == role {
			return d, true
		}
	}
	return Dashboard{}, false
}

// DefaultTab is where role lands after login. Unknown roles go home.
func DefaultTab(role user.Role) string {
	if d, ok := DashboardFor(role); ok {
		return d.DefaultTab
	}
	return HomePath
}

// UnderDashboard reports whether path is a dashboard root or below one.
// Matching is by whole segments, so /administration is not under /admin.
func UnderDashboard(path string) bool {
	for _, d := range Dashboards {
		if underRoot(path, d.Root) {
			return true
		}
	}
	return false
}

func underRoot(path, root string) bool {
	path = "/" + strings.Trim(path, "/")
	return path == root || strings.HasPrefix(path, root+"/")
}

type Outcome int

const (
	Allow Outcome = iota
	Loading
	RedirectLogin
	RedirectHome
	RedirectDashboard
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Loading:
		return "loading"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	case RedirectDashboard:
		return "redirect_dashboard"
	default:
		return "unknown"
	}
}

type Decision struct {
	Outcome  Outcome
	Location string
}

// Decide applies the policy:
//
//	loading                          -> placeholder, no redirect
//	anonymous                        -> login, remembering path
//	denied under any dashboard root  -> home
//	denied elsewhere                 -> own default tab
//	otherwise                        -> allow
func Decide(st authctx.State, path string, allowed []user.Role) Decision {
	if st.Loading {
		return Decision{Outcome: Loading}
	}
	if !st.Authenticated {
		return Decision{Outcome: RedirectLogin, Location: LoginLocation(path)}
	}
	if roleAllowed(st.Role, allowed) {
		return Decision{Outcome: Allow}
	}
	if UnderDashboard(path) {
		return Decision{Outcome: RedirectHome, Location: HomePath}
	}
	return Decision{Outcome: RedirectDashboard, Location: DefaultTab(st.Role)}
}

func roleAllowed(role user.Role, allowed []user.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// LoginLocation is the login URL that returns to path afterwards.
func LoginLocation(path string) string {
	if path == "" || path == LoginPath {
		return LoginPath
	}
	return LoginPath + "?from=" + url.QueryEscape(path)
}

// SafeReturn accepts only local absolute paths as a post-login target.
func SafeReturn(from string) (string, bool) {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.Contains(from, `\`) {
		return "", false
	}
	u, err := url.Parse(from)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "", false
	}
	if u.Path == LoginPath {
		return "", false
	}
	return from, true
}
