package rbac

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

type Permission = string

const (
	PermLogsView       Permission = "logs.view"
	PermLogsCreate     Permission = "logs.create"
	PermRadioProcess   Permission = "radio.process"
	PermEventsManage   Permission = "events.manage"
	PermAccountsManage Permission = "accounts.manage"
	PermAuditView      Permission = "audit.view"
)

const casbinModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj
`

// grants is the built-in role/permission table. Stewards write and read the
// logbook; supervisors additionally run the radio bridge and manage events;
// admins get everything.
var grants = map[string][]Permission{
	"steward": {
		PermLogsView,
		PermLogsCreate,
	},
	"supervisor": {
		PermLogsView,
		PermLogsCreate,
		PermRadioProcess,
		PermEventsManage,
		PermAuditView,
	},
	"admin": {
		PermLogsView,
		PermLogsCreate,
		PermRadioProcess,
		PermEventsManage,
		PermAccountsManage,
		PermAuditView,
	},
}

type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(casbinModel)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	for role, perms := range grants {
		if _, err := enforcer.AddGroupingPolicy(role, role); err != nil {
			return nil, err
		}
		for _, perm := range perms {
			if _, err := enforcer.AddPolicy(role, string(perm)); err != nil {
				return nil, err
			}
		}
	}
	return &Policy{enforcer: enforcer}, nil
}

// Allowed reports whether the role carries the permission. Unknown roles get
// nothing.
func (p *Policy) Allowed(role string, perm Permission) bool {
	if p == nil || p.enforcer == nil {
		return false
	}
	ok, err := p.enforcer.Enforce(role, string(perm))
	return err == nil && ok
}

func Roles() []string {
	return []string{"steward", "supervisor", "admin"}
}

func IsValidRole(role string) bool {
	_, ok := grants[role]
	return ok
}
