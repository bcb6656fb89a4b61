package shared

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
)

// Typed entity IDs. All are UUIDs underneath; distinct types keep a phase ID
// from ever being passed where a submission ID is expected.
type (
	ChallengeID  uuid.UUID
	PhaseID      uuid.UUID
	SubmissionID uuid.UUID
	JobID        uuid.UUID
	UserID       uuid.UUID
	GroupID      uuid.UUID
	FolderID     uuid.UUID
	CollectionID uuid.UUID
)

func (id ChallengeID) String() string  { return uuid.UUID(id).String() }
func (id PhaseID) String() string      { return uuid.UUID(id).String() }
func (id SubmissionID) String() string { return uuid.UUID(id).String() }
func (id JobID) String() string        { return uuid.UUID(id).String() }
func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id GroupID) String() string      { return uuid.UUID(id).String() }
func (id FolderID) String() string     { return uuid.UUID(id).String() }
func (id CollectionID) String() string { return uuid.UUID(id).String() }

func (id ChallengeID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id PhaseID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id SubmissionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id JobID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id GroupID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id FolderID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id CollectionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Named UUID types do not inherit uuid.UUID's methods, so each ID type
// carries its own text and SQL codecs. Without these, JSON would render the
// raw byte array.

func (id ChallengeID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id PhaseID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id SubmissionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id JobID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id GroupID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id FolderID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id CollectionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ChallengeID) UnmarshalText(b []byte) error  { return unmarshalID((*uuid.UUID)(id), b) }
func (id *PhaseID) UnmarshalText(b []byte) error      { return unmarshalID((*uuid.UUID)(id), b) }
func (id *SubmissionID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(id), b) }
func (id *JobID) UnmarshalText(b []byte) error        { return unmarshalID((*uuid.UUID)(id), b) }
func (id *UserID) UnmarshalText(b []byte) error       { return unmarshalID((*uuid.UUID)(id), b) }
func (id *GroupID) UnmarshalText(b []byte) error      { return unmarshalID((*uuid.UUID)(id), b) }
func (id *FolderID) UnmarshalText(b []byte) error     { return unmarshalID((*uuid.UUID)(id), b) }
func (id *CollectionID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(id), b) }

func unmarshalID(dst *uuid.UUID, b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*dst = u
	return nil
}

func (id ChallengeID) Value() (driver.Value, error)  { return id.String(), nil }
func (id PhaseID) Value() (driver.Value, error)      { return id.String(), nil }
func (id SubmissionID) Value() (driver.Value, error) { return id.String(), nil }
func (id JobID) Value() (driver.Value, error)        { return id.String(), nil }
func (id UserID) Value() (driver.Value, error)       { return id.String(), nil }
func (id GroupID) Value() (driver.Value, error)      { return id.String(), nil }
func (id FolderID) Value() (driver.Value, error)     { return id.String(), nil }
func (id CollectionID) Value() (driver.Value, error) { return id.String(), nil }

func (id *ChallengeID) Scan(src any) error  { return scanID((*uuid.UUID)(id), src) }
func (id *PhaseID) Scan(src any) error      { return scanID((*uuid.UUID)(id), src) }
func (id *SubmissionID) Scan(src any) error { return scanID((*uuid.UUID)(id), src) }
func (id *JobID) Scan(src any) error        { return scanID((*uuid.UUID)(id), src) }
func (id *UserID) Scan(src any) error       { return scanID((*uuid.UUID)(id), src) }
func (id *GroupID) Scan(src any) error      { return scanID((*uuid.UUID)(id), src) }
func (id *FolderID) Scan(src any) error     { return scanID((*uuid.UUID)(id), src) }
func (id *CollectionID) Scan(src any) error { return scanID((*uuid.UUID)(id), src) }

func scanID(dst *uuid.UUID, src any) error {
	switch v := src.(type) {
	case nil:
		*dst = uuid.Nil
		return nil
	case string:
		u, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		*dst = u
		return nil
	case []byte:
		u, err := uuid.ParseBytes(v)
		if err != nil {
			return err
		}
		*dst = u
		return nil
	default:
		return fmt.Errorf("cannot scan %T into uuid", src)
	}
}

// ParseUserID parses a UUID string into a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	return UserID(u), err
}

// ParseSubmissionID parses a UUID string into a SubmissionID.
func ParseSubmissionID(s string) (SubmissionID, error) {
	u, err := uuid.Parse(s)
	return SubmissionID(u), err
}

// ParsePhaseID parses a UUID string into a PhaseID.
func ParsePhaseID(s string) (PhaseID, error) {
	u, err := uuid.Parse(s)
	return PhaseID(u), err
}

// ParseChallengeID parses a UUID string into a ChallengeID.
func ParseChallengeID(s string) (ChallengeID, error) {
	u, err := uuid.Parse(s)
	return ChallengeID(u), err
}

// ParseFolderID parses a UUID string into a FolderID.
func ParseFolderID(s string) (FolderID, error) {
	u, err := uuid.Parse(s)
	return FolderID(u), err
}

// ParseJobID parses a UUID string into a JobID.
func ParseJobID(s string) (JobID, error) {
	u, err := uuid.Parse(s)
	return JobID(u), err
}

// AccessLevel is the ordered privilege ladder used on phases, challenges and
// submission folders.
type AccessLevel int

const (
	AccessNone AccessLevel = iota
	AccessRead
	AccessWrite
	AccessAdmin
)

func (l AccessLevel) String() string {
	switch l {
	case AccessNone:
		return "none"
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// UserAccess is a single user entry on an access list.
type UserAccess struct {
	UserID UserID      `json:"userId"`
	Level  AccessLevel `json:"level"`
}

// GroupAccess is a single group entry on an access list.
type GroupAccess struct {
	GroupID GroupID     `json:"groupId"`
	Level   AccessLevel `json:"level"`
}

// AccessList is the ACL attached to an access-controlled resource.
type AccessList struct {
	Public bool          `json:"public"`
	Users  []UserAccess  `json:"users"`
	Groups []GroupAccess `json:"groups"`
}

// UserLevel returns the highest access level the user holds directly on the
// list. Group membership is resolved by the caller via Identity.Groups.
func (a AccessList) UserLevel(id UserID) AccessLevel {
	level := AccessNone
	for _, u := range a.Users {
		if u.UserID == id && u.Level > level {
			level = u.Level
		}
	}
	return level
}

// LevelFor resolves the effective access level for an identity, considering
// direct user entries, group entries and public visibility.
func (a AccessList) LevelFor(actor Identity) AccessLevel {
	if actor.SiteAdmin {
		return AccessAdmin
	}
	level := a.UserLevel(actor.UserID)
	for _, g := range a.Groups {
		if actor.InGroup(g.GroupID) && g.Level > level {
			level = g.Level
		}
	}
	if a.Public && level < AccessRead {
		level = AccessRead
	}
	return level
}

// AdminUserIDs returns the IDs of users holding WRITE access or above.
// These are the "phase administrators" for folder-access synchronization.
func (a AccessList) AdminUserIDs() []UserID {
	var ids []UserID
	for _, u := range a.Users {
		if u.Level >= AccessWrite {
			ids = append(ids, u.UserID)
		}
	}
	return ids
}

// WithUserAccess returns a copy of the list with the user's entry set to the
// given level, or removed entirely for AccessNone.
func (a AccessList) WithUserAccess(id UserID, level AccessLevel) AccessList {
	users := make([]UserAccess, 0, len(a.Users)+1)
	for _, u := range a.Users {
		if u.UserID != id {
			users = append(users, u)
		}
	}
	if level > AccessNone {
		users = append(users, UserAccess{UserID: id, Level: level})
	}
	a.Users = users
	return a
}

// WithGroupAccess returns a copy of the list with the group's entry set.
func (a AccessList) WithGroupAccess(id GroupID, level AccessLevel) AccessList {
	groups := make([]GroupAccess, 0, len(a.Groups)+1)
	for _, g := range a.Groups {
		if g.GroupID != id {
			groups = append(groups, g)
		}
	}
	if level > AccessNone {
		groups = append(groups, GroupAccess{GroupID: id, Level: level})
	}
	a.Groups = groups
	return a
}

// Equal reports whether two access lists grant identical access, ignoring
// entry order.
func (a AccessList) Equal(other AccessList) bool {
	if a.Public != other.Public || len(a.Users) != len(other.Users) || len(a.Groups) != len(other.Groups) {
		return false
	}
	users := make(map[UserID]AccessLevel, len(a.Users))
	for _, u := range a.Users {
		users[u.UserID] = u.Level
	}
	for _, u := range other.Users {
		if users[u.UserID] != u.Level {
			return false
		}
	}
	groups := make(map[GroupID]AccessLevel, len(a.Groups))
	for _, g := range a.Groups {
		groups[g.GroupID] = g.Level
	}
	for _, g := range other.Groups {
		if groups[g.GroupID] != g.Level {
			return false
		}
	}
	return true
}

// Identity is the acting principal for an operation. Every service operation
// takes one explicitly; there is no ambient "current user".
type Identity struct {
	UserID    UserID
	Name      string
	Email     string
	SiteAdmin bool
	Groups    []GroupID
}

// InGroup reports whether the identity is a member of the given group.
func (i Identity) InGroup(g GroupID) bool {
	for _, gid := range i.Groups {
		if gid == g {
			return true
		}
	}
	return false
}
