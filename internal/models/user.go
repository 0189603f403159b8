package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered user. Session tokens are kept by the
// sessions store, not on this record.
type User struct {
	ID                  string            `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Username            string            `json:"username" bson:"username" gorm:"type:varchar(30);uniqueIndex;not null"`
	Email               string            `json:"email" bson:"email" gorm:"uniqueIndex;not null"`
	PasswordHash        string            `json:"-" bson:"passwordHash" gorm:"not null"`
	Name                string            `json:"name,omitempty" bson:"name,omitempty" gorm:"type:varchar(100)"`
	Avatar              string            `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Role                Role              `json:"role" bson:"role" gorm:"type:varchar(16);not null"`
	IsActive            bool              `json:"isActive" bson:"isActive" gorm:"index"`
	CompletedChallenges []CompletionEntry `json:"completedChallenges" bson:"completedChallenges" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Stats               UserStats         `json:"stats" bson:"stats" gorm:"embedded;embeddedPrefix:stats_"`
	Preferences         Preferences       `json:"preferences" bson:"preferences" gorm:"serializer:json;type:text"`
	CreatedAt           time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// CompletionEntry is an immutable record in a user's completion log.
// ChallengeID is a weak reference: the challenge may since have been deleted.
type CompletionEntry struct {
	ID          string    `json:"-" bson:"-" gorm:"primaryKey;type:varchar(36)"`
	UserID      string    `json:"-" bson:"-" gorm:"type:varchar(36);not null;index:idx_completion_user_challenge"`
	ChallengeID string    `json:"challengeId" bson:"challengeId" gorm:"type:varchar(36);not null;index:idx_completion_user_challenge"`
	CompletedAt time.Time `json:"completedAt" bson:"completedAt" gorm:"not null;index"`
	Rating      *int      `json:"rating,omitempty" bson:"rating,omitempty"`
}

type UserStats struct {
	TotalCompleted   int64      `json:"totalCompleted" bson:"totalCompleted"`
	CurrentStreak    int        `json:"currentStreak" bson:"currentStreak"`
	LongestStreak    int        `json:"longestStreak" bson:"longestStreak"`
	LastActivityDate *time.Time `json:"lastActivityDate" bson:"lastActivityDate"`
}

// StatsTransition derives a user's stats after one completion from the
// stats stored at the moment of the write. Stores persist the
// TotalCompleted step as an atomic increment.
type StatsTransition func(current UserStats) UserStats

const PreferenceMixed = "mixed"

type Preferences struct {
	FavoriteCategories []string `json:"favoriteCategories" bson:"favoriteCategories"`
	Difficulty         string   `json:"difficulty" bson:"difficulty"`
	DailyGoal          int      `json:"dailyGoal" bson:"dailyGoal"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		FavoriteCategories: []string{},
		Difficulty:         PreferenceMixed,
		DailyGoal:          3,
	}
}

// HasRole reports whether the user holds one of roles.
func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// UserPatch carries profile fields a user may change about themselves.
type UserPatch struct {
	Name         *string
	Avatar       *string
	Preferences  *Preferences
	PasswordHash *string
}

func (u *User) Apply(p UserPatch) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Preferences != nil {
		u.Preferences = *p.Preferences
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
}
