package models

import (
	"time"
)

// RecipeAdminsGroup members manage every recipe.
const RecipeAdminsGroup = "recipes_admins"

type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	FirstName    string    `gorm:"size:150;not null" json:"first_name"`
	LastName     string    `gorm:"size:150;not null" json:"last_name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"-"`
	Groups       []Group   `gorm:"many2many:user_groups;constraint:OnDelete:CASCADE" json:"-"`
}

type Group struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:150;uniqueIndex;not null" json:"name"`
}

// IsRecipeAdmin reports whether the user may manage recipes of other
// authors. Groups must be preloaded.
func (u *User) IsRecipeAdmin() bool {
	if u.IsSuperuser {
		return true
	}
	for _, g := range u.Groups {
		if g.Name == RecipeAdminsGroup {
			return true
		}
	}
	return false
}

// Follow is a subscription of Follower to the recipes of Followed.
type Follow struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follow_pair;check:chk_follows_not_self,follower_id <> followed_id" json:"follower_id"`
	FollowedID uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"followed_id"`
	Follower   User      `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Followed   User      `gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE" json:"-"`
}
