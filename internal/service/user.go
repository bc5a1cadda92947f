package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserService struct {
	db    *gorm.DB
	authz *authz.Enforcer
}

func NewUserService(db *gorm.DB, enforcer *authz.Enforcer) *UserService {
	return &UserService{db: db, authz: enforcer}
}

// Register creates a regular user.
func (s *UserService) Register(ctx context.Context, actor Actor, req *types.RegisterRequest) (*types.UserResponse, error) {
	if err := authorize(s.authz, actor, authz.User, authz.Create, 0); err != nil {
		return nil, err
	}
	user, err := s.createUser(ctx, req, false)
	if err != nil {
		return nil, err
	}
	return userResponse(user, false), nil
}

// CreateSuperuser creates a user with admin rights on every recipe. It is
// only reachable from the admin CLI.
func (s *UserService) CreateSuperuser(ctx context.Context, req *types.RegisterRequest) (*models.User, error) {
	return s.createUser(ctx, req, true)
}

func (s *UserService) createUser(ctx context.Context, req *types.RegisterRequest, superuser bool) (*models.User, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        normalizeEmail(req.Email),
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		IsSuperuser:  superuser,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("user with this email or username: %w", ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// AddToGroup adds a user to a named group, creating the group if needed.
func (s *UserService) AddToGroup(ctx context.Context, userID uint, group string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %d: %w", userID, ErrNotFound)
			}
			return err
		}
		g := models.Group{Name: group}
		if err := tx.Where(models.Group{Name: group}).FirstOrCreate(&g).Error; err != nil {
			return fmt.Errorf("failed to resolve group: %w", err)
		}
		return tx.Model(&user).Association("Groups").Append(&g)
	})
}

// List returns users ordered by username.
func (s *UserService) List(ctx context.Context, actor Actor, page types.PageRequest) (*types.Page[types.UserResponse], error) {
	if err := authorize(s.authz, actor, authz.User, authz.List, 0); err != nil {
		return nil, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := paginate(s.db.WithContext(ctx).Order("username ASC"), page).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subscribed, err := subscribedTo(ctx, s.db, actor, ids)
	if err != nil {
		return nil, err
	}

	out := &types.Page[types.UserResponse]{Total: total, Items: make([]types.UserResponse, len(users))}
	for i := range users {
		out.Items[i] = *userResponse(&users[i], subscribed[users[i].ID])
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, actor Actor, id uint) (*types.UserResponse, error) {
	if err := authorize(s.authz, actor, authz.User, authz.Retrieve, 0); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	subscribed, err := subscribedTo(ctx, s.db, actor, []uint{id})
	if err != nil {
		return nil, err
	}
	return userResponse(user, subscribed[id]), nil
}

func (s *UserService) Me(ctx context.Context, actor Actor) (*types.UserResponse, error) {
	if err := authorize(s.authz, actor, authz.User, authz.Me, 0); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return userResponse(user, false), nil
}

// SetPassword replaces the password after checking the current one.
func (s *UserService) SetPassword(ctx context.Context, actor Actor, req *types.SetPasswordRequest) error {
	if err := authorize(s.authz, actor, authz.User, authz.SetPassword, actor.UserID); err != nil {
		return err
	}
	user, err := s.load(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fieldError("current_password", "wrong password")
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *UserService) load(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// Subscriptions lists the authors the actor follows, each with up to
// recipesLimit of their newest recipes. recipesLimit <= 0 means all.
func (s *UserService) Subscriptions(ctx context.Context, actor Actor, page types.PageRequest, recipesLimit int) (*types.Page[types.SubscriptionResponse], error) {
	if err := authorize(s.authz, actor, authz.User, authz.Subscriptions, 0); err != nil {
		return nil, err
	}

	followed := s.db.WithContext(ctx).Model(&models.Follow{}).
		Select("followed_id").Where("follower_id = ?", actor.UserID)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id IN (?)", followed).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var authors []models.User
	q := s.db.WithContext(ctx).Where("id IN (?)", followed).Order("username ASC")
	if err := paginate(q, page).Find(&authors).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	out := &types.Page[types.SubscriptionResponse]{Total: total, Items: make([]types.SubscriptionResponse, 0, len(authors))}
	for i := range authors {
		sub, err := s.subscription(ctx, &authors[i], recipesLimit)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, *sub)
	}
	return out, nil
}

// Subscribe makes the actor follow author.
func (s *UserService) Subscribe(ctx context.Context, actor Actor, authorID uint, recipesLimit int) (*types.SubscriptionResponse, error) {
	if err := authorize(s.authz, actor, authz.User, authz.Subscribe, 0); err != nil {
		return nil, err
	}
	author, err := s.load(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author.ID == actor.UserID {
		return nil, ErrSelfFollow
	}

	follow := &models.Follow{FollowerID: actor.UserID, FollowedID: author.ID}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("already subscribed to %s: %w", author.Username, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	return s.subscription(ctx, author, recipesLimit)
}

// Unsubscribe removes the follow of author by the actor.
func (s *UserService) Unsubscribe(ctx context.Context, actor Actor, authorID uint) error {
	if err := authorize(s.authz, actor, authz.User, authz.Subscribe, 0); err != nil {
		return err
	}
	if _, err := s.load(ctx, authorID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", actor.UserID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return fmt.Errorf("failed to unsubscribe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("not subscribed to user %d: %w", authorID, ErrNotFound)
	}
	return nil
}

func (s *UserService) subscription(ctx context.Context, author *models.User, recipesLimit int) (*types.SubscriptionResponse, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ?", author.ID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	q := s.db.WithContext(ctx).Where("author_id = ?", author.ID).Order("created_at DESC, id DESC")
	if recipesLimit > 0 {
		q = q.Limit(recipesLimit)
	}
	var recipes []models.Recipe
	if err := q.Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}

	sub := &types.SubscriptionResponse{
		UserResponse: *userResponse(author, true),
		Recipes:      make([]types.RecipeShortResponse, len(recipes)),
		RecipesCount: count,
	}
	for i := range recipes {
		sub.Recipes[i] = *shortRecipe(&recipes[i])
	}
	return sub, nil
}

// subscribedTo reports which of userIDs the actor follows.
func subscribedTo(ctx context.Context, db *gorm.DB, actor Actor, userIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if actor.Anonymous() || len(userIDs) == 0 {
		return out, nil
	}
	var ids []uint
	if err := db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id IN ?", actor.UserID, userIDs).
		Pluck("followed_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func userResponse(u *models.User, subscribed bool) *types.UserResponse {
	return &types.UserResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

// normalizeEmail lowercases addresses so that login, which matches case
// insensitively, resolves to at most one account.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
