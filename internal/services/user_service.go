package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/events"
	"github.com/blogium/blogium-api/internal/mail"
	"github.com/blogium/blogium-api/internal/models"
	"github.com/blogium/blogium-api/internal/principal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserService struct {
	db            *gorm.DB
	tokens        *TokenIssuer
	notifications *NotificationService
	mailer        mail.Mailer
	composer      *mail.Composer
	events        *events.Dispatcher
}

func NewUserService(db *gorm.DB, tokens *TokenIssuer, notifications *NotificationService, mailer mail.Mailer, composer *mail.Composer, dispatcher *events.Dispatcher) *UserService {
	return &UserService{
		db:            db,
		tokens:        tokens,
		notifications: notifications,
		mailer:        mailer,
		composer:      composer,
		events:        dispatcher,
	}
}

// GetCurrentUser returns the caller's account with a freshly signed token.
func (s *UserService) GetCurrentUser(ctx context.Context, user principal.Principal) (*dto.UserResponse, error) {
	u, err := s.byID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return userResponse(u, token), nil
}

func (s *UserService) UpdateUser(ctx context.Context, user principal.Principal, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	u, err := s.byID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Username != nil {
		if name := strings.TrimSpace(*req.Username); name != "" && name != u.Username {
			if taken, err := s.taken(ctx, "username", name, u.ID); err != nil {
				return nil, err
			} else if taken {
				return nil, ErrUsernameTaken
			}
			updates["username"] = name
		}
	}
	if req.Email != nil {
		if email := normalizeEmail(*req.Email); email != "" && email != u.Email {
			if taken, err := s.taken(ctx, "email", email, u.ID); err != nil {
				return nil, err
			} else if taken {
				return nil, ErrEmailTaken
			}
			updates["email"] = email
		}
	}
	if req.Bio != nil {
		updates["bio"] = emptyToNil(req.Bio)
	}
	if req.Image != nil {
		updates["image"] = emptyToNil(req.Image)
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		updates["password_hash"] = string(hash)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}
	return s.GetCurrentUser(ctx, user)
}

// GetProfile returns the public profile of username with follower counts.
// Following is set only for an authenticated viewer.
func (s *UserService) GetProfile(ctx context.Context, viewer principal.Principal, username string) (*dto.ProfileView, error) {
	target, err := s.byUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, viewer, target)
}

// FollowUser is idempotent. Self-follow is rejected before any edge lookup.
// The first follow emails and notifies the followed user.
func (s *UserService) FollowUser(ctx context.Context, follower principal.Principal, username string) (*dto.ProfileView, error) {
	target, err := s.byUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == follower.ID {
		return nil, ErrSelfFollow
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserFollow{FollowerID: follower.ID, FollowingID: target.ID})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to follow user: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		actor, err := s.byID(ctx, follower.ID)
		if err != nil {
			return nil, err
		}
		s.events.Fire(ctx, events.FollowEmail, func(ctx context.Context) error {
			msg, err := s.composer.NewFollower(target.Email, target.Username, actor.Username)
			if err != nil {
				return err
			}
			return s.mailer.Send(ctx, msg)
		}, "user_id", follower.ID, "following_id", target.ID)
		s.events.Fire(ctx, events.UserFollowed, func(ctx context.Context) error {
			return s.notifications.Notify(ctx, NotifyParams{
				RecipientID: target.ID,
				Type:        models.NotificationUserFollowed,
				Message:     fmt.Sprintf("%s started following you", actor.Username),
				ActorID:     ptr(follower.ID),
			})
		}, "user_id", follower.ID, "following_id", target.ID)
	}

	return s.profile(ctx, follower, target)
}

// UnfollowUser is idempotent.
func (s *UserService) UnfollowUser(ctx context.Context, follower principal.Principal, username string) (*dto.ProfileView, error) {
	target, err := s.byUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", follower.ID, target.ID).
		Delete(&models.UserFollow{}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to unfollow user: %w", err)
	}

	return s.profile(ctx, follower, target)
}

func (s *UserService) profile(ctx context.Context, viewer principal.Principal, target *models.User) (*dto.ProfileView, error) {
	view := &dto.ProfileView{
		ID:       target.ID,
		Username: target.Username,
		Bio:      target.Bio,
		Image:    target.Image,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.UserFollow{}).
			Where("following_id = ?", target.ID).Count(&view.FollowersCount).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.UserFollow{}).
			Where("follower_id = ?", target.ID).Count(&view.FollowingCount).Error
	})
	if viewer.Authenticated() && viewer.ID != target.ID {
		g.Go(func() error {
			set, err := followingSet(gctx, s.db, viewer.ID, []uint{target.ID})
			view.Following = set[target.ID]
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return view, nil
}

func (s *UserService) byID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

func (s *UserService) byUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

func (s *UserService) taken(ctx context.Context, column, value string, exceptID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where(column+" = ? AND id <> ?", value, exceptID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", column, err)
	}
	return count > 0, nil
}
