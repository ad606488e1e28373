package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/repository"
	"github.com/rongwang/condo-ledger/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Mailer delivers sign-in links
type Mailer interface {
	SendMagicLink(ctx context.Context, email, link string) error
}

// LogMailer writes sign-in links to the log instead of sending mail
type LogMailer struct {
	Logger logrus.FieldLogger
}

func (m LogMailer) SendMagicLink(ctx context.Context, email, link string) error {
	m.Logger.WithFields(logrus.Fields{
		"email": email,
		"link":  link,
	}).Info("magic link issued")
	return nil
}

// Authentication methods
func (s *DefaultService) RequestMagicLink(ctx context.Context, req models.MagicLinkRequest) (*models.MagicLinkResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, validationError("email is required")
	}

	secret, err := randomSecret()
	if err != nil {
		return nil, fmt.Errorf("error generating link secret: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing link secret: %w", err)
	}

	link := &models.MagicLink{
		Email:     email,
		TokenHash: string(hash),
		ExpiresAt: time.Now().UTC().Add(s.linkDuration),
	}
	if err := s.repo.CreateMagicLink(ctx, link); err != nil {
		return nil, fmt.Errorf("error creating magic link: %w", err)
	}

	verifyURL := fmt.Sprintf("%s/api/auth/verify?token=%s", s.baseURL, url.QueryEscape(link.ID+"."+secret))
	if err := s.mailer.SendMagicLink(ctx, email, verifyURL); err != nil {
		return nil, fmt.Errorf("error sending magic link: %w", err)
	}

	return &models.MagicLinkResponse{
		Status:  "success",
		Message: "Check your email for a sign-in link",
	}, nil
}

func (s *DefaultService) VerifyMagicLink(ctx context.Context, token string) (*models.AuthResponse, error) {
	linkID, secret, ok := strings.Cut(token, ".")
	if !ok || linkID == "" || secret == "" {
		return nil, unauthorized("invalid sign-in link")
	}

	link, err := s.repo.GetMagicLink(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("error getting magic link: %w", err)
	}
	if link == nil || link.UsedAt != nil {
		return nil, unauthorized("invalid sign-in link")
	}

	now := time.Now().UTC()
	if now.After(link.ExpiresAt) {
		return nil, unauthorized("sign-in link has expired")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(link.TokenHash), []byte(secret)); err != nil {
		return nil, unauthorized("invalid sign-in link")
	}

	// Only the first concurrent verification wins.
	consumed, err := s.repo.ConsumeMagicLink(ctx, link.ID, now)
	if err != nil {
		return nil, fmt.Errorf("error consuming magic link: %w", err)
	}
	if !consumed {
		return nil, unauthorized("invalid sign-in link")
	}

	user, err := s.upsertUser(ctx, link.Email)
	if err != nil {
		return nil, err
	}

	token, err = s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	actor := models.Actor{UserID: user.ID, Email: user.Email, Role: user.Role}
	s.record(ctx, actor, models.AuditSignIn, models.EntityUser, user.ID, nil)

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

func (s *DefaultService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, notFound("user")
	}
	return user, nil
}

func (s *DefaultService) SignOut(ctx context.Context, actor models.Actor) {
	s.record(ctx, actor, models.AuditSignOut, models.EntityUser, actor.UserID, nil)
}

// upsertUser finds or creates the user for a verified email. The role follows
// the configured admin list on every sign-in.
func (s *DefaultService) upsertUser(ctx context.Context, email string) (*models.User, error) {
	role := models.RoleUser
	if s.adminEmails[email] {
		role = models.RoleAdmin
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		user = &models.User{
			Email: email,
			Name:  strings.SplitN(email, "@", 2)[0],
			Role:  role,
		}
		err := s.repo.CreateUser(ctx, user)
		if errors.Is(err, repository.ErrDuplicate) {
			// Created by a concurrent sign-in.
			return s.repo.GetUserByEmail(ctx, email)
		}
		if err != nil {
			return nil, fmt.Errorf("error creating user: %w", err)
		}
		s.record(ctx, models.SystemActor, models.AuditCreate, models.EntityUser, user.ID,
			map[string]any{"email": email, "role": role})
		return user, nil
	}

	if user.Role != role {
		if err := s.repo.UpdateUserRole(ctx, user.ID, role); err != nil {
			utils.LogError(s.logger, "service", "upsertUser", "update role", user.ID, err)
		} else {
			user.Role = role
		}
	}
	return user, nil
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := time.Now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub":   user.ID, // subject
		"email": user.Email,
		"role":  user.Role,
		"exp":   expirationTime.Unix(),
		"iat":   time.Now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
